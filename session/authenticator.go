package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	retry "github.com/appleboy/go-httpretry"
	"golang.org/x/oauth2"
)

// authExchangeTimeout bounds a single identity-proof exchange round-trip.
const authExchangeTimeout = 10 * time.Second

// ErrAuthenticationFailed indicates that the identity-proof exchange was
// rejected or unreachable on every available path.
var ErrAuthenticationFailed = errors.New("authentication failed")

// Identity is the proof of who the user is, offered to the backend in
// exchange for a bearer token. InitData is the signed payload supplied by the
// Telegram shell and is strongly preferred; the remaining fields form the
// unsigned fallback tuple for environments where the signed payload is
// unavailable. Whether the fallback is trusted is entirely the backend's call.
type Identity struct {
	InitData     string
	UserID       int64
	FirstName    string
	LastName     string
	Username     string
	LanguageCode string
}

// HasSignedPayload reports whether the signed init-data blob is available.
func (id Identity) HasSignedPayload() bool {
	return id.InitData != ""
}

// HasFallback reports whether enough unsigned identity data is available for
// the fallback exchange.
func (id Identity) HasFallback() bool {
	return id.UserID != 0 && id.FirstName != ""
}

// signedExchangeRequest is the preferred request body for POST /auth/telegram.
type signedExchangeRequest struct {
	InitData string `json:"init_data"`
}

// fallbackExchangeRequest is the unsigned request body for POST /auth/telegram.
type fallbackExchangeRequest struct {
	TgUserID     int64  `json:"tg_user_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

type exchangeResponse struct {
	Token string `json:"token"`
}

// Authenticator exchanges an Identity for a bearer token via the single
// backend auth endpoint.
type Authenticator struct {
	serverURL string
	client    *retry.Client
}

// NewAuthenticator creates an Authenticator talking to the backend at
// serverURL through the given retrying HTTP client.
func NewAuthenticator(serverURL string, client *retry.Client) *Authenticator {
	return &Authenticator{serverURL: serverURL, client: client}
}

// Authenticate performs the exchange. The signed-payload path is tried first
// because the backend can verify it cryptographically; the unsigned fallback
// is attempted only when the signed path fails or no signed payload exists.
// When both paths are exhausted the returned error wraps
// ErrAuthenticationFailed.
func (a *Authenticator) Authenticate(ctx context.Context, id Identity) (*oauth2.Token, error) {
	var signedErr error

	if id.HasSignedPayload() {
		tok, err := a.exchange(ctx, signedExchangeRequest{InitData: id.InitData})
		if err == nil {
			return tok, nil
		}
		signedErr = err
	}

	if id.HasFallback() {
		tok, err := a.exchange(ctx, fallbackExchangeRequest{
			TgUserID:     id.UserID,
			FirstName:    id.FirstName,
			LastName:     id.LastName,
			Username:     id.Username,
			LanguageCode: id.LanguageCode,
		})
		if err == nil {
			return tok, nil
		}
		if signedErr != nil {
			return nil, fmt.Errorf(
				"%w: signed exchange: %v; fallback exchange: %v",
				ErrAuthenticationFailed, signedErr, err,
			)
		}
		return nil, fmt.Errorf("%w: fallback exchange: %v", ErrAuthenticationFailed, err)
	}

	if signedErr != nil {
		return nil, fmt.Errorf("%w: signed exchange: %v", ErrAuthenticationFailed, signedErr)
	}
	return nil, fmt.Errorf("%w: no identity data available", ErrAuthenticationFailed)
}

// exchange posts one request body to /auth/telegram and parses the token out
// of the response.
func (a *Authenticator) exchange(ctx context.Context, reqBody any) (*oauth2.Token, error) {
	reqCtx, cancel := context.WithTimeout(ctx, authExchangeTimeout)
	defer cancel()

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		reqCtx,
		http.MethodPost,
		a.serverURL+"/auth/telegram",
		bytes.NewReader(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.DoWithContext(reqCtx, req)
	if err != nil {
		return nil, fmt.Errorf("exchange request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf(
			"exchange failed with status %d: %s",
			resp.StatusCode,
			string(body),
		)
	}

	var tokenResp exchangeResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tokenResp.Token == "" {
		return nil, errors.New("token is empty in exchange response")
	}

	return &oauth2.Token{
		AccessToken: tokenResp.Token,
		TokenType:   "Bearer",
	}, nil
}
