package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	retry "github.com/appleboy/go-httpretry"
	"github.com/joho/godotenv"

	tea "charm.land/bubbletea/v2"

	"github.com/tgfin/finance-cli/api"
	"github.com/tgfin/finance-cli/session"
	"github.com/tgfin/finance-cli/tui"
)

var (
	serverURL         string
	tokenFile         string
	authToken         string
	initData          string
	flagServerURL     *string
	flagTokenFile     *string
	flagAuthToken     *string
	flagInitData      *string
	configInitialized bool
	retryClient       *retry.Client
)

func init() {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Define flags (but don't parse yet to avoid conflicts with test flags)
	flagServerURL = flag.String(
		"server-url",
		"",
		"Finance backend URL (default: http://localhost:8080 or SERVER_URL env)",
	)
	flagTokenFile = flag.String(
		"token-file",
		"",
		"Token storage file (default: .tgfin-token.json or TOKEN_FILE env)",
	)
	flagAuthToken = flag.String(
		"token",
		"",
		"Pre-issued bearer token from a bot deep link (or AUTH_TOKEN env); skips sign-in",
	)
	flagInitData = flag.String(
		"init-data",
		"",
		"Signed Telegram init data (or TG_INIT_DATA env)",
	)
}

// initConfig parses flags and initializes configuration
// Separated from init() to avoid conflicts with test flag parsing
func initConfig() {
	if configInitialized {
		return
	}
	configInitialized = true

	flag.Parse()

	// Priority: flag > env > default
	serverURL = getConfig(*flagServerURL, "SERVER_URL", "http://localhost:8080")
	tokenFile = getConfig(*flagTokenFile, "TOKEN_FILE", ".tgfin-token.json")
	authToken = getConfig(*flagAuthToken, "AUTH_TOKEN", "")
	initData = getConfig(*flagInitData, "TG_INIT_DATA", "")

	// Validate SERVER_URL format
	if err := validateServerURL(serverURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid SERVER_URL: %v\n", err)
		os.Exit(1)
	}

	// Warn if using HTTP instead of HTTPS
	if strings.HasPrefix(strings.ToLower(serverURL), "http://") {
		fmt.Fprintln(
			os.Stderr,
			"⚠️  WARNING: Using HTTP instead of HTTPS. Tokens will be transmitted in plaintext!",
		)
		fmt.Fprintln(
			os.Stderr,
			"⚠️  This is only safe for local development. Use HTTPS in production.",
		)
		fmt.Fprintln(os.Stderr)
	}

	// Initialize HTTP client with retry support
	baseHTTPClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			DisableKeepAlives:   false,
		},
	}

	// Wrap with retry logic using go-httpretry
	var err error
	retryClient, err = retry.NewBackgroundClient(
		retry.WithHTTPClient(baseHTTPClient),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create retry client: %v", err))
	}
}

// getConfig returns value with priority: flag > env > default
func getConfig(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return getEnv(envKey, defaultValue)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// validateServerURL validates that the server URL is properly formatted
func validateServerURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("server URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got: %s", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("URL must include a host")
	}

	return nil
}

// loadIdentity assembles the Telegram identity proof from configuration.
// The signed init-data blob is the preferred proof; the TG_* fields form the
// unsigned fallback tuple for runs outside the Telegram shell.
func loadIdentity() session.Identity {
	id := session.Identity{
		InitData:     initData,
		FirstName:    os.Getenv("TG_FIRST_NAME"),
		LastName:     os.Getenv("TG_LAST_NAME"),
		Username:     os.Getenv("TG_USERNAME"),
		LanguageCode: os.Getenv("TG_LANGUAGE_CODE"),
	}
	if raw := os.Getenv("TG_USER_ID"); raw != "" {
		if userID, err := strconv.ParseInt(raw, 10, 64); err == nil {
			id.UserID = userID
		} else {
			fmt.Fprintf(os.Stderr, "⚠️  Warning: TG_USER_ID is not a number: %s\n", raw)
		}
	}
	return id
}

// isTTY reports whether stderr is a character device (interactive terminal).
// We check stderr because the TUI renders to stderr, allowing stdout to be piped.
func isTTY() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func main() {
	initConfig()

	args := flag.Args()

	if isTTY() {
		// Run TUI program on stderr so stdout pipes are not corrupted
		m := tui.NewModel()
		// WithInput(nil): disable stdin/keyboard input so BubbleTea skips terminal
		// capability queries (?2026/?2027). Ctrl+C is handled by signal.NotifyContext.
		p := tea.NewProgram(m, tea.WithOutput(os.Stderr), tea.WithInput(nil))

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			}
		}()

		d := tui.NewProgramDisplayer(p)
		d.Banner()
		runErr := run(d, args)
		p.Quit() // let BubbleTea drain terminal query responses before exiting
		wg.Wait()
		if runErr != nil {
			os.Exit(1)
		}
	} else {
		d := tui.NewPlainDisplayer(os.Stderr)
		d.Banner()
		if err := run(d, args); err != nil {
			os.Exit(1)
		}
	}
}

func run(d tui.Displayer, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Composition root: one store, one session manager, one API client,
	// injected into the command layer. No ambient globals below this point.
	store := session.NewFileStore(tokenFile)
	authenticator := session.NewAuthenticator(serverURL, retryClient)
	sessions := session.NewManager(authenticator, store, loadIdentity())

	switch {
	case authToken != "":
		// A deep-link token takes precedence over any stored credential and
		// over triggering a fresh exchange.
		if err := sessions.Adopt(session.NewBearerToken(authToken)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to persist deep-link token: %v\n", err)
		}
		d.TokenAdopted()
	case store.Token() != nil:
		d.TokenLoaded()
	default:
		d.NoStoredToken()
	}

	client := api.NewClient(serverURL, retryClient, sessions)
	client.SetEvents(api.Events{
		Unauthorized: d.SessionExpired,
		Retrying:     d.Retrying,
	})

	a := &app{api: client, sessions: sessions, d: d, out: os.Stdout}
	if err := a.dispatch(ctx, args); err != nil {
		d.Fatal(err)
		return err
	}

	d.Done()
	return nil
}
