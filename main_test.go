package main

import (
	"strings"
	"testing"
	"time"
)

func TestValidateServerURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid http", "http://localhost:8080", false},
		{"valid https", "https://finance.example.com", false},
		{"empty", "", true},
		{"no scheme", "localhost:8080", true},
		{"bad scheme", "ftp://example.com", true},
		{"no host", "http://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateServerURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateServerURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestGetConfig_Precedence(t *testing.T) {
	t.Setenv("TGFIN_TEST_KEY", "from-env")

	if got := getConfig("from-flag", "TGFIN_TEST_KEY", "default"); got != "from-flag" {
		t.Errorf("flag should win, got %q", got)
	}
	if got := getConfig("", "TGFIN_TEST_KEY", "default"); got != "from-env" {
		t.Errorf("env should win over default, got %q", got)
	}
	if got := getConfig("", "TGFIN_TEST_ABSENT", "default"); got != "default" {
		t.Errorf("default should apply, got %q", got)
	}
}

func TestLoadIdentity(t *testing.T) {
	t.Setenv("TG_USER_ID", "12345")
	t.Setenv("TG_FIRST_NAME", "Ada")
	t.Setenv("TG_LAST_NAME", "Lovelace")
	t.Setenv("TG_USERNAME", "ada")
	t.Setenv("TG_LANGUAGE_CODE", "en")

	id := loadIdentity()
	if id.UserID != 12345 {
		t.Errorf("UserID = %d", id.UserID)
	}
	if id.FirstName != "Ada" || id.LastName != "Lovelace" {
		t.Errorf("Name = %q %q", id.FirstName, id.LastName)
	}
	if !id.HasFallback() {
		t.Errorf("Expected fallback identity to be available")
	}
}

func TestLoadIdentity_BadUserID(t *testing.T) {
	t.Setenv("TG_USER_ID", "not-a-number")
	t.Setenv("TG_FIRST_NAME", "Ada")

	id := loadIdentity()
	if id.UserID != 0 {
		t.Errorf("UserID = %d, want 0 for unparseable input", id.UserID)
	}
	if id.HasFallback() {
		t.Errorf("Fallback must not be available without a numeric user id")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{"empty is zero time", "", time.Time{}, false},
		{
			"plain date",
			"2026-08-29",
			time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
			false,
		},
		{
			"rfc3339",
			"2026-08-29T10:30:00Z",
			time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC),
			false,
		},
		{"garbage", "yesterday", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDate(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err == nil && !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestBuildTransactionDraft(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		accountID   int64
		categoryID  int64
		date        string
		wantErr     bool
		errContains string
	}{
		{
			name:       "valid expense",
			amount:     "-4.50",
			accountID:  1,
			categoryID: 2,
		},
		{
			name:       "valid with date",
			amount:     "120",
			accountID:  1,
			categoryID: 2,
			date:       "2026-08-01",
		},
		{
			name:        "missing amount",
			amount:      "",
			accountID:   1,
			categoryID:  2,
			wantErr:     true,
			errContains: "-amount is required",
		},
		{
			name:        "unparseable amount",
			amount:      "four fifty",
			accountID:   1,
			categoryID:  2,
			wantErr:     true,
			errContains: "invalid amount",
		},
		{
			name:        "missing account",
			amount:      "-4.50",
			categoryID:  2,
			wantErr:     true,
			errContains: "-account is required",
		},
		{
			name:        "missing category",
			amount:      "-4.50",
			accountID:   1,
			wantErr:     true,
			errContains: "-category is required",
		},
		{
			name:        "bad date",
			amount:      "-4.50",
			accountID:   1,
			categoryID:  2,
			date:        "someday",
			wantErr:     true,
			errContains: "invalid date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := buildTransactionDraft(
				tt.amount, tt.accountID, tt.categoryID, "", "note", tt.date,
			)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got draft %+v", draft)
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error = %v, want it to contain %q", err, tt.errContains)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if draft.AccountID != tt.accountID || draft.CategoryID != tt.categoryID {
				t.Errorf("draft ids = %d/%d", draft.AccountID, draft.CategoryID)
			}
			if tt.date == "" && draft.OccurredAt.IsZero() {
				t.Errorf("OccurredAt should default to now")
			}
		})
	}
}
