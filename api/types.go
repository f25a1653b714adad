package api

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the authenticated caller's own profile record.
type User struct {
	ID           int64  `json:"id"`
	TgUserID     int64  `json:"tg_user_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Account is one money account (card, cash, savings).
type Account struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
	Default  bool            `json:"is_default"`
}

// Category classifies transactions. Kind is "expense" or "income".
type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Emoji string `json:"emoji,omitempty"`
}

// Transaction is one recorded expense or income. Amounts are signed from the
// account's point of view: negative for expenses, positive for income.
type Transaction struct {
	ID         int64           `json:"id"`
	AccountID  int64           `json:"account_id"`
	CategoryID int64           `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Note       string          `json:"note,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// TransactionDraft is the client-supplied part of a transaction, used for
// both creation and edits.
type TransactionDraft struct {
	AccountID  int64           `json:"account_id"`
	CategoryID int64           `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency,omitempty"`
	Note       string          `json:"note,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// TransactionFilter narrows a transaction listing. Zero values mean
// "unfiltered".
type TransactionFilter struct {
	From       time.Time
	To         time.Time
	AccountID  int64
	CategoryID int64
	Limit      int
}

// Debt direction values.
const (
	DebtOwedToMe = "owed_to_me"
	DebtIOwe     = "i_owe"
)

// Debt tracks money lent to or borrowed from a counterparty.
type Debt struct {
	ID           int64           `json:"id"`
	Counterparty string          `json:"counterparty"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Direction    string          `json:"direction"`
	Note         string          `json:"note,omitempty"`
	Settled      bool            `json:"settled"`
	CreatedAt    time.Time       `json:"created_at"`
}

// DebtDraft is the client-supplied part of a debt.
type DebtDraft struct {
	Counterparty string          `json:"counterparty"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency,omitempty"`
	Direction    string          `json:"direction"`
	Note         string          `json:"note,omitempty"`
}

// StatsFilter selects the period and grouping of a stats request.
// GroupBy is "day", "week", "month" or "category".
type StatsFilter struct {
	From    time.Time
	To      time.Time
	GroupBy string
}

// CategoryTotal is one row of a per-category breakdown.
type CategoryTotal struct {
	CategoryID int64           `json:"category_id"`
	Name       string          `json:"name"`
	Total      decimal.Decimal `json:"total"`
}

// StatsSummary is the server-computed spending summary for a period.
type StatsSummary struct {
	Income     decimal.Decimal `json:"income"`
	Expense    decimal.Decimal `json:"expense"`
	Currency   string          `json:"currency"`
	ByCategory []CategoryTotal `json:"by_category,omitempty"`
}

// ParsedTransaction is the backend's reading of a free-text description.
// The server does all the parsing; the client only relays the text.
type ParsedTransaction struct {
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	CategoryID   int64           `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
	Note         string          `json:"note,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Confidence   float64         `json:"confidence"`
}
