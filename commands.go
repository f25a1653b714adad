package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tgfin/finance-cli/api"
	"github.com/tgfin/finance-cli/session"
	"github.com/tgfin/finance-cli/tui"
)

// app wires the command layer to the API client and session manager.
// Status output goes to the Displayer (stderr); results go to out (stdout).
type app struct {
	api      *api.Client
	sessions *session.Manager
	d        tui.Displayer
	out      io.Writer
}

const usageText = `Usage: tgfin [flags] <command>

Commands:
  login                      sign in and show the current user
  logout                     clear the local credential
  whoami                     show the current user
  accounts                   list accounts
  categories                 list categories
  tx list [flags]            list transactions
  tx add [flags]             record a transaction
  tx edit <id> [flags]       edit a transaction
  tx rm <id>                 delete a transaction
  debts                      list debts
  debts add [flags]          record a debt
  debts settle <id>          settle a debt
  stats [flags]              show the spending summary
  parse <text>               parse a free-text description server-side
  delete-account -yes        delete the account on the backend
`

func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usageText)
		return nil
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.cmdLogin(ctx)
	case "logout":
		return a.cmdLogout()
	case "whoami":
		return a.cmdWhoami(ctx)
	case "accounts":
		return a.cmdAccounts(ctx)
	case "categories":
		return a.cmdCategories(ctx)
	case "tx":
		return a.dispatchTx(ctx, rest)
	case "debts":
		return a.dispatchDebts(ctx, rest)
	case "stats":
		return a.cmdStats(ctx, rest)
	case "parse":
		return a.cmdParse(ctx, rest)
	case "delete-account":
		return a.cmdDeleteAccount(ctx, rest)
	case "help":
		fmt.Fprint(a.out, usageText)
		return nil
	default:
		return fmt.Errorf("unknown command %q (try: tgfin help)", cmd)
	}
}

func (a *app) cmdLogin(ctx context.Context) error {
	a.d.SigningIn()
	if _, err := a.sessions.EnsureToken(ctx); err != nil {
		a.d.SigninFailed(err)
		return err
	}
	a.d.SignedIn()
	return a.cmdWhoami(ctx)
}

func (a *app) cmdLogout() error {
	if err := a.sessions.Clear(); err != nil {
		return err
	}
	a.d.TokenCleared()
	return nil
}

func (a *app) cmdWhoami(ctx context.Context) error {
	a.d.Working("Fetching profile")
	user, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	a.d.OK("Fetched profile")

	name := user.FirstName
	if user.LastName != "" {
		name += " " + user.LastName
	}
	fmt.Fprintf(a.out, "%s", name)
	if user.Username != "" {
		fmt.Fprintf(a.out, " (@%s)", user.Username)
	}
	fmt.Fprintf(a.out, ", tg id %d\n", user.TgUserID)
	return nil
}

func (a *app) cmdAccounts(ctx context.Context) error {
	a.d.Working("Fetching accounts")
	accounts, err := a.api.Accounts(ctx)
	if err != nil {
		return err
	}
	a.d.OK("Fetched accounts")

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBALANCE\tCURRENCY\tDEFAULT")
	for _, acc := range accounts {
		def := ""
		if acc.Default {
			def = "*"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			acc.ID, acc.Name, acc.Balance.StringFixed(2), acc.Currency, def)
	}
	return w.Flush()
}

func (a *app) cmdCategories(ctx context.Context) error {
	a.d.Working("Fetching categories")
	categories, err := a.api.Categories(ctx)
	if err != nil {
		return err
	}
	a.d.OK("Fetched categories")

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKIND")
	for _, cat := range categories {
		name := cat.Name
		if cat.Emoji != "" {
			name = cat.Emoji + " " + name
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", cat.ID, name, cat.Kind)
	}
	return w.Flush()
}

func (a *app) dispatchTx(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return a.cmdTxList(ctx, rest)
	case "add":
		return a.cmdTxAdd(ctx, rest)
	case "edit":
		return a.cmdTxEdit(ctx, rest)
	case "rm":
		return a.cmdTxRm(ctx, rest)
	default:
		return fmt.Errorf("unknown tx subcommand %q", sub)
	}
}

func (a *app) cmdTxList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tx list", flag.ContinueOnError)
	from := fs.String("from", "", "start date (2006-01-02)")
	to := fs.String("to", "", "end date (2006-01-02)")
	accountID := fs.Int64("account", 0, "account id")
	categoryID := fs.Int64("category", 0, "category id")
	limit := fs.Int("limit", 50, "maximum rows")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := api.TransactionFilter{
		AccountID:  *accountID,
		CategoryID: *categoryID,
		Limit:      *limit,
	}
	var err error
	if filter.From, err = parseDate(*from); err != nil {
		return err
	}
	if filter.To, err = parseDate(*to); err != nil {
		return err
	}

	a.d.Working("Fetching transactions")
	txs, err := a.api.Transactions(ctx, filter)
	if err != nil {
		return err
	}
	a.d.OK("Fetched transactions")

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tAMOUNT\tCURRENCY\tNOTE")
	for _, tx := range txs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			tx.ID,
			tx.OccurredAt.Format("2006-01-02"),
			tx.Amount.StringFixed(2),
			tx.Currency,
			tx.Note,
		)
	}
	return w.Flush()
}

func (a *app) cmdTxAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tx add", flag.ContinueOnError)
	amount := fs.String("amount", "", "amount, negative for expenses (required)")
	accountID := fs.Int64("account", 0, "account id (required)")
	categoryID := fs.Int64("category", 0, "category id (required)")
	currency := fs.String("currency", "", "currency code (defaults to account currency)")
	note := fs.String("note", "", "free-text note")
	date := fs.String("date", "", "date (2006-01-02, default today)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	draft, err := buildTransactionDraft(*amount, *accountID, *categoryID, *currency, *note, *date)
	if err != nil {
		return err
	}

	a.d.Working("Recording transaction")
	tx, err := a.api.CreateTransaction(ctx, *draft)
	if err != nil {
		return err
	}
	a.d.OK("Recorded transaction")

	fmt.Fprintf(a.out, "Recorded transaction %d: %s %s\n",
		tx.ID, tx.Amount.StringFixed(2), tx.Currency)
	return nil
}

func (a *app) cmdTxEdit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("tx edit requires a transaction id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid transaction id %q", args[0])
	}

	fs := flag.NewFlagSet("tx edit", flag.ContinueOnError)
	amount := fs.String("amount", "", "amount (required)")
	accountID := fs.Int64("account", 0, "account id (required)")
	categoryID := fs.Int64("category", 0, "category id (required)")
	currency := fs.String("currency", "", "currency code")
	note := fs.String("note", "", "free-text note")
	date := fs.String("date", "", "date (2006-01-02)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	draft, err := buildTransactionDraft(*amount, *accountID, *categoryID, *currency, *note, *date)
	if err != nil {
		return err
	}

	a.d.Working("Updating transaction")
	tx, err := a.api.UpdateTransaction(ctx, id, *draft)
	if err != nil {
		return err
	}
	a.d.OK("Updated transaction")

	fmt.Fprintf(a.out, "Updated transaction %d: %s %s\n",
		tx.ID, tx.Amount.StringFixed(2), tx.Currency)
	return nil
}

func (a *app) cmdTxRm(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("tx rm requires a transaction id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid transaction id %q", args[0])
	}

	a.d.Working("Deleting transaction")
	if err := a.api.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	a.d.OK("Deleted transaction")

	fmt.Fprintf(a.out, "Deleted transaction %d\n", id)
	return nil
}

// buildTransactionDraft validates and assembles the shared tx add/edit input.
func buildTransactionDraft(
	amount string,
	accountID, categoryID int64,
	currency, note, date string,
) (*api.TransactionDraft, error) {
	if amount == "" {
		return nil, errors.New("-amount is required")
	}
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if accountID == 0 {
		return nil, errors.New("-account is required")
	}
	if categoryID == 0 {
		return nil, errors.New("-category is required")
	}

	occurredAt := time.Now()
	if date != "" {
		if occurredAt, err = parseDate(date); err != nil {
			return nil, err
		}
	}

	return &api.TransactionDraft{
		AccountID:  accountID,
		CategoryID: categoryID,
		Amount:     value,
		Currency:   currency,
		Note:       note,
		OccurredAt: occurredAt,
	}, nil
}

func (a *app) dispatchDebts(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.cmdDebtsList(ctx)
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return a.cmdDebtsList(ctx)
	case "add":
		return a.cmdDebtsAdd(ctx, rest)
	case "settle":
		return a.cmdDebtsSettle(ctx, rest)
	default:
		return fmt.Errorf("unknown debts subcommand %q", sub)
	}
}

func (a *app) cmdDebtsList(ctx context.Context) error {
	a.d.Working("Fetching debts")
	debts, err := a.api.Debts(ctx)
	if err != nil {
		return err
	}
	a.d.OK("Fetched debts")

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHO\tAMOUNT\tCURRENCY\tDIRECTION\tSETTLED")
	for _, debt := range debts {
		settled := ""
		if debt.Settled {
			settled = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			debt.ID, debt.Counterparty, debt.Amount.StringFixed(2),
			debt.Currency, debt.Direction, settled)
	}
	return w.Flush()
}

func (a *app) cmdDebtsAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("debts add", flag.ContinueOnError)
	counterparty := fs.String("who", "", "counterparty name (required)")
	amount := fs.String("amount", "", "amount (required)")
	currency := fs.String("currency", "", "currency code")
	direction := fs.String("direction", api.DebtOwedToMe,
		"owed_to_me or i_owe")
	note := fs.String("note", "", "free-text note")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *counterparty == "" {
		return errors.New("-who is required")
	}
	if *amount == "" {
		return errors.New("-amount is required")
	}
	value, err := decimal.NewFromString(*amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", *amount, err)
	}
	if *direction != api.DebtOwedToMe && *direction != api.DebtIOwe {
		return fmt.Errorf("invalid -direction %q", *direction)
	}

	a.d.Working("Recording debt")
	debt, err := a.api.CreateDebt(ctx, api.DebtDraft{
		Counterparty: *counterparty,
		Amount:       value,
		Currency:     *currency,
		Direction:    *direction,
		Note:         *note,
	})
	if err != nil {
		return err
	}
	a.d.OK("Recorded debt")

	fmt.Fprintf(a.out, "Recorded debt %d: %s %s %s\n",
		debt.ID, debt.Counterparty, debt.Amount.StringFixed(2), debt.Currency)
	return nil
}

func (a *app) cmdDebtsSettle(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("debts settle requires a debt id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid debt id %q", args[0])
	}

	a.d.Working("Settling debt")
	debt, err := a.api.SettleDebt(ctx, id)
	if err != nil {
		return err
	}
	a.d.OK("Settled debt")

	fmt.Fprintf(a.out, "Settled debt %d with %s\n", debt.ID, debt.Counterparty)
	return nil
}

func (a *app) cmdStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	from := fs.String("from", "", "start date (default: first of this month)")
	to := fs.String("to", "", "end date (default: now)")
	groupBy := fs.String("group", "category", "day, week, month or category")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := api.StatsFilter{GroupBy: *groupBy}
	var err error
	if filter.From, err = parseDate(*from); err != nil {
		return err
	}
	if filter.To, err = parseDate(*to); err != nil {
		return err
	}
	if filter.From.IsZero() {
		now := time.Now()
		filter.From = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}

	a.d.Working("Fetching stats")
	summary, err := a.api.Stats(ctx, filter)
	if err != nil {
		return err
	}
	a.d.OK("Fetched stats")

	fmt.Fprintf(a.out, "Income:  %s %s\n", summary.Income.StringFixed(2), summary.Currency)
	fmt.Fprintf(a.out, "Expense: %s %s\n", summary.Expense.StringFixed(2), summary.Currency)
	net := summary.Income.Sub(summary.Expense)
	fmt.Fprintf(a.out, "Net:     %s %s\n", net.StringFixed(2), summary.Currency)

	if len(summary.ByCategory) > 0 {
		fmt.Fprintln(a.out)
		w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tTOTAL")
		for _, row := range summary.ByCategory {
			fmt.Fprintf(w, "%s\t%s\n", row.Name, row.Total.StringFixed(2))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) cmdParse(ctx context.Context, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return errors.New("parse requires a text description, e.g.: tgfin parse coffee 4.50")
	}

	a.d.Working("Parsing text")
	parsed, err := a.api.ParseText(ctx, text)
	if err != nil {
		return err
	}
	a.d.OK("Parsed text")

	fmt.Fprintf(a.out, "Amount:     %s %s\n", parsed.Amount.StringFixed(2), parsed.Currency)
	if parsed.CategoryName != "" {
		fmt.Fprintf(a.out, "Category:   %s (%d)\n", parsed.CategoryName, parsed.CategoryID)
	}
	if parsed.Note != "" {
		fmt.Fprintf(a.out, "Note:       %s\n", parsed.Note)
	}
	fmt.Fprintf(a.out, "Date:       %s\n", parsed.OccurredAt.Format("2006-01-02"))
	fmt.Fprintf(a.out, "Confidence: %.0f%%\n", parsed.Confidence*100)
	return nil
}

func (a *app) cmdDeleteAccount(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete-account", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "confirm deletion")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return errors.New("refusing to delete the account without -yes")
	}

	a.d.Working("Deleting account")
	if err := a.api.DeleteMe(ctx); err != nil {
		return err
	}
	a.d.OK("Deleted account")

	// The backend account is gone; the local credential is useless now.
	if err := a.sessions.Clear(); err != nil {
		return err
	}
	a.d.TokenCleared()

	fmt.Fprintln(a.out, "Account deleted")
	return nil
}

// parseDate accepts "2006-01-02" or RFC3339. Empty input returns the zero
// time, which the filters treat as "unset".
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want 2006-01-02 or RFC3339)", raw)
	}
	return t, nil
}
