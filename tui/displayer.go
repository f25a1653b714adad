package tui

import (
	"fmt"
	"io"

	tea "charm.land/bubbletea/v2"
)

// Displayer abstracts all status output from the client.
type Displayer interface {
	Banner()
	TokenLoaded()
	TokenAdopted()
	NoStoredToken()
	SigningIn()
	SignedIn()
	SigninFailed(err error)
	TokenCleared()
	SessionExpired(status int, path string)
	Retrying(path string)
	Working(label string)
	OK(label string)
	Done()
	Fatal(err error)
}

// PlainDisplayer writes plain text status lines to w.
// Used when stderr is not a TTY (pipes, CI, SSH without pty).
type PlainDisplayer struct {
	w io.Writer
}

// NewPlainDisplayer creates a PlainDisplayer that writes to w.
func NewPlainDisplayer(w io.Writer) *PlainDisplayer {
	return &PlainDisplayer{w: w}
}

func (p *PlainDisplayer) Banner() {
	fmt.Fprintln(p.w, "=== tgfin — personal finance client ===")
	fmt.Fprintln(p.w)
}

func (p *PlainDisplayer) TokenLoaded() {
	fmt.Fprintln(p.w, "Found stored credential")
}

func (p *PlainDisplayer) TokenAdopted() {
	fmt.Fprintln(p.w, "Using pre-issued token from deep link")
}

func (p *PlainDisplayer) NoStoredToken() {
	fmt.Fprintln(p.w, "No stored credential, will sign in on first call")
}

func (p *PlainDisplayer) SigningIn() {
	fmt.Fprintln(p.w, "Signing in with Telegram identity...")
}

func (p *PlainDisplayer) SignedIn() {
	fmt.Fprintln(p.w, "Signed in")
}

func (p *PlainDisplayer) SigninFailed(err error) {
	fmt.Fprintf(p.w, "Could not sign in: %v\n", err)
}

func (p *PlainDisplayer) TokenCleared() {
	fmt.Fprintln(p.w, "Local credential cleared")
}

func (p *PlainDisplayer) SessionExpired(status int, path string) {
	fmt.Fprintf(p.w, "Credential rejected (%d on %s), re-authenticating...\n", status, path)
}

func (p *PlainDisplayer) Retrying(path string) {
	fmt.Fprintf(p.w, "Retrying %s with fresh credential...\n", path)
}

func (p *PlainDisplayer) Working(label string) {
	fmt.Fprintf(p.w, "%s...\n", label)
}

func (p *PlainDisplayer) OK(label string) {
	fmt.Fprintf(p.w, "%s: done\n", label)
}

func (p *PlainDisplayer) Done() {}

func (p *PlainDisplayer) Fatal(err error) {
	fmt.Fprintf(p.w, "Error: %v\n", err)
}

// NoopDisplayer is a no-op implementation used in tests.
type NoopDisplayer struct{}

func (NoopDisplayer) Banner()                       {}
func (NoopDisplayer) TokenLoaded()                  {}
func (NoopDisplayer) TokenAdopted()                 {}
func (NoopDisplayer) NoStoredToken()                {}
func (NoopDisplayer) SigningIn()                    {}
func (NoopDisplayer) SignedIn()                     {}
func (NoopDisplayer) SigninFailed(_ error)          {}
func (NoopDisplayer) TokenCleared()                 {}
func (NoopDisplayer) SessionExpired(_ int, _ string) {}
func (NoopDisplayer) Retrying(_ string)             {}
func (NoopDisplayer) Working(_ string)              {}
func (NoopDisplayer) OK(_ string)                   {}
func (NoopDisplayer) Done()                         {}
func (NoopDisplayer) Fatal(_ error)                 {}

// ProgramDisplayer sends BubbleTea messages to a running tea.Program.
type ProgramDisplayer struct {
	p *tea.Program
}

// NewProgramDisplayer creates a ProgramDisplayer that sends messages to p.
func NewProgramDisplayer(p *tea.Program) *ProgramDisplayer {
	return &ProgramDisplayer{p: p}
}

func (t *ProgramDisplayer) Banner() {
	t.p.Send(MsgBanner{})
}

func (t *ProgramDisplayer) TokenLoaded() {
	t.p.Send(MsgTokenLoaded{})
}

func (t *ProgramDisplayer) TokenAdopted() {
	t.p.Send(MsgTokenAdopted{})
}

func (t *ProgramDisplayer) NoStoredToken() {
	t.p.Send(MsgNoStoredToken{})
}

func (t *ProgramDisplayer) SigningIn() {
	t.p.Send(MsgSigningIn{})
}

func (t *ProgramDisplayer) SignedIn() {
	t.p.Send(MsgSignedIn{})
}

func (t *ProgramDisplayer) SigninFailed(err error) {
	t.p.Send(MsgSigninFailed{Err: err})
}

func (t *ProgramDisplayer) TokenCleared() {
	t.p.Send(MsgTokenCleared{})
}

func (t *ProgramDisplayer) SessionExpired(status int, path string) {
	t.p.Send(MsgSessionExpired{Status: status, Path: path})
}

func (t *ProgramDisplayer) Retrying(path string) {
	t.p.Send(MsgRetrying{Path: path})
}

func (t *ProgramDisplayer) Working(label string) {
	t.p.Send(MsgWorking{Label: label})
}

func (t *ProgramDisplayer) OK(label string) {
	t.p.Send(MsgOK{Label: label})
}

func (t *ProgramDisplayer) Done() {
	t.p.Send(MsgDone{})
}

func (t *ProgramDisplayer) Fatal(err error) {
	t.p.Send(MsgFatal{Err: err})
}
