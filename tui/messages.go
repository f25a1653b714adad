package tui

// MsgBanner signals that the banner/title should be displayed.
type MsgBanner struct{}

// MsgTokenLoaded signals that a stored credential was found on disk.
type MsgTokenLoaded struct{}

// MsgTokenAdopted signals that a deep-link token was adopted.
type MsgTokenAdopted struct{}

// MsgNoStoredToken signals that no credential was found (starting fresh).
type MsgNoStoredToken struct{}

// MsgSigningIn signals that an identity-proof exchange is in progress.
type MsgSigningIn struct{}

// MsgSignedIn signals that the exchange succeeded.
type MsgSignedIn struct{}

// MsgSigninFailed signals that the exchange failed on every available path.
type MsgSigninFailed struct{ Err error }

// MsgTokenCleared signals that the local credential was cleared.
type MsgTokenCleared struct{}

// MsgSessionExpired signals that a call was rejected with an auth-failure
// status and the credential was invalidated.
type MsgSessionExpired struct {
	Status int
	Path   string
}

// MsgRetrying signals that the rejected call is being re-issued once with a
// fresh credential.
type MsgRetrying struct{ Path string }

// MsgWorking signals that a backend call is in flight.
type MsgWorking struct{ Label string }

// MsgOK signals that a backend call completed.
type MsgOK struct{ Label string }

// MsgDone signals successful completion of the command.
type MsgDone struct{}

// MsgFatal signals a fatal error that terminates the command.
type MsgFatal struct{ Err error }
