package deploy

import "errors"

// Failure kinds of the deployment pipeline. Every error returned by the
// resolver or the deployer wraps exactly one of these, so callers can
// classify failures with errors.Is while the user still gets a single
// formatted message.
var (
	// ErrConfig marks a missing or invalid configuration field.
	ErrConfig = errors.New("config error")
	// ErrFile marks a referenced file that could not be read.
	ErrFile = errors.New("file error")
	// ErrParse marks invalid JSON in the ABI, parameters or keys.
	ErrParse = errors.New("parse error")
	// ErrClient marks an SDK failure: encoding, submission or confirmation.
	ErrClient = errors.New("client error")
)
