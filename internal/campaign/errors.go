package campaign

import "errors"

var (
	// ErrAuthenticationFailed means the browser was still on the login page
	// after the credentials were submitted.
	ErrAuthenticationFailed = errors.New("authentication failed: still on login page")

	// ErrEditorNotFound means no frame exposed an editable body.
	ErrEditorNotFound = errors.New("no editable region found in any frame")

	// ErrFieldNotFound means none of a field's discovery strategies matched.
	ErrFieldNotFound = errors.New("form field not found")

	ErrUnknownAuthMode = errors.New("unknown auth mode")
)
