package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("invalid argument")
	ErrSelfCosign        = errors.New("cannot co-sign your own track")
	ErrAlreadyCosigned   = errors.New("already co-signed this track")
	ErrSelfTip           = errors.New("cannot tip your own track")
	ErrRecipientMismatch = errors.New("tip recipient does not own this track")
	ErrForbidden         = errors.New("identity does not own this profile")
)
