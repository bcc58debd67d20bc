package domain

import "errors"

var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidID    = errors.New("invalid id")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
)

// Messages returned to clients in the "error" field.
const (
	MsgRequiredFieldsMissing = "required field(s) missing"
	MsgMissingID             = "missing _id"
	MsgNoUpdateFields        = "no update field(s) sent"
	MsgCouldNotUpdate        = "could not update"
	MsgCouldNotDelete        = "could not delete"
)

// ValidationError represents input rejected before touching storage.
// ID is echoed back to the client when the request carried one.
type ValidationError struct {
	Field   string
	Message string
	ID      string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// UpdateError reports that an update was rejected by the store.
type UpdateError struct {
	ID  string
	Err error
}

func (e *UpdateError) Error() string {
	return MsgCouldNotUpdate + " " + e.ID + ": " + errString(e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }

// DeleteError reports that a delete was rejected by the store.
type DeleteError struct {
	ID  string
	Err error
}

func (e *DeleteError) Error() string {
	return MsgCouldNotDelete + " " + e.ID + ": " + errString(e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

func errString(err error) string {
	if err == nil {
		return "unknown"
	}
	return err.Error()
}
