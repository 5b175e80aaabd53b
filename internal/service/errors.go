package service

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tableside/console/internal/api"
	"github.com/tableside/console/internal/enum"
	"github.com/tableside/console/internal/notify"
)

// Errors returned by the view controllers.
var (
	ErrSessionInvalid       = errors.New("session is no longer valid")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrOrderNotFound        = errors.New("order not found")
	ErrNotMounted           = errors.New("view is not mounted")
	ErrEmptyOrder           = errors.New("Please choose at least one item")
	ErrTableRequired        = errors.New("table is required")
	ErrItemNotFound         = errors.New("item not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrNameRequired         = errors.New("name is required")
	ErrNegativePrice        = errors.New("price must not be negative")
	ErrImageRequired        = errors.New("image is required")
)

// IsValidation reports whether err is an input error the caller can fix.
func IsValidation(err error) bool {
	for _, target := range []error{ErrEmptyOrder, ErrTableRequired, ErrNameRequired, ErrNegativePrice, ErrImageRequired, ErrCategoryNotFound} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// MutationError is a failed remote change. Message is what the operator was
// shown.
type MutationError struct {
	Message string
	Err     error
}

func (e *MutationError) Error() string { return e.Message }

func (e *MutationError) Unwrap() error { return e.Err }

// SessionCloser ends the operator session.
type SessionCloser interface {
	Clear() error
}

// feedback is shared by controllers that make authenticated calls.
type feedback struct {
	session SessionCloser
	notify  notify.Notifier
	log     logrus.FieldLogger
}

// invalidate clears the session after a failed fetch.
func (f feedback) invalidate(err error) error {
	f.log.WithError(err).Warn("fetch failed, clearing session")
	if cerr := f.session.Clear(); cerr != nil {
		f.log.WithError(cerr).Error("failed to clear session")
	}
	return fmt.Errorf("%w: %v", ErrSessionInvalid, err)
}

// failed reports a mutation failure to the operator. Auth failures also
// end the session.
func (f feedback) failed(err error, fallback string) error {
	msg := api.Message(err, fallback)
	f.notify.Toast(enum.LevelError, msg)
	if errors.Is(err, api.ErrUnauthorized) {
		return f.invalidate(err)
	}
	f.log.WithError(err).Warn(fallback)
	return &MutationError{Message: msg, Err: err}
}

func (f feedback) succeeded(msg string) {
	f.notify.Toast(enum.LevelSuccess, msg)
}
