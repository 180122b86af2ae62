package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error. Callers branch on Kind, never on Message.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotAuthenticated
	KindNotFound
	KindUnauthorized
	KindConflict
	KindInvalidTransition
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotAuthenticated:
		return "not_authenticated"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindTransient:
		return "transient"
	default:
		return "internal"
	}
}

// Error is the error every service operation returns.
type Error struct {
	Kind    Kind   `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind and Code so the package-level sentinels work with
// errors.Is even after WithDetails/Wrap made a copy.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// HTTPStatus maps the error kind to a response status.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotAuthenticated:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusForbidden
	case KindConflict, KindInvalidTransition:
		return http.StatusConflict
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WithDetails returns a copy carrying details. Sentinels are never mutated.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// Wrap returns a copy of e chained to err.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrNotAuthenticated = New(KindNotAuthenticated, "NOT_AUTHENTICATED", "authentication required")
	ErrValidation       = New(KindValidation, "VALIDATION_FAILED", "validation failed")

	ErrJobNotFound          = New(KindNotFound, "JOB_NOT_FOUND", "job not found")
	ErrApplicationNotFound  = New(KindNotFound, "APPLICATION_NOT_FOUND", "application not found")
	ErrConversationNotFound = New(KindNotFound, "CONVERSATION_NOT_FOUND", "conversation not found")
	ErrCompletionNotFound   = New(KindNotFound, "COMPLETION_NOT_FOUND", "job completion not found")
	ErrUserNotFound         = New(KindNotFound, "USER_NOT_FOUND", "user not found")

	ErrNotJobOwner           = New(KindUnauthorized, "NOT_JOB_OWNER", "only the job's employer can do this")
	ErrNotApplicant          = New(KindUnauthorized, "NOT_APPLICANT", "only the applicant can do this")
	ErrNotParticipant        = New(KindUnauthorized, "NOT_PARTICIPANT", "user is not a participant in this conversation")
	ErrWrongRole             = New(KindUnauthorized, "WRONG_ROLE", "this action is not available for your account type")
	ErrCannotApplyToOwnJob   = New(KindUnauthorized, "OWN_JOB", "cannot apply to your own job")
	ErrApplicationNotVisible = New(KindUnauthorized, "APPLICATION_ACCESS_DENIED", "access to application denied")

	ErrAlreadyApplied     = New(KindConflict, "ALREADY_APPLIED", "you have already applied to this job")
	ErrJobNotOpen         = New(KindConflict, "JOB_NOT_OPEN", "job is not accepting applications")
	ErrCompletionExists   = New(KindConflict, "COMPLETION_EXISTS", "completion already filed for this application")
	ErrEmailAlreadyExists = New(KindConflict, "EMAIL_ALREADY_EXISTS", "email already registered")

	ErrInvalidTransition = New(KindInvalidTransition, "INVALID_TRANSITION", "status transition not allowed")
	ErrAlreadyReviewed   = New(KindInvalidTransition, "ALREADY_REVIEWED", "completion already reviewed")

	ErrStoreUnavailable = New(KindTransient, "STORE_UNAVAILABLE", "storage temporarily unavailable")
)

// Validation builds a validation error with per-field details.
func Validation(details map[string]string) *Error {
	return ErrValidation.WithDetails(details)
}

// Transient wraps a store/network failure.
func Transient(err error) *Error {
	return ErrStoreUnavailable.Wrap(err)
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
