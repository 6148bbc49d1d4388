package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrVenueNotFound     = errors.New("venue not found")
	ErrAlertNotFound     = errors.New("alert not found")
	ErrTicketVoid        = errors.New("ticket is cancelled or refunded")
	ErrTicketNotSold     = errors.New("ticket is not sold")
	ErrAlreadyCheckedIn  = errors.New("ticket already checked in")
	ErrNotCheckedIn      = errors.New("ticket is not checked in")
	ErrEventEnded        = errors.New("check-in window has closed")
	ErrCheckInNotStarted = errors.New("check-in window has not opened yet")
	ErrForbidden         = errors.New("operation not permitted for role")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

// ErrorKind classifies failures so callers can branch without string matching
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindInvalidState ErrorKind = "invalid_state"
	KindConflict     ErrorKind = "conflict"
	KindOutOfWindow  ErrorKind = "out_of_window"
	KindForbidden    ErrorKind = "forbidden"
	KindTransient    ErrorKind = "transient"
)

// Reason codes returned to clients
const (
	CodeTicketNotFound    = "TICKET_NOT_FOUND"
	CodeSessionNotFound   = "SESSION_NOT_FOUND"
	CodeVenueNotFound     = "VENUE_NOT_FOUND"
	CodeAlertNotFound     = "ALERT_NOT_FOUND"
	CodeTicketVoid        = "TICKET_VOID"
	CodeTicketNotSold     = "TICKET_NOT_SOLD"
	CodeAlreadyCheckedIn  = "ALREADY_CHECKED_IN"
	CodeNotCheckedIn      = "NOT_CHECKED_IN"
	CodeEventEnded        = "EVENT_ENDED"
	CodeCheckInNotStarted = "CHECKIN_NOT_STARTED"
	CodeForbidden         = "FORBIDDEN"
	CodeStoreUnavailable  = "STORE_UNAVAILABLE"
)

// CheckInError is returned by every check-in and validation operation.
// The optional payload fields carry what the gate UI needs to explain the failure.
type CheckInError struct {
	Kind ErrorKind
	Code string

	// Ticket is set when the ticket was found
	Ticket *Ticket
	// Admission is the existing admission on a conflict
	Admission *Admission
	// Window is set on out-of-window failures
	Window *AdmissionWindow

	sentinel error
	cause    error
}

func (e *CheckInError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.sentinel, e.cause)
	}
	return e.sentinel.Error()
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is
func (e *CheckInError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.sentinel, e.cause}
	}
	return []error{e.sentinel}
}

// AsCheckInError extracts a *CheckInError from err
func AsCheckInError(err error) (*CheckInError, bool) {
	var ce *CheckInError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" when err is not a *CheckInError
func KindOf(err error) ErrorKind {
	if ce, ok := AsCheckInError(err); ok {
		return ce.Kind
	}
	return ""
}

func TicketNotFound() *CheckInError {
	return &CheckInError{Kind: KindNotFound, Code: CodeTicketNotFound, sentinel: ErrTicketNotFound}
}

func SessionNotFound() *CheckInError {
	return &CheckInError{Kind: KindNotFound, Code: CodeSessionNotFound, sentinel: ErrSessionNotFound}
}

func VenueNotFound() *CheckInError {
	return &CheckInError{Kind: KindNotFound, Code: CodeVenueNotFound, sentinel: ErrVenueNotFound}
}

func AlertNotFound() *CheckInError {
	return &CheckInError{Kind: KindNotFound, Code: CodeAlertNotFound, sentinel: ErrAlertNotFound}
}

func TicketVoid(t *Ticket) *CheckInError {
	return &CheckInError{Kind: KindInvalidState, Code: CodeTicketVoid, Ticket: t, sentinel: ErrTicketVoid}
}

func TicketNotSold(t *Ticket) *CheckInError {
	return &CheckInError{Kind: KindInvalidState, Code: CodeTicketNotSold, Ticket: t, sentinel: ErrTicketNotSold}
}

// AlreadyCheckedIn carries the prior admission; a may be nil when the
// record vanished between the lost write and the re-read
func AlreadyCheckedIn(t *Ticket, a *Admission) *CheckInError {
	return &CheckInError{Kind: KindConflict, Code: CodeAlreadyCheckedIn, Ticket: t, Admission: a, sentinel: ErrAlreadyCheckedIn}
}

func NotCheckedIn(t *Ticket) *CheckInError {
	return &CheckInError{Kind: KindConflict, Code: CodeNotCheckedIn, Ticket: t, sentinel: ErrNotCheckedIn}
}

func EventEnded(t *Ticket, w AdmissionWindow) *CheckInError {
	return &CheckInError{Kind: KindOutOfWindow, Code: CodeEventEnded, Ticket: t, Window: &w, sentinel: ErrEventEnded}
}

func CheckInNotStarted(t *Ticket, w AdmissionWindow) *CheckInError {
	return &CheckInError{Kind: KindOutOfWindow, Code: CodeCheckInNotStarted, Ticket: t, Window: &w, sentinel: ErrCheckInNotStarted}
}

func Forbidden() *CheckInError {
	return &CheckInError{Kind: KindForbidden, Code: CodeForbidden, sentinel: ErrForbidden}
}

// StoreUnavailable wraps a store failure or timeout. Retrying the whole
// operation is safe.
func StoreUnavailable(cause error) *CheckInError {
	return &CheckInError{Kind: KindTransient, Code: CodeStoreUnavailable, sentinel: ErrStoreUnavailable, cause: cause}
}
