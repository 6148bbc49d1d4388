package domain

import (
	"errors"
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestTicket_AdmissionState(t *testing.T) {
	at := time.Date(2026, 10, 15, 19, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		ticket Ticket
		want   AdmissionState
	}{
		{"sold not admitted", Ticket{Status: TicketStatusSold}, StateSoldNotAdmitted},
		{"sold admitted", Ticket{Status: TicketStatusSold, CheckedInAt: &at, CheckedInBy: ptr("op-1")}, StateSoldAdmitted},
		{"cancelled", Ticket{Status: TicketStatusCancelled}, StateVoid},
		{"refunded even if admitted", Ticket{Status: TicketStatusRefunded, CheckedInAt: &at, CheckedInBy: ptr("op-1")}, StateVoid},
		{"reserved", Ticket{Status: TicketStatusReserved}, StateNotSold},
		{"pending", Ticket{Status: TicketStatusPending}, StateNotSold},
		{"half set record is not an admission", Ticket{Status: TicketStatusSold, CheckedInAt: &at}, StateSoldNotAdmitted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ticket.AdmissionState(); got != tt.want {
				t.Errorf("AdmissionState() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTicket_Admission(t *testing.T) {
	at := time.Date(2026, 10, 15, 19, 0, 0, 0, time.UTC)
	ticket := Ticket{CheckedInAt: &at, CheckedInBy: ptr("op-1")}

	a := ticket.Admission()
	if a == nil {
		t.Fatal("expected admission")
	}
	if !a.At.Equal(at) || a.OperatorID != "op-1" {
		t.Errorf("unexpected admission %+v", a)
	}

	if (&Ticket{CheckedInBy: ptr("op-1")}).Admission() != nil {
		t.Error("expected nil admission when timestamp missing")
	}
}

func TestWindowPolicy_Boundaries(t *testing.T) {
	start := time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC)
	w := DefaultWindowPolicy().WindowFor(start)

	if !w.OpensAt.Equal(start.Add(-3 * time.Hour)) {
		t.Errorf("OpensAt = %v", w.OpensAt)
	}
	if !w.ClosesAt.Equal(start.Add(4 * time.Hour)) {
		t.Errorf("ClosesAt = %v", w.ClosesAt)
	}

	tests := []struct {
		name       string
		now        time.Time
		contains   bool
		notStarted bool
		ended      bool
	}{
		{"exactly at open", w.OpensAt, true, false, false},
		{"one second before open", w.OpensAt.Add(-time.Second), false, true, false},
		{"exactly at close", w.ClosesAt, true, false, false},
		{"one second after close", w.ClosesAt.Add(time.Second), false, false, true},
		{"at start", start, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.now); got != tt.contains {
				t.Errorf("Contains = %v, want %v", got, tt.contains)
			}
			if got := w.NotStarted(tt.now); got != tt.notStarted {
				t.Errorf("NotStarted = %v, want %v", got, tt.notStarted)
			}
			if got := w.Ended(tt.now); got != tt.ended {
				t.Errorf("Ended = %v, want %v", got, tt.ended)
			}
		})
	}
}

func TestWindowPolicy_Custom(t *testing.T) {
	start := time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC)
	w := WindowPolicy{Before: 30 * time.Minute, After: time.Hour}.WindowFor(start)

	if !w.OpensAt.Equal(start.Add(-30 * time.Minute)) {
		t.Errorf("OpensAt = %v", w.OpensAt)
	}
	if !w.ClosesAt.Equal(start.Add(time.Hour)) {
		t.Errorf("ClosesAt = %v", w.ClosesAt)
	}
}

func TestRole(t *testing.T) {
	if !RoleAdmin.CanRevertCheckIn() {
		t.Error("admin must be able to revert")
	}
	if RoleOperator.CanRevertCheckIn() {
		t.Error("operator must not be able to revert")
	}

	tests := map[string]Role{
		"admin":    RoleAdmin,
		" ADMIN ":  RoleAdmin,
		"operator": RoleOperator,
		"":         RoleOperator,
		"root":     RoleOperator,
	}
	for in, want := range tests {
		if got := ParseRole(in); got != want {
			t.Errorf("ParseRole(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestAlertCategory_IsValid(t *testing.T) {
	for _, c := range []AlertCategory{AlertCategoryCapacity, AlertCategorySales, AlertCategoryStock, AlertCategorySchedule} {
		if !c.IsValid() {
			t.Errorf("%s should be valid", c)
		}
	}
	if AlertCategory("weather").IsValid() {
		t.Error("unknown category should be invalid")
	}
}

func TestCheckInError(t *testing.T) {
	ticket := &Ticket{Code: "ABC"}
	w := DefaultWindowPolicy().WindowFor(time.Now())

	tests := []struct {
		name     string
		err      *CheckInError
		sentinel error
		kind     ErrorKind
		code     string
	}{
		{"ticket not found", TicketNotFound(), ErrTicketNotFound, KindNotFound, CodeTicketNotFound},
		{"session not found", SessionNotFound(), ErrSessionNotFound, KindNotFound, CodeSessionNotFound},
		{"venue not found", VenueNotFound(), ErrVenueNotFound, KindNotFound, CodeVenueNotFound},
		{"alert not found", AlertNotFound(), ErrAlertNotFound, KindNotFound, CodeAlertNotFound},
		{"void", TicketVoid(ticket), ErrTicketVoid, KindInvalidState, CodeTicketVoid},
		{"not sold", TicketNotSold(ticket), ErrTicketNotSold, KindInvalidState, CodeTicketNotSold},
		{"already", AlreadyCheckedIn(ticket, nil), ErrAlreadyCheckedIn, KindConflict, CodeAlreadyCheckedIn},
		{"not checked in", NotCheckedIn(ticket), ErrNotCheckedIn, KindConflict, CodeNotCheckedIn},
		{"ended", EventEnded(ticket, w), ErrEventEnded, KindOutOfWindow, CodeEventEnded},
		{"not started", CheckInNotStarted(ticket, w), ErrCheckInNotStarted, KindOutOfWindow, CodeCheckInNotStarted},
		{"forbidden", Forbidden(), ErrForbidden, KindForbidden, CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error = tt.err
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false", err)
			}
			if KindOf(err) != tt.kind {
				t.Errorf("KindOf = %s, want %s", KindOf(err), tt.kind)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
		})
	}
}

func TestStoreUnavailable_WrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := error(StoreUnavailable(cause))

	if !errors.Is(err, ErrStoreUnavailable) {
		t.Error("expected ErrStoreUnavailable")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
	if KindOf(err) != KindTransient {
		t.Errorf("KindOf = %s", KindOf(err))
	}
	if err.Error() != "store unavailable: dial tcp: connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}

	if KindOf(errors.New("plain")) != "" {
		t.Error("plain errors have no kind")
	}
}

func TestCheckInError_Payload(t *testing.T) {
	ticket := &Ticket{Code: "ABC"}
	w := DefaultWindowPolicy().WindowFor(time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC))

	err := CheckInNotStarted(ticket, w)
	if err.Window == nil || !err.Window.OpensAt.Equal(w.OpensAt) {
		t.Error("expected window opens_at in payload")
	}
	if err.Ticket != ticket {
		t.Error("expected ticket in payload")
	}
}
