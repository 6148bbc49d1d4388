package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/domain"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/middleware"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/response"
)

// respondError writes err using the reason code as error.code and the
// failure payload as error.details
func respondError(c *gin.Context, err error) {
	ce, ok := domain.AsCheckInError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, response.InternalError("Internal server error"))
		return
	}

	middleware.SetAuditReasonCode(c, ce.Code)
	if ce.Kind == domain.KindTransient {
		c.Header("Retry-After", "1")
	}

	c.JSON(response.GetHTTPStatus(ce.Code), response.ErrorWithDetails(ce.Code, errorMessage(ce), errorDetails(ce)))
}

// errorMessage is the sentinel text, never the underlying cause
func errorMessage(ce *domain.CheckInError) string {
	if wrapped := ce.Unwrap(); len(wrapped) > 0 {
		return wrapped[0].Error()
	}
	return ce.Code
}

func errorDetails(ce *domain.CheckInError) map[string]string {
	details := make(map[string]string)

	if t := ce.Ticket; t != nil {
		details["ticket_code"] = t.Code
		details["status"] = string(t.Status)
		details["event_id"] = t.EventID
		details["event_name"] = t.EventName
		details["session_id"] = t.SessionID
		if t.Holder.Name != "" {
			details["holder_name"] = t.Holder.Name
		}
		if t.SeatLabel != nil {
			details["seat_label"] = *t.SeatLabel
		}
	}
	if a := ce.Admission; a != nil {
		details["checked_in_at"] = a.At.UTC().Format(time.RFC3339)
		details["checked_in_by"] = a.OperatorID
	}
	if w := ce.Window; w != nil {
		details["opens_at"] = w.OpensAt.UTC().Format(time.RFC3339)
		details["closes_at"] = w.ClosesAt.UTC().Format(time.RFC3339)
	}

	if len(details) == 0 {
		return nil
	}
	return details
}
