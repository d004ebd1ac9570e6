package session

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// SlotFetcher loads the slots of one date for the session's resource and appointment type
type SlotFetcher interface {
	FetchSlots(ctx context.Context, date time.Time) ([]domain.Slot, error)
}

// BookingSubmitter creates the appointment. A taken slot must be reported as ErrSlotTaken.
type BookingSubmitter interface {
	Submit(ctx context.Context, req BookingRequest) (*Confirmation, error)
}

// BookingRequest is what the form stage sends
type BookingRequest struct {
	Start   time.Time
	End     time.Time
	Contact domain.Contact
	Notes   *string
}

// Confirmation is the result carried by the confirmation state
type Confirmation struct {
	AppointmentID    int64
	ConfirmationCode string
	Start            time.Time
	End              time.Time
}
