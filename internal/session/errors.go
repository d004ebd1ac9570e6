package session

import "errors"

var (
	// ErrIllegalTransition is returned when an operation is not allowed in the current state
	ErrIllegalTransition = errors.New("session: illegal transition")

	// ErrSlotsLoading is returned by SelectSlot while the slot fetch is still running
	ErrSlotsLoading = errors.New("session: slots are still loading")

	// ErrSlotUnavailable is returned when the chosen slot is not an available slot of the loaded list
	ErrSlotUnavailable = errors.New("session: slot is not available")

	// ErrSubmitInFlight is returned when Submit is called while a booking call is running
	ErrSubmitInFlight = errors.New("session: submission already in flight")

	// ErrSlotTaken signals that the slot was booked by someone else.
	// BookingSubmitter implementations must return an error matching it with errors.Is.
	ErrSlotTaken = errors.New("session: slot already taken")
)
