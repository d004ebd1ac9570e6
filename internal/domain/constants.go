package domain

// ReminderType is a symbolic reminder name such as "24h"
type ReminderType string

// ReminderOffset maps a reminder type to minutes before the appointment start
type ReminderOffset struct {
	Type    ReminderType
	Minutes int
}

// DefaultReminderOffsets used when configuration does not list any
var DefaultReminderOffsets = []ReminderOffset{
	{Type: "24h", Minutes: 1440},
	{Type: "1h", Minutes: 60},
	{Type: "15m", Minutes: 15},
}

// Business validation constants
const (
	MinDurationMinutes    = 5
	MaxDurationMinutes    = 480 // 8 hours
	MaxBookingWindowDays  = 365
	MaxNotesLength        = 500
	MaxContactNameLength  = 200
	MaxBookableDatesRange = 62 // days per bookable-dates request
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ActiveStatuses statuses that occupy a slot and are eligible for reminders
var ActiveStatuses = []AppointmentStatus{
	StatusScheduled,
	StatusConfirmed,
}

// InactiveStatuses statuses that free the slot
var InactiveStatuses = []AppointmentStatus{
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
}
