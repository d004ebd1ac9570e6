package domain

import (
	"strings"
	"time"
)

// AppointmentStatus represents the lifecycle status of an appointment
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

// ParseAppointmentStatus converts a raw string into a known status
func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	switch st := AppointmentStatus(s); st {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return st, true
	default:
		return "", false
	}
}

// IsActive returns true if the appointment still occupies its slot and may receive reminders
func (s AppointmentStatus) IsActive() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// CanTransitionTo reports whether a status change from s to next is allowed.
// completed, cancelled and no_show are terminal.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	switch s {
	case StatusScheduled:
		return next == StatusConfirmed || next == StatusCancelled || next == StatusCompleted || next == StatusNoShow
	case StatusConfirmed:
		return next == StatusCancelled || next == StatusCompleted || next == StatusNoShow
	default:
		return false
	}
}

// Contact holds the booker's contact fields
type Contact struct {
	Name  string
	Email string
	Phone string
}

// HasEmail returns true if the contact has a plausible email address
func (c Contact) HasEmail() bool {
	e := strings.TrimSpace(c.Email)
	at := strings.IndexByte(e, '@')
	return at > 0 && at < len(e)-1
}

// HasPhone returns true if the contact has a non-empty phone number
func (c Contact) HasPhone() bool {
	return strings.TrimSpace(c.Phone) != ""
}

// ReminderMark records that a reminder of Type was sent at SentAt
type ReminderMark struct {
	Type   ReminderType
	SentAt time.Time
}

// Appointment represents a booked appointment.
// Reminders is append-only and holds at most one mark per reminder type.
type Appointment struct {
	ID                int64
	ResourceID        int64
	AppointmentTypeID int64
	StartTime         time.Time
	EndTime           time.Time
	Status            AppointmentStatus
	Contact           Contact
	Notes             *string
	ConfirmationCode  string
	Reminders         []ReminderMark

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasReminder returns true if a reminder of the given type is already recorded
func (a *Appointment) HasReminder(t ReminderType) bool {
	for _, r := range a.Reminders {
		if r.Type == t {
			return true
		}
	}
	return false
}

// IsActive returns true if the appointment is scheduled or confirmed
func (a *Appointment) IsActive() bool {
	return a.Status.IsActive()
}

// Interval returns the time span occupied by the appointment
func (a *Appointment) Interval() Interval {
	return Interval{Start: a.StartTime, End: a.EndTime}
}

// Interval is a half-open time span [Start, End)
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps returns true if the two half-open intervals share any instant
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Contains returns true if t is within [Start, End)
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}
