package domain

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// TimeRange is a half-open time-of-day range [Start, End)
type TimeRange struct {
	Start types.TimeString `json:"start"`
	End   types.TimeString `json:"end"`
}

// IsValid returns true if both bounds parse and Start is strictly before End
func (r TimeRange) IsValid() bool {
	if r.Start.Validate() != nil || r.End.Validate() != nil {
		return false
	}
	return r.Start.IsBefore(r.End)
}

// DaySchedule represents the working ranges of a single day
type DaySchedule struct {
	Enabled bool        `json:"enabled"`
	Ranges  []TimeRange `json:"ranges"`
}

// WeeklySchedule represents recurring working hours by weekday
type WeeklySchedule struct {
	Monday    DaySchedule `json:"monday"`
	Tuesday   DaySchedule `json:"tuesday"`
	Wednesday DaySchedule `json:"wednesday"`
	Thursday  DaySchedule `json:"thursday"`
	Friday    DaySchedule `json:"friday"`
	Saturday  DaySchedule `json:"saturday"`
	Sunday    DaySchedule `json:"sunday"`
}

// Day returns the schedule entry for the given weekday
func (w WeeklySchedule) Day(d time.Weekday) DaySchedule {
	switch d {
	case time.Monday:
		return w.Monday
	case time.Tuesday:
		return w.Tuesday
	case time.Wednesday:
		return w.Wednesday
	case time.Thursday:
		return w.Thursday
	case time.Friday:
		return w.Friday
	case time.Saturday:
		return w.Saturday
	case time.Sunday:
		return w.Sunday
	default:
		return DaySchedule{}
	}
}

// SetDay replaces the schedule entry for the given weekday
func (w *WeeklySchedule) SetDay(d time.Weekday, s DaySchedule) {
	switch d {
	case time.Monday:
		w.Monday = s
	case time.Tuesday:
		w.Tuesday = s
	case time.Wednesday:
		w.Wednesday = s
	case time.Thursday:
		w.Thursday = s
	case time.Friday:
		w.Friday = s
	case time.Saturday:
		w.Saturday = s
	case time.Sunday:
		w.Sunday = s
	}
}

// DateOverride replaces the weekly entry for one calendar date, including disabling it
type DateOverride struct {
	Date    time.Time
	Enabled bool
	Ranges  []TimeRange
}

// Availability is a weekly schedule together with its per-date overrides
type Availability struct {
	Weekly    WeeklySchedule
	Overrides []DateOverride
}

// OverrideFor returns the override for the calendar date of d, if any
func (a Availability) OverrideFor(d time.Time) (DateOverride, bool) {
	for _, o := range a.Overrides {
		if SameDate(o.Date, d) {
			return o, true
		}
	}
	return DateOverride{}, false
}

// BookingWindow is the number of days ahead of today that may be booked. 0 means today only.
type BookingWindow struct {
	Days int
}

// Resource is the schedule owner
type Resource struct {
	ID                int64
	Name              string
	Timezone          string
	Availability      Availability
	BookingWindowDays int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Location resolves the resource timezone, UTC when unset
func (r *Resource) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(r.Timezone)
}

// Window returns the resource booking window
func (r *Resource) Window() BookingWindow {
	return BookingWindow{Days: r.BookingWindowDays}
}

// LocationType is where an appointment takes place
type LocationType string

const (
	LocationInPerson LocationType = "in_person"
	LocationPhone    LocationType = "phone"
	LocationVideo    LocationType = "video"
)

// AppointmentType describes a bookable kind of appointment.
// CustomAvailability, when set, replaces the owner's schedule and overrides for this type only.
type AppointmentType struct {
	ID                 int64
	ResourceID         int64
	Name               string
	DurationMinutes    int
	LocationType       LocationType
	CustomAvailability *Availability
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Duration returns the appointment length
func (t *AppointmentType) Duration() time.Duration {
	return time.Duration(t.DurationMinutes) * time.Minute
}

// SameDate returns true if a and b fall on the same calendar date in their own locations
func SameDate(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// DateOnly truncates t to midnight in loc
func DateOnly(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
