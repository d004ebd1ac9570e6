// Package availability turns a weekly schedule, per-date overrides and a booking
// window into the slots that may be offered on a given date. It performs no I/O.
package availability

import (
	"sort"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Effective returns the availability that applies to appointments of type t.
// A custom availability replaces the owner's schedule and overrides wholesale.
func Effective(owner domain.Availability, t *domain.AppointmentType) domain.Availability {
	if t != nil && t.CustomAvailability != nil {
		return *t.CustomAvailability
	}
	return owner
}

// Resolve returns the schedule entry for the calendar date of date.
// An override for the date wins over the weekday entry, even when it disables the day.
func Resolve(date time.Time, a domain.Availability) domain.DaySchedule {
	if o, ok := a.OverrideFor(date); ok {
		return domain.DaySchedule{Enabled: o.Enabled, Ranges: o.Ranges}
	}
	return a.Weekly.Day(date.Weekday())
}

// DayRanges returns the usable ranges of the resolved day ordered by start.
// Malformed ranges and ranges overlapping an earlier accepted range are dropped.
func DayRanges(date time.Time, a domain.Availability) []domain.TimeRange {
	day := Resolve(date, a)
	if !day.Enabled || len(day.Ranges) == 0 {
		return nil
	}

	accepted := make([]domain.TimeRange, 0, len(day.Ranges))
	for _, r := range day.Ranges {
		if !r.IsValid() {
			continue
		}
		if overlapsAny(r, accepted) {
			continue
		}
		accepted = append(accepted, r)
	}

	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].Start.IsBefore(accepted[j].Start)
	})
	return accepted
}

// WithinWindow reports whether date lies in [today, today+window.Days], where today
// is the calendar day of now in date's location.
func WithinWindow(date time.Time, window domain.BookingWindow, now time.Time) bool {
	loc := date.Location()
	day := domain.DateOnly(date, loc)
	today := domain.DateOnly(now, loc)

	if day.Before(today) {
		return false
	}
	days := window.Days
	if days < 0 {
		days = 0
	}
	return !day.After(today.AddDate(0, 0, days))
}

// IsDateBookable reports whether date can be offered in a calendar: it is inside the
// booking window and its resolved schedule has at least one usable range.
func IsDateBookable(date time.Time, a domain.Availability, window domain.BookingWindow, now time.Time) bool {
	if !WithinWindow(date, window, now) {
		return false
	}
	return len(DayRanges(date, a)) > 0
}

// SlotsFor returns the ordered slots of date for appointments of type t.
// owner is the resource availability; t.CustomAvailability replaces it when set.
// A slot is unavailable when it starts at or before now or overlaps any busy interval.
// Dates outside the booking window yield no slots.
func SlotsFor(
	date time.Time,
	owner domain.Availability,
	t *domain.AppointmentType,
	window domain.BookingWindow,
	now time.Time,
	busy []domain.Interval,
) []domain.Slot {
	if t == nil || t.DurationMinutes <= 0 {
		return []domain.Slot{}
	}
	if !WithinWindow(date, window, now) {
		return []domain.Slot{}
	}

	a := Effective(owner, t)
	ranges := DayRanges(date, a)
	if len(ranges) == 0 {
		return []domain.Slot{}
	}

	loc := date.Location()
	duration := t.Duration()
	slots := make([]domain.Slot, 0)

	for _, r := range ranges {
		rangeStart := r.Start.On(date, loc)
		rangeEnd := r.End.On(date, loc)

		for start := rangeStart; !start.Add(duration).After(rangeEnd); start = start.Add(duration) {
			slot := domain.Slot{
				Start: start,
				End:   start.Add(duration),
			}
			slot.Available = start.After(now) && !overlapsBusy(slot.Interval(), busy)
			slots = append(slots, slot)
		}
	}

	return slots
}

// FindSlot returns the slot of slots that starts at start and ends at end
func FindSlot(slots []domain.Slot, start, end time.Time) (domain.Slot, bool) {
	for _, s := range slots {
		if s.Start.Equal(start) && s.End.Equal(end) {
			return s, true
		}
	}
	return domain.Slot{}, false
}

func overlapsAny(r domain.TimeRange, accepted []domain.TimeRange) bool {
	start, end := r.Start.Minutes(), r.End.Minutes()
	for _, a := range accepted {
		if start < a.End.Minutes() && a.Start.Minutes() < end {
			return true
		}
	}
	return false
}

func overlapsBusy(i domain.Interval, busy []domain.Interval) bool {
	for _, b := range busy {
		if i.Overlaps(b) {
			return true
		}
	}
	return false
}
