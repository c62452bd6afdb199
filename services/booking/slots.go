package booking

import "salonbook/models"

// OperatingWindow bounds the bookable day on a fixed grid. Open and Close
// are minutes from midnight; Step is the grid spacing.
type OperatingWindow struct {
	OpenMinute  int
	CloseMinute int
	StepMinutes int
}

// Length returns the window size in minutes.
func (w OperatingWindow) Length() int {
	return w.CloseMinute - w.OpenMinute
}

// AvailableStartTimes computes the candidate start times for a booking of
// the given duration against the existing reservations of a day. The
// function is pure: same inputs, same output, no store access.
//
// A grid point is included iff [candidate, candidate+duration) fits inside
// the window and does not overlap any reservation still blocking its slot.
// Intervals are half-open, so a reservation ending at a candidate's start
// does not exclude it.
func AvailableStartTimes(window OperatingWindow, durationMin int, existing []models.Booking) []int {
	if durationMin <= 0 || durationMin > window.Length() || window.StepMinutes <= 0 {
		return nil
	}

	var starts []int
	for candidate := window.OpenMinute; candidate+durationMin <= window.CloseMinute; candidate += window.StepMinutes {
		end := candidate + durationMin
		free := true
		for i := range existing {
			if !existing[i].Status.BlocksSlot() {
				continue
			}
			if existing[i].Start < end && candidate < existing[i].End {
				free = false
				break
			}
		}
		if free {
			starts = append(starts, candidate)
		}
	}
	return starts
}

// BuildDayAvailability renders the full grid for a date, marking each
// point available or not, in the shape the API returns.
func BuildDayAvailability(window OperatingWindow, date string, durationMin int, existing []models.Booking) models.DayAvailability {
	open := map[int]bool{}
	for _, s := range AvailableStartTimes(window, durationMin, existing) {
		open[s] = true
	}

	day := models.DayAvailability{Date: date}
	if durationMin <= 0 || durationMin > window.Length() || window.StepMinutes <= 0 {
		return day
	}
	for candidate := window.OpenMinute; candidate+durationMin <= window.CloseMinute; candidate += window.StepMinutes {
		day.Slots = append(day.Slots, models.Slot{
			Time:      models.MinutesToClock(candidate),
			Start:     candidate,
			Available: open[candidate],
		})
	}
	return day
}
