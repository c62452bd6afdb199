package booking

import (
	"testing"

	"salonbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWindow() OperatingWindow {
	return OperatingWindow{OpenMinute: 480, CloseMinute: 1200, StepMinutes: 30} // 08:00-20:00
}

func TestAvailableStartTimes_EmptyDay(t *testing.T) {
	starts := AvailableStartTimes(testWindow(), 30, nil)

	require.NotEmpty(t, starts)
	assert.Equal(t, 480, starts[0])
	assert.Equal(t, 1170, starts[len(starts)-1]) // 19:30, last 30-minute slot
	assert.Len(t, starts, 24)
}

func TestAvailableStartTimes_ExcludesOverlapping(t *testing.T) {
	// One confirmed booking 09:00-10:00.
	existing := []models.Booking{
		{Date: "2026-09-01", Start: 540, End: 600, Status: models.StatusConfirmed},
	}

	starts := AvailableStartTimes(testWindow(), 45, existing)

	// 08:45 would run 08:45-09:30, overlapping the 09:00 start.
	assert.NotContains(t, starts, 525)
	// 09:30 would run 09:30-10:15, overlapping the tail of the booking.
	assert.NotContains(t, starts, 570)
	// 08:00 ends 08:45, before the booking starts.
	assert.Contains(t, starts, 480)
	// Half-open intervals: starting exactly at the booking's end is fine.
	assert.Contains(t, starts, 600)
}

func TestAvailableStartTimes_CancelledDoesNotBlock(t *testing.T) {
	existing := []models.Booking{
		{Date: "2026-09-01", Start: 540, End: 600, Status: models.StatusCancelled},
		{Date: "2026-09-01", Start: 540, End: 600, Status: models.StatusNoShow},
	}

	starts := AvailableStartTimes(testWindow(), 30, existing)
	assert.Contains(t, starts, 540)
}

func TestAvailableStartTimes_DurationLongerThanWindow(t *testing.T) {
	starts := AvailableStartTimes(testWindow(), testWindow().Length()+1, nil)
	assert.Empty(t, starts)
}

func TestAvailableStartTimes_NonPositiveDuration(t *testing.T) {
	assert.Empty(t, AvailableStartTimes(testWindow(), 0, nil))
	assert.Empty(t, AvailableStartTimes(testWindow(), -15, nil))
}

func TestAvailableStartTimes_DoesNotMutateInput(t *testing.T) {
	existing := []models.Booking{
		{Date: "2026-09-01", Start: 540, End: 600, Status: models.StatusConfirmed},
	}
	before := existing[0]

	first := AvailableStartTimes(testWindow(), 30, existing)
	second := AvailableStartTimes(testWindow(), 30, existing)

	assert.Equal(t, before, existing[0])
	assert.Equal(t, first, second)
}

func TestBuildDayAvailability_MarksBlockedSlots(t *testing.T) {
	existing := []models.Booking{
		{Date: "2026-09-01", Start: 540, End: 600, Status: models.StatusConfirmed},
	}

	day := BuildDayAvailability(testWindow(), "2026-09-01", 30, existing)

	require.Equal(t, "2026-09-01", day.Date)
	require.Len(t, day.Slots, 24)

	byStart := map[int]models.Slot{}
	for _, s := range day.Slots {
		byStart[s.Start] = s
	}
	assert.False(t, byStart[540].Available)
	assert.False(t, byStart[570].Available)
	assert.True(t, byStart[510].Available)
	assert.True(t, byStart[600].Available)
	assert.Equal(t, "09:00", byStart[540].Time)
}
