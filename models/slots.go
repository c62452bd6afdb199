package models

import "fmt"

// Slot is one candidate start time on the booking grid.
type Slot struct {
	Time      string `json:"time"` // "HH:MM"
	Start     int    `json:"start"`
	Available bool   `json:"available"`
}

// DayAvailability is the slot listing for one salon and date.
type DayAvailability struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
}

// MinutesToClock formats minutes from midnight as "HH:MM".
func MinutesToClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
