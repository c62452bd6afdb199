// Package export renders bookings as RFC 5545 calendar files. The
// rendering is a pure transform of booking snapshots with no queue or
// store involvement.
package export

import (
	"fmt"
	"strings"
	"time"

	"salonbook/models"
)

const icsTimeLayout = "20060102T150405"

// RenderICS produces a VCALENDAR with one VEVENT per booking, each with
// reminder alarms 24 hours and 2 hours before the start.
func RenderICS(bookings []models.Booking, loc *time.Location) string {
	var b strings.Builder

	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, "PRODID:-//salonbook//booking export//EN")
	writeLine(&b, "CALSCALE:GREGORIAN")

	for i := range bookings {
		writeEvent(&b, &bookings[i], loc)
	}

	writeLine(&b, "END:VCALENDAR")
	return b.String()
}

func writeEvent(b *strings.Builder, booking *models.Booking, loc *time.Location) {
	day, err := time.ParseInLocation("2006-01-02", booking.Date, loc)
	if err != nil {
		return
	}
	start := day.Add(time.Duration(booking.Start) * time.Minute)
	end := day.Add(time.Duration(booking.End) * time.Minute)

	writeLine(b, "BEGIN:VEVENT")
	writeLine(b, "UID:"+booking.ID+"@salonbook")
	writeLine(b, "DTSTAMP:"+booking.CreatedAt.UTC().Format(icsTimeLayout)+"Z")
	writeLine(b, fmt.Sprintf("DTSTART;TZID=%s:%s", loc.String(), start.Format(icsTimeLayout)))
	writeLine(b, fmt.Sprintf("DTEND;TZID=%s:%s", loc.String(), end.Format(icsTimeLayout)))
	writeLine(b, "SUMMARY:"+escape(booking.ServiceSummary()))
	writeLine(b, "DESCRIPTION:"+escape(fmt.Sprintf("Services: %s. Total: %.2f", booking.ServiceSummary(), booking.TotalPrice)))
	writeLine(b, "STATUS:"+icsStatus(booking.Status))

	writeAlarm(b, "-P1D", booking)
	writeAlarm(b, "-PT2H", booking)

	writeLine(b, "END:VEVENT")
}

func writeAlarm(b *strings.Builder, trigger string, booking *models.Booking) {
	writeLine(b, "BEGIN:VALARM")
	writeLine(b, "ACTION:DISPLAY")
	writeLine(b, "TRIGGER:"+trigger)
	writeLine(b, "DESCRIPTION:"+escape("Upcoming appointment: "+booking.ServiceSummary()))
	writeLine(b, "END:VALARM")
}

func icsStatus(s models.BookingStatus) string {
	switch s {
	case models.StatusConfirmed, models.StatusInProgress, models.StatusCompleted:
		return "CONFIRMED"
	case models.StatusCancelled, models.StatusNoShow:
		return "CANCELLED"
	default:
		return "TENTATIVE"
	}
}

// escape applies RFC 5545 text escaping.
func escape(s string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\n", "\\n",
	)
	return r.Replace(s)
}

// writeLine emits a content line with CRLF, folding lines over 75 octets.
func writeLine(b *strings.Builder, line string) {
	const limit = 75
	for len(line) > limit {
		b.WriteString(line[:limit])
		b.WriteString("\r\n ")
		line = line[limit:]
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}
