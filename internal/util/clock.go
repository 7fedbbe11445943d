package util

import (
	"fmt"
	"time"
)

// Brasilia is UTC-3. Brazil dropped daylight saving in 2019, so a fixed zone
// avoids depending on the host tzdata.
var Brasilia = time.FixedZone("BRT", -3*60*60)

// FormatDateBR renders t as DD/MM/YYYY in Brasília time.
func FormatDateBR(t time.Time) string {
	return t.In(Brasilia).Format("02/01/2006")
}

// FormatDateTimeBR renders t as DD/MM/YYYY HH:MM:SS in Brasília time.
func FormatDateTimeBR(t time.Time) string {
	return t.In(Brasilia).Format("02/01/2006 15:04:05")
}

// FormatHoursMinutes renders a duration as "Hh Mm".
func FormatHoursMinutes(d time.Duration) string {
	d = d.Truncate(time.Minute)
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// FormatHoursMinutesSeconds renders a duration as "Hh Mm Ss".
func FormatHoursMinutesSeconds(d time.Duration) string {
	d = d.Truncate(time.Second)
	return fmt.Sprintf("%dh %dm %ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}
