package booking

import (
	"fmt"
	"time"
)

const (
	DefaultDateWindow = 14
	MaxDateWindow     = 60
)

var (
	weekdays = [...]string{"So", "Mo", "Di", "Mi", "Do", "Fr", "Sa"}
	months   = [...]string{"Jan", "Feb", "Mär", "Apr", "Mai", "Jun", "Jul", "Aug", "Sep", "Okt", "Nov", "Dez"}
)

// Date is one entry of the date picker. Value is what gets stored on the
// appointment, Display is the chip label.
type Date struct {
	Display string
	Value   string
}

// FormatDate renders t the way appointment dates are stored ("20. Jan 2025").
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d. %s %d", t.Day(), months[t.Month()-1], t.Year())
}

// AvailableDates lists the days after from, starting tomorrow. days <= 0
// selects DefaultDateWindow; larger values are capped at MaxDateWindow.
func AvailableDates(from time.Time, days int) []Date {
	if days <= 0 {
		days = DefaultDateWindow
	}
	if days > MaxDateWindow {
		days = MaxDateWindow
	}
	out := make([]Date, 0, days)
	for i := 1; i <= days; i++ {
		d := from.AddDate(0, 0, i)
		out = append(out, Date{
			Display: fmt.Sprintf("%s, %d. %s", weekdays[d.Weekday()], d.Day(), months[d.Month()-1]),
			Value:   FormatDate(d),
		})
	}
	return out
}
