package periods

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// Label renders the fortnight containing t, e.g. "1ª Septiembre 2023".
// Days 1 to 15 belong to the first half.
func Label(t time.Time) string {
	half := 1
	if t.Day() > 15 {
		half = 2
	}
	return fmt.Sprintf("%dª %s %d", half, monthNames[t.Month()-1], t.Year())
}

// Start returns the first day of the fortnight named by label.
func Start(label string) (time.Time, bool) {
	fields := strings.Fields(label)
	if len(fields) != 3 {
		return time.Time{}, false
	}
	var day int
	switch fields[0] {
	case "1ª":
		day = 1
	case "2ª":
		day = 16
	default:
		return time.Time{}, false
	}
	month := 0
	for i, name := range monthNames {
		if strings.EqualFold(name, fields[1]) {
			month = i + 1
			break
		}
	}
	if month == 0 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(fields[2])
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// Less orders labels chronologically. Unparseable labels sort after valid ones
// and then lexically.
func Less(a, b string) bool {
	ta, okA := Start(a)
	tb, okB := Start(b)
	switch {
	case okA && okB:
		return ta.Before(tb)
	case okA != okB:
		return okA
	default:
		return a < b
	}
}

// Sequence lists n consecutive fortnights starting with the one containing from.
func Sequence(from time.Time, n int) []string {
	out := make([]string, 0, n)
	cursor := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	if from.Day() > 15 {
		cursor = cursor.AddDate(0, 0, 15)
	}
	for i := 0; i < n; i++ {
		out = append(out, Label(cursor))
		if cursor.Day() == 1 {
			cursor = cursor.AddDate(0, 0, 15)
		} else {
			cursor = time.Date(cursor.Year(), cursor.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		}
	}
	return out
}
