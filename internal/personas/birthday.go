package personas

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date-string helpers for fecha_nacimiento. Inputs are ISO strings like
// "1990-03-15" or "1990-03-15T00:00:00Z"; the calendar components are read
// directly from the string so no timezone conversion can shift the day.

type birthDate struct {
	Year  int
	Month int
	Day   int
}

func parseBirthDate(value string) (birthDate, error) {
	datePart := value
	if idx := strings.Index(value, "T"); idx >= 0 {
		datePart = value[:idx]
	}
	parts := strings.Split(datePart, "-")
	if len(parts) != 3 {
		return birthDate{}, fmt.Errorf("invalid date %q", value)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return birthDate{}, fmt.Errorf("invalid year in %q", value)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return birthDate{}, fmt.Errorf("invalid month in %q", value)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > 31 {
		return birthDate{}, fmt.Errorf("invalid day in %q", value)
	}
	return birthDate{Year: year, Month: month, Day: day}, nil
}

// EsCumpleanosHoy reports whether the date string's day+month match today.
func EsCumpleanosHoy(fechaNacimiento string, today time.Time) (bool, error) {
	bd, err := parseBirthDate(fechaNacimiento)
	if err != nil {
		return false, err
	}
	_, tm, td := today.Date()
	return int(tm) == bd.Month && td == bd.Day, nil
}

// DiasParaCumpleanos returns how many days remain until the next occurrence
// of the birthday; 0 means it is today.
func DiasParaCumpleanos(fechaNacimiento string, today time.Time) (int, error) {
	bd, err := parseBirthDate(fechaNacimiento)
	if err != nil {
		return 0, err
	}
	ty, tm, td := today.Date()
	todayMidnight := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)

	next := time.Date(ty, time.Month(bd.Month), bd.Day, 0, 0, 0, 0, time.UTC)
	if next.Before(todayMidnight) {
		next = time.Date(ty+1, time.Month(bd.Month), bd.Day, 0, 0, 0, 0, time.UTC)
	}
	return int(next.Sub(todayMidnight).Hours() / 24), nil
}

// Edad returns completed years, adjusting when the birthday has not yet
// arrived this year.
func Edad(fechaNacimiento string, today time.Time) (int, error) {
	bd, err := parseBirthDate(fechaNacimiento)
	if err != nil {
		return 0, err
	}
	ty, tm, td := today.Date()
	age := ty - bd.Year
	if int(tm) < bd.Month || (int(tm) == bd.Month && td < bd.Day) {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age, nil
}
