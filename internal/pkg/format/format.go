// Package format renders portfolio values for display.
package format

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Badge colors returned by StatusColor
const (
	ColorGreen = "green"
	ColorBlue  = "blue"
	ColorRed   = "red"
	ColorGray  = "gray"
)

// Status turns a snake_case status into display words: "in_progress" -> "In Progress".
// Only the first letter of each word is changed.
func Status(status string) string {
	// A Caser keeps state, so one is built per call.
	caser := cases.Title(language.English, cases.NoLower)
	return caser.String(strings.ReplaceAll(status, "_", " "))
}

// StatusColor maps a skill or goal status onto a badge color.
func StatusColor(status string) string {
	switch status {
	case "approved", "completed":
		return ColorGreen
	case "in_progress":
		return ColorBlue
	case "rejected":
		return ColorRed
	default:
		return ColorGray
	}
}

// Date renders t as "January 2, 2006".
func Date(t time.Time) string {
	return t.Format("January 2, 2006")
}

// DateForInput renders t as the YYYY-MM-DD value used by date inputs.
func DateForInput(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// FullName joins first and last name with a single space.
func FullName(firstName, lastName string) string {
	return firstName + " " + lastName
}

// Phone formats a Kazakhstan number as +7 (XXX) XXX-XX-XX.
// Numbers not starting with 7 or 8 are returned unchanged.
func Phone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, phone)

	if digits == "" || (digits[0] != '7' && digits[0] != '8') {
		return phone
	}

	return "+7 (" + span(digits, 1, 4) + ") " + span(digits, 4, 7) + "-" + span(digits, 7, 9) + "-" + span(digits, 9, 11)
}

// span is a bounds-clamped s[from:to].
func span(s string, from, to int) string {
	if from > len(s) {
		from = len(s)
	}
	if to > len(s) {
		to = len(s)
	}
	return s[from:to]
}
