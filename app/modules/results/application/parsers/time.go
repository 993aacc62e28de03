package parsers

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// clockChars matches tokens made only of digits, colons and periods.
	clockChars = regexp.MustCompile(`^[\d:.]+$`)

	// timeLike matches tokens that start like a race clock (digits:digits...).
	timeLike = regexp.MustCompile(`^\d+:\d+`)

	// threeDigits matches a bare points value.
	threeDigits = regexp.MustCompile(`^\d{3}$`)

	// allDigits matches a numeric placement.
	allDigits = regexp.MustCompile(`^\d+$`)
)

// NormalizeTime converts a race-clock token into minutes:seconds form.
// HH:MM:SS[.frac] has its hours folded into the minutes; M:SS and MM:SS.FF are
// returned as-is. Tokens that do not look like a clock are passed through unchanged.
func NormalizeTime(token string) string {
	if token == "" || token == placeholder {
		return ""
	}

	// e.g. "x:xx:xx" placeholders from the generator
	if !clockChars.MatchString(token) {
		return token
	}

	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return token
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return token
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return token
	}
	if hours > (math.MaxInt-minutes)/60 {
		return token
	}

	return strconv.Itoa(hours*60+minutes) + ":" + parts[2]
}

// isTimeLike reports whether a token has the digits:digits shape of a lap or total time.
func isTimeLike(token string) bool {
	return timeLike.MatchString(token)
}

// isPoints reports whether a token is a bare three-digit number.
func isPoints(token string) bool {
	return threeDigits.MatchString(token)
}

// ClockSeconds converts a normalized clock such as "63:05" or "66:48.60" into seconds.
// It returns false for empty values, DNF and anything that is not a clock.
func ClockSeconds(clock string) (float64, bool) {
	if !isTimeLike(clock) || !clockChars.MatchString(clock) {
		return 0, false
	}

	parts := strings.Split(clock, ":")
	if len(parts) > 3 {
		return 0, false
	}

	secs, err := strconv.ParseFloat(parts[len(parts)-1], 64)
	if err != nil {
		return 0, false
	}

	total := secs
	scale := 60.0
	for i := len(parts) - 2; i >= 0; i-- {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return 0, false
		}
		total += float64(n) * scale
		scale *= 60
	}
	return total, true
}
