// Package timecode converts between the SRT textual timestamp format
// (HH:MM:SS,mmm) and floating-point seconds.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse converts a timestamp of the form HH:MM:SS,mmm into seconds.
// A missing or empty milliseconds component is treated as zero.
func Parse(text string) (float64, error) {
	base := text
	millis := ""
	if idx := strings.IndexByte(text, ','); idx >= 0 {
		base = text[:idx]
		millis = text[idx+1:]
	}

	parts := strings.Split(base, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q: expected HH:MM:SS,mmm", text)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hours in timestamp %q: %w", text, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in timestamp %q: %w", text, err)
	}
	s, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in timestamp %q: %w", text, err)
	}

	ms := 0
	if millis != "" {
		ms, err = strconv.Atoi(millis)
		if err != nil {
			return 0, fmt.Errorf("invalid milliseconds in timestamp %q: %w", text, err)
		}
	}

	return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000, nil
}

// Format converts seconds into the HH:MM:SS,mmm form. Negative values are
// clamped to zero.
func Format(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}

	totalMillis := int64(seconds*1000 + 0.5)
	h := totalMillis / 3_600_000
	m := (totalMillis / 60_000) % 60
	s := (totalMillis / 1000) % 60
	ms := totalMillis % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
