// Package decklist parses free-text decklist lines into structured entries.
package decklist

import (
	"regexp"
	"strconv"
	"strings"
)

// Entry is one parsed decklist line. Set and CollectorNumber are empty
// when the line did not carry printing information.
type Entry struct {
	Quantity        int
	Name            string
	Set             string
	CollectorNumber string
}

var (
	// "2 Crystal Grotto (WOE) 254" — collector numbers may carry a
	// trailing letter suffix ("107a").
	fullLine = regexp.MustCompile(`^(\d+)\s+(.+?)\s+\(([a-zA-Z0-9]+)\)\s+(\d+[a-zA-Z]*)$`)

	// "2 Crystal Grotto" / "2x Crystal Grotto"
	simpleLine = regexp.MustCompile(`^(\d+)x?\s+(.*)$`)
)

// Parse converts a decklist line into an Entry. Blank input yields nil.
// Lines that match no quantity grammar become a single copy of the whole
// trimmed line.
func Parse(line string) *Entry {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if m := fullLine.FindStringSubmatch(line); m != nil {
		qty, _ := strconv.Atoi(m[1])
		return &Entry{
			Quantity:        qty,
			Name:            strings.TrimSpace(m[2]),
			Set:             strings.ToLower(m[3]),
			CollectorNumber: m[4],
		}
	}

	if m := simpleLine.FindStringSubmatch(line); m != nil {
		qty, _ := strconv.Atoi(m[1])
		return &Entry{
			Quantity: qty,
			Name:     strings.TrimSpace(m[2]),
		}
	}

	return &Entry{Quantity: 1, Name: line}
}

// Key returns the reconciliation key used to merge duplicate entries and
// to match provider results back to requested quantities:
// "<set>:<collector_number>" when printing info is present, else the
// lower-cased name.
func (e *Entry) Key() string {
	if e.Set != "" && e.CollectorNumber != "" {
		return strings.ToLower(e.Set + ":" + e.CollectorNumber)
	}
	return strings.ToLower(e.Name)
}
