// Package idparse decodes opaque subject identifier strings into a parsed
// record according to one of four named formats: Plain, AEH, LANL and
// Regex. The four formats are a closed set, modeled as a tagged variant
// (Format): an iota-based int type with a switch-based String method.
package idparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrFormat is the sentinel returned for any malformed input, wrapped with
// format-specific context via fmt.Errorf("%w: ...").
var ErrFormat = errors.New("idparse: format error")

// Format enumerates the supported subject-ID encodings.
type Format int

const (
	// Plain is a bare identifier with no embedded date or metadata.
	Plain Format = iota
	// AEH is "id|mmddyyyy[|metadata...]".
	AEH
	// LANL is "subtype_country_id_yyyy[_metadata...]".
	LANL
	// Regex decodes via a caller-supplied compiled pattern; capture 1 is the
	// id, capture 2 (if present) a date, capture 3 (if present) metadata.
	Regex
)

// String renders the Format's name, for error messages and logging.
func (f Format) String() string {
	switch f {
	case Plain:
		return "plain"
	case AEH:
		return "aeh"
	case LANL:
		return "lanl"
	case Regex:
		return "regex"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Parsed is the transient record produced by Parse. Its lifetime is one
// ingest row: callers fold it into a subject.Subject immediately.
type Parsed struct {
	ID         string
	Date       *time.Time
	Attributes map[string]string
}

// regexDateLayouts are tried in order against a Regex format's second
// capture group, mirroring the original implementation's fixed format list.
var regexDateLayouts = []string{
	"01022006",   // mmddyyyy
	"01/02/06",   // mm/dd/yy
	"20060102",   // yyyymmdd
	"01_02_06",   // mm_dd_yy
	"01-02-06",   // mm-dd-yy
	"2006",       // yyyy
}

// Parse decodes raw using the given format. pattern is consulted only for
// Format == Regex and must have at least one capture group; it is ignored
// (and may be nil) for the other three formats.
func Parse(raw string, format Format, pattern *regexp.Regexp) (Parsed, error) {
	switch format {
	case Plain:
		return parsePlain(raw)
	case AEH:
		return parseAEH(raw)
	case LANL:
		return parseLANL(raw)
	case Regex:
		return parseRegex(raw, pattern)
	default:
		return Parsed{}, fmt.Errorf("%w: unknown format %v", ErrFormat, format)
	}
}

func parsePlain(raw string) (Parsed, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return Parsed{}, fmt.Errorf("%w: plain id is empty", ErrFormat)
	}
	return Parsed{ID: id}, nil
}

func parseAEH(raw string) (Parsed, error) {
	parts := strings.Split(strings.TrimSpace(raw), "|")
	if len(parts) < 2 || parts[0] == "" {
		return Parsed{}, fmt.Errorf("%w: AEH id needs \"id|mmddyyyy\": %q", ErrFormat, raw)
	}
	date, err := parseDate(parts[1], "01022006")
	if err != nil {
		return Parsed{}, fmt.Errorf("%w: AEH date %q: %v", ErrFormat, parts[1], err)
	}
	p := Parsed{ID: parts[0], Date: &date, Attributes: map[string]string{}}
	if len(parts) > 2 {
		p.Attributes["metadata"] = strings.Join(parts[2:], "|")
	}
	return p, nil
}

func parseLANL(raw string) (Parsed, error) {
	parts := strings.Split(strings.TrimSpace(raw), "_")
	if len(parts) < 4 {
		return Parsed{}, fmt.Errorf("%w: LANL id needs \"subtype_country_id_yyyy\": %q", ErrFormat, raw)
	}
	p := Parsed{ID: parts[2], Attributes: map[string]string{}}
	if parts[0] != "" {
		p.Attributes["subtype"] = parts[0]
	}
	if parts[1] != "" {
		p.Attributes["country"] = parts[1]
	}
	if year, err := strconv.Atoi(parts[3]); err == nil && year >= 1900 && year <= 2100 {
		date, err := parseDate(parts[3], "2006")
		if err == nil {
			p.Date = &date
		}
	}
	// A year outside [1900, 2100], or an unparseable year, silently yields
	// no date -- this is not a format error.
	return p, nil
}

func parseRegex(raw string, pattern *regexp.Regexp) (Parsed, error) {
	if pattern == nil {
		return Parsed{}, fmt.Errorf("%w: regex format requires a compiled pattern", ErrFormat)
	}
	m := pattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return Parsed{}, fmt.Errorf("%w: %q does not match the supplied pattern", ErrFormat, raw)
	}
	if len(m) < 2 || m[1] == "" {
		return Parsed{}, fmt.Errorf("%w: pattern must have at least one capture group", ErrFormat)
	}

	p := Parsed{ID: m[1], Attributes: map[string]string{}}

	if len(m) > 2 && m[2] != "" {
		for _, layout := range regexDateLayouts {
			if date, err := parseDate(m[2], layout); err == nil {
				p.Date = &date
				break
			}
		}
	}
	if len(m) > 3 && m[3] != "" {
		p.Attributes["metadata"] = m[3]
	}

	return p, nil
}

// parseDate parses value with layout and normalizes the result to midnight
// UTC, matching the original implementation's "always a calendar instant at
// 00:00:00 UTC" rule.
func parseDate(value, layout string) (time.Time, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
