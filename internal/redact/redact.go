// Package redact masks personal data in free text before it leaves the service.
package redact

import (
	"regexp"
	"sort"
	"strings"
)

// Kind identifies a category of personal data
type Kind string

const (
	KindEmail   Kind = "email"
	KindUPI     Kind = "upi"
	KindPhone   Kind = "phone"
	KindAadhaar Kind = "aadhaar"
	KindCard    Kind = "card"
)

// Detection is one match in the scanned text, as byte offsets
type Detection struct {
	Kind  Kind
	Value string
	Start int
	End   int
}

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)

	// UPI handles look like name@bank with no dot in the bank part
	upiPattern = regexp.MustCompile(`\b[A-Za-z0-9.\-_]{2,}@[A-Za-z]{2,}\b`)

	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+91[-\s]?[6-9][0-9]{4}[-\s]?[0-9]{5}\b`), // +91 98765 43210
		regexp.MustCompile(`\b0?[6-9][0-9]{4}[-\s]?[0-9]{5}\b`),       // 98765-43210
		regexp.MustCompile(`\b[0-9]{3}[-.][0-9]{3}[-.][0-9]{4}\b`),     // 555-123-4567
	}

	aadhaarPattern = regexp.MustCompile(`\b[2-9][0-9]{3}[\s-]?[0-9]{4}[\s-]?[0-9]{4}\b`)

	cardPattern = regexp.MustCompile(`\b(?:[0-9][\s-]?){12,18}[0-9]\b`)
)

var placeholders = map[Kind]string{
	KindEmail:   "[EMAIL_REDACTED]",
	KindUPI:     "[UPI_REDACTED]",
	KindPhone:   "[PHONE_REDACTED]",
	KindAadhaar: "[AADHAAR_REDACTED]",
	KindCard:    "[CARD_REDACTED]",
}

// Contains reports whether text holds any detectable personal data
func Contains(text string) bool {
	return len(Detect(text)) > 0
}

// Detect returns non-overlapping detections ordered by position.
// When matches overlap the earliest, then longest, wins.
func Detect(text string) []Detection {
	var found []Detection

	add := func(kind Kind, re *regexp.Regexp, accept func(string) bool) {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			value := text[loc[0]:loc[1]]
			if accept != nil && !accept(value) {
				continue
			}
			found = append(found, Detection{Kind: kind, Value: value, Start: loc[0], End: loc[1]})
		}
	}

	add(KindEmail, emailPattern, nil)
	add(KindUPI, upiPattern, nil)
	add(KindCard, cardPattern, luhnValid)
	add(KindAadhaar, aadhaarPattern, nil)
	for _, re := range phonePatterns {
		add(KindPhone, re, nil)
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Start != found[j].Start {
			return found[i].Start < found[j].Start
		}
		return found[i].End > found[j].End
	})

	out := found[:0]
	end := -1
	for _, d := range found {
		if d.Start < end {
			continue
		}
		out = append(out, d)
		end = d.End
	}
	return out
}

// Redact replaces every detection with a placeholder naming its kind
func Redact(text string) string {
	detections := Detect(text)
	if len(detections) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for _, d := range detections {
		b.WriteString(text[prev:d.Start])
		b.WriteString(placeholders[d.Kind])
		prev = d.End
	}
	b.WriteString(text[prev:])
	return b.String()
}

// luhnValid validates a card number, ignoring separators
func luhnValid(s string) bool {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(s)
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
