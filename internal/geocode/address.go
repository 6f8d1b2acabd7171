package geocode

import (
	"regexp"
	"strings"
)

var (
	postalCodePattern = regexp.MustCompile(`(\d{5}(-\d{4})?)\b`)

	// First standalone pair of capitals anywhere in the address. This is the
	// permissive variant: "Unit AB, Springfield, IL" yields "AB", not "IL".
	regionPattern = regexp.MustCompile(`\b([A-Z]{2})\b`)
)

// Address holds the components extracted from a free-text address.
// An empty field means the component was not found.
type Address struct {
	PostalCode string
	City       string
	Region     string
}

// HasPostalCode reports whether a postal code was found
func (a Address) HasPostalCode() bool {
	return a.PostalCode != ""
}

// Resolvable reports whether city and region are both known
func (a Address) Resolvable() bool {
	return a.City != "" && a.Region != ""
}

// ParseAddress runs the three extractors independently
func ParseAddress(address string) Address {
	return Address{
		PostalCode: ExtractPostalCode(address),
		City:       ExtractCity(address),
		Region:     ExtractRegion(address),
	}
}

// ExtractPostalCode returns the first 5-digit or ZIP+4 code in the address
func ExtractPostalCode(address string) string {
	m := postalCodePattern.FindStringSubmatch(address)
	if m == nil {
		return ""
	}
	return m[1]
}

// ExtractCity returns the trimmed segment that precedes the last comma.
// With a single comma that is everything before it ("Springfield, IL");
// with a street prefix it skips the street ("123 Main St, Springfield, IL 62704").
func ExtractCity(address string) string {
	last := strings.LastIndex(address, ",")
	if last < 0 {
		return ""
	}
	head := address[:last]
	if prev := strings.LastIndex(head, ","); prev >= 0 {
		head = head[prev+1:]
	}
	return strings.TrimSpace(head)
}

// ExtractRegion returns the first standalone two-letter uppercase token
func ExtractRegion(address string) string {
	m := regionPattern.FindStringSubmatch(address)
	if m == nil {
		return ""
	}
	return m[1]
}
