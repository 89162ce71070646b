package tax

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnsupportedCountry is returned when no engine is registered for a
// country code.
var ErrUnsupportedCountry = errors.New("unsupported country")

// engines is the closed jurisdiction table, built at init time. No
// runtime registration.
var engines = map[string]func() Engine{
	"DE": func() Engine { return NewGermany() },
}

// Resolve returns the tax engine for a country code (case-insensitive).
func Resolve(countryCode string) (Engine, error) {
	code := strings.ToUpper(strings.TrimSpace(countryCode))
	newEngine, ok := engines[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCountry, countryCode)
	}
	return newEngine(), nil
}

// SupportedCountries lists registered country codes in sorted order.
func SupportedCountries() []string {
	codes := make([]string, 0, len(engines))
	for code := range engines {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
