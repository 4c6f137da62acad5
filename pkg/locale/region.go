package locale

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Region holds the defaults a business in a country usually wants.
type Region struct {
	Code     string // ISO 3166-1 alpha-2
	Name     string
	Timezone string // IANA identifier
	Currency string // ISO 4217
}

var Regions = map[string]Region{
	"IL": {Code: "IL", Name: "Israel", Timezone: "Asia/Jerusalem", Currency: "ILS"},
	"US": {Code: "US", Name: "United States", Timezone: "America/New_York", Currency: "USD"},
	"CA": {Code: "CA", Name: "Canada", Timezone: "America/Toronto", Currency: "CAD"},
	"GB": {Code: "GB", Name: "United Kingdom", Timezone: "Europe/London", Currency: "GBP"},
	"DE": {Code: "DE", Name: "Germany", Timezone: "Europe/Berlin", Currency: "EUR"},
	"FR": {Code: "FR", Name: "France", Timezone: "Europe/Paris", Currency: "EUR"},
	"ES": {Code: "ES", Name: "Spain", Timezone: "Europe/Madrid", Currency: "EUR"},
	"IN": {Code: "IN", Name: "India", Timezone: "Asia/Kolkata", Currency: "INR"},
	"AU": {Code: "AU", Name: "Australia", Timezone: "Australia/Sydney", Currency: "AUD"},
}

// ForPhone looks up the region of an E.164 phone number. Numbers without a leading '+'
// or from countries missing in Regions are not resolved.
func ForPhone(phone string) (Region, bool) {
	phone = strings.TrimSpace(phone)
	if !strings.HasPrefix(phone, "+") {
		return Region{}, false
	}

	num, err := phonenumbers.Parse(phone, "")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return Region{}, false
	}

	region, ok := Regions[phonenumbers.GetRegionCodeForNumber(num)]
	return region, ok
}
