package models

import "strings"

// Country holds the short code used on the wire and a display name
type Country struct {
	Code string `json:"code" bson:"code"`
	Name string `json:"name" bson:"name"`
}

var countries = map[string]string{
	"US": "United States",
	"CA": "Canada",
	"MX": "Mexico",
	"GB": "United Kingdom",
	"IE": "Ireland",
	"AU": "Australia",
	"NZ": "New Zealand",
	"DE": "Germany",
	"FR": "France",
	"ES": "Spain",
	"IT": "Italy",
	"NL": "Netherlands",
	"PH": "Philippines",
	"IN": "India",
	"BR": "Brazil",
}

// LookupCountry resolves a country code. Unknown codes are kept with the code
// as their name.
func LookupCountry(code string) Country {
	code = strings.ToUpper(strings.TrimSpace(code))
	if name, ok := countries[code]; ok {
		return Country{Code: code, Name: name}
	}
	return Country{Code: code, Name: code}
}

// Source describes how a case originated, e.g. the referral channel
type Source struct {
	Type     string `json:"type" bson:"type"`
	Name     string `json:"name" bson:"name"`
	Location string `json:"location" bson:"location"`
}

// Dictionary is the source as it is written on the public case document
func (s Source) Dictionary() map[string]interface{} {
	return map[string]interface{}{
		"type":     s.Type,
		"name":     s.Name,
		"location": s.Location,
	}
}

// TimeHomeless describes how long the sender has been homeless, e.g. 3 months
type TimeHomeless struct {
	Type  TimeType `json:"type" bson:"type"`
	Value int      `json:"value" bson:"value"`
}

// Volunteer holds the profile of the volunteer recording a case
type Volunteer struct {
	UID      string `json:"uid" bson:"uid"`
	Name     string `json:"name" bson:"name"`
	Email    string `json:"email" bson:"email"`
	Phone    string `json:"phone" bson:"phone"`
	Location string `json:"location" bson:"location"`
}

// HealthCheckResponse returns the health check response duh
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
