package models

import (
	"fmt"
	"time"
)

// CaseUpdate holds the fields a volunteer may set on the current case. Nil
// fields are left untouched. Nothing is validated here, required fields are
// checked when the case is submitted.
type CaseUpdate struct {
	CaseStatus    *CaseStatus    `json:"caseStatus"`
	MessageStatus *MessageStatus `json:"messageStatus"`
	NextStep      *NextStep      `json:"nextStep"`

	PublicVideoURL  *string `json:"publicVideoUrl"`
	PrivateVideoURL *string `json:"privateVideoUrl"`
	CoverURL        *string `json:"coverUrl"`
	PhotoURL        *string `json:"photoUrl"`

	FirstName  *string `json:"firstName"`
	MiddleName *string `json:"middleName"`
	LastName   *string `json:"lastName"`

	IsAgeApproximate *bool `json:"isAgeApproximate"`
	// DateOfBirth is a calendar date, YYYY-MM-DD
	DateOfBirth      *string       `json:"dateOfBirth"`
	IsDOBApproximate *bool         `json:"isDobApproximate"`
	TimeHomeless     *TimeHomeless `json:"timeHomeless"`

	HomeCity       *string `json:"homeCity"`
	HomeState      *string `json:"homeState"`
	HomeCountry    *string `json:"homeCountry"`
	CurrentCity    *string `json:"currentCity"`
	CurrentState   *string `json:"currentState"`
	CurrentCountry *string `json:"currentCountry"`
	LocationGPS    *string `json:"locationGps"`

	Detectives *[]string `json:"detectives"`
	ChapterID  *string   `json:"chapterId"`
	Notes      *string   `json:"notes"`
}

// ApplyUpdate copies every set field of u onto the case
func (c *Case) ApplyUpdate(u CaseUpdate) error {
	if u.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", *u.DateOfBirth)
		if err != nil {
			return fmt.Errorf("invalid dateOfBirth: %w", err)
		}
		c.DateOfBirth = &dob
	}
	if u.CaseStatus != nil {
		c.CaseStatus = *u.CaseStatus
	}
	if u.MessageStatus != nil {
		c.MessageStatus = *u.MessageStatus
	}
	if u.NextStep != nil {
		c.NextStep = *u.NextStep
	}
	setString(&c.PublicVideoURL, u.PublicVideoURL)
	setString(&c.PrivateVideoURL, u.PrivateVideoURL)
	setString(&c.CoverURL, u.CoverURL)
	setString(&c.PhotoURL, u.PhotoURL)
	setString(&c.FirstName, u.FirstName)
	setString(&c.MiddleName, u.MiddleName)
	setString(&c.LastName, u.LastName)
	setString(&c.HomeCity, u.HomeCity)
	setString(&c.HomeState, u.HomeState)
	setString(&c.CurrentCity, u.CurrentCity)
	setString(&c.CurrentState, u.CurrentState)
	setString(&c.LocationGPS, u.LocationGPS)
	setString(&c.ChapterID, u.ChapterID)
	setString(&c.Notes, u.Notes)
	if u.IsAgeApproximate != nil {
		c.IsAgeApproximate = *u.IsAgeApproximate
	}
	if u.IsDOBApproximate != nil {
		c.IsDOBApproximate = *u.IsDOBApproximate
	}
	if u.TimeHomeless != nil {
		th := *u.TimeHomeless
		c.TimeHomeless = &th
	}
	if u.HomeCountry != nil {
		country := LookupCountry(*u.HomeCountry)
		c.HomeCountry = &country
	}
	if u.CurrentCountry != nil {
		country := LookupCountry(*u.CurrentCountry)
		c.CurrentCountry = &country
	}
	if u.Detectives != nil {
		c.Detectives = append([]string{}, (*u.Detectives)...)
		c.HasDetectives = len(c.Detectives) > 0
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
