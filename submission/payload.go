package submission

import (
	"time"

	"github.com/miraclemessages/mm-case-api/databases"
	"github.com/miraclemessages/mm-case-api/models"
)

// plan is everything a submission writes, computed before the first write
type plan struct {
	submitted time.Time
	age       int
	public    databases.Document
	private   databases.Document
}

// Validate returns a ValidationError for the first field a submission
// requires that c is missing
func Validate(c *models.Case) error {
	required := []struct {
		field   string
		present bool
	}{
		{"publicVideoURL", c.PublicVideoURL != ""},
		{"privateVideoURL", c.PrivateVideoURL != ""},
		{"coverURL", c.CoverURL != ""},
		{"photoURL", c.PhotoURL != ""},
		{"firstName", c.FirstName != ""},
		{"middleName", c.MiddleName != ""},
		{"lastName", c.LastName != ""},
		{"currentCity", c.CurrentCity != ""},
		{"currentState", c.CurrentState != ""},
		{"currentCountry", c.CurrentCountry != nil && c.CurrentCountry.Code != ""},
		{"homeCity", c.HomeCity != ""},
		{"homeState", c.HomeState != ""},
		{"homeCountry", c.HomeCountry != nil && c.HomeCountry.Code != ""},
		{"dateOfBirth", c.DateOfBirth != nil},
		{"timeHomeless", c.TimeHomeless != nil},
	}
	for _, r := range required {
		if !r.present {
			return &ValidationError{Field: r.field}
		}
	}
	return nil
}

// newPlan validates c and builds its public and private case documents. The
// submission date defaults to now when the case has none yet.
func newPlan(c *models.Case, now time.Time) (*plan, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}
	submitted := c.SubmissionDate
	if submitted.IsZero() {
		submitted = now
	}
	age := models.AgeAt(*c.DateOfBirth, submitted)

	createdBy := map[string]interface{}{"uid": nil}
	if c.Volunteer != nil && c.Volunteer.UID != "" {
		createdBy["uid"] = c.Volunteer.UID
	}

	public := databases.Document{
		"submitted":      float64(submitted.Unix()) + float64(submitted.Nanosecond())/float64(time.Second),
		"createdBy":      createdBy,
		"caseStatus":     c.CaseStatus.String(),
		"messageStatus":  c.MessageStatus.String(),
		"nextStep":       c.NextStep.String(),
		"pubVideo":       c.PublicVideoURL,
		"youtubeCover":   c.CoverURL,
		"privVideo":      c.PrivateVideoURL,
		"source":         c.Source.Dictionary(),
		"photo":          c.PhotoURL,
		"firstName":      c.FirstName,
		"middleName":     c.MiddleName,
		"lastName":       c.LastName,
		"currentCity":    c.CurrentCity,
		"currentState":   c.CurrentState,
		"currentCountry": c.CurrentCountry.Code,
		"homeCity":       c.HomeCity,
		"homeState":      c.HomeState,
		"homeCountry":    c.HomeCountry.Code,
		"age":            age,
		"ageApproximate": c.IsAgeApproximate,
		"detectives":     c.HasDetectives || len(c.Detectives) > 0,
		"timeHomeless": map[string]interface{}{
			"type":  c.TimeHomeless.Type.String(),
			"value": c.TimeHomeless.Value,
		},
	}

	private := databases.Document{
		"dob":            c.DateOfBirth.Format(models.DOBLayout),
		"dobApproximate": c.IsDOBApproximate,
		"notes":          c.Notes,
	}

	return &plan{submitted: submitted, age: age, public: public, private: private}, nil
}
