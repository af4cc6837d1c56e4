package models

import (
	"time"
)

// DOBLayout is the text format of the date of birth on the private case document
const DOBLayout = "January 2, 2006 3:04:05 PM"

// Case is a single sender's search for their loved ones. It is populated by the
// volunteer workflow and written to the store by the submission protocol.
type Case struct {
	// Key is assigned on the first submission and reused afterwards
	Key            string     `json:"key,omitempty"`
	SubmissionDate time.Time  `json:"submissionDate"`
	Volunteer      *Volunteer `json:"volunteer,omitempty"`
	HasDetectives  bool       `json:"hasDetectives"`
	Detectives     []string   `json:"detectives"`
	ChapterID      string     `json:"chapterId,omitempty"`

	CaseStatus    CaseStatus    `json:"caseStatus"`
	MessageStatus MessageStatus `json:"messageStatus"`
	NextStep      NextStep      `json:"nextStep"`

	PublicVideoURL  string `json:"publicVideoUrl"`
	PrivateVideoURL string `json:"privateVideoUrl"`
	CoverURL        string `json:"coverUrl"`
	PhotoURL        string `json:"photoUrl"`

	Source Source `json:"source"`

	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName"`
	LastName   string `json:"lastName"`

	// Age is only known once the case has been submitted
	Age              int           `json:"age"`
	IsAgeApproximate bool          `json:"isAgeApproximate"`
	DateOfBirth      *time.Time    `json:"dateOfBirth,omitempty"`
	IsDOBApproximate bool          `json:"isDobApproximate"`
	TimeHomeless     *TimeHomeless `json:"timeHomeless,omitempty"`

	HomeCity    string   `json:"homeCity"`
	HomeState   string   `json:"homeState"`
	HomeCountry *Country `json:"homeCountry,omitempty"`

	CurrentCity    string   `json:"currentCity"`
	CurrentState   string   `json:"currentState"`
	CurrentCountry *Country `json:"currentCountry,omitempty"`
	LocationGPS    string   `json:"locationGps"`

	LovedOnes []*LovedOne `json:"lovedOnes"`

	Notes string `json:"notes"`

	// VideoFile is the upload name of the interview video, generated once
	VideoFile string `json:"videoFileName,omitempty"`
}

// NewCase returns an empty case originating from source
func NewCase(source Source, volunteer *Volunteer) *Case {
	return &Case{
		Source:        source,
		Volunteer:     volunteer,
		CaseStatus:    CaseOpen,
		MessageStatus: MessageUndelivered,
		NextStep:      NextStepFindLeads,
		Detectives:    []string{},
		LovedOnes:     []*LovedOne{},
	}
}

// AddLovedOne adds l to the case, replacing any loved one with the same identity
func (c *Case) AddLovedOne(l *LovedOne) {
	for i, existing := range c.LovedOnes {
		if existing == l || (l.LocalID != "" && existing.LocalID == l.LocalID) {
			c.LovedOnes[i] = l
			return
		}
	}
	c.LovedOnes = append(c.LovedOnes, l)
}

// RemoveLovedOne removes the loved one with the given local id and reports
// whether it was present
func (c *Case) RemoveLovedOne(localID string) bool {
	for i, existing := range c.LovedOnes {
		if existing.LocalID == localID {
			c.LovedOnes = append(c.LovedOnes[:i], c.LovedOnes[i+1:]...)
			return true
		}
	}
	return false
}

// LovedOne returns the loved one with the given local id
func (c *Case) LovedOne(localID string) (*LovedOne, bool) {
	for _, l := range c.LovedOnes {
		if l.LocalID == localID {
			return l, true
		}
	}
	return nil, false
}

// AgeAt returns the number of whole years between dob and at
func AgeAt(dob, at time.Time) int {
	at = at.In(dob.Location())
	years := at.Year() - dob.Year()
	if at.Month() < dob.Month() || (at.Month() == dob.Month() && at.Day() < dob.Day()) {
		years--
	}
	return years
}

// VolunteerName returns the name of the recording volunteer, if known
func (c *Case) VolunteerName() string {
	if c.Volunteer == nil {
		return ""
	}
	return c.Volunteer.Name
}

// EnsureVideoFileName returns the name the interview video is uploaded under,
// generating it from now on the first call
func (c *Case) EnsureVideoFileName(now time.Time) string {
	if c.VideoFile == "" {
		c.VideoFile = GenerateVideoFileName(c.VolunteerName(), now)
	}
	return c.VideoFile
}

// VideoLink is the absolute link to the uploaded interview video. It is
// empty until a file name has been generated.
func (c *Case) VideoLink(host, bucket string) string {
	if c.VideoFile == "" {
		return ""
	}
	return VideoLink(host, bucket, c.VideoFile)
}

// Clone returns a copy of c that shares no mutable state with it
func (c *Case) Clone() *Case {
	cp := *c
	if c.Volunteer != nil {
		v := *c.Volunteer
		cp.Volunteer = &v
	}
	cp.Detectives = append([]string{}, c.Detectives...)
	if c.DateOfBirth != nil {
		dob := *c.DateOfBirth
		cp.DateOfBirth = &dob
	}
	if c.TimeHomeless != nil {
		th := *c.TimeHomeless
		cp.TimeHomeless = &th
	}
	if c.HomeCountry != nil {
		hc := *c.HomeCountry
		cp.HomeCountry = &hc
	}
	if c.CurrentCountry != nil {
		cc := *c.CurrentCountry
		cp.CurrentCountry = &cc
	}
	cp.LovedOnes = make([]*LovedOne, len(c.LovedOnes))
	for i, l := range c.LovedOnes {
		lc := *l
		cp.LovedOnes[i] = &lc
	}
	return &cp
}

// CopySubmitted copies the fields set by a submission of from back onto c:
// the key, submission date, age and the ids of loved ones that c still holds
func (c *Case) CopySubmitted(from *Case) {
	c.Key = from.Key
	c.SubmissionDate = from.SubmissionDate
	c.Age = from.Age
	for _, l := range from.LovedOnes {
		if l.ID == "" {
			continue
		}
		if mine, ok := c.LovedOne(l.LocalID); ok {
			mine.ID = l.ID
		}
	}
}
