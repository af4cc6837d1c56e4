package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgeAt(t *testing.T) {
	dob := time.Date(2000, time.January, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 20, AgeAt(dob, time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 19, AgeAt(dob, time.Date(2020, time.January, 14, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, 20, AgeAt(dob, time.Date(2020, time.January, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, AgeAt(dob, dob))
}

func TestGenerateVideoFileName(t *testing.T) {
	at := time.Date(2017, time.June, 21, 9, 5, 7, 0, time.UTC)

	assert.Equal(t, "jane-doe-06-21-2017-090507.mov", GenerateVideoFileName("Jane Doe", at))
	assert.Equal(t, "06-21-2017-090507.mov", GenerateVideoFileName("", at))
}

func TestCase_VideoFileNameIsGeneratedOnce(t *testing.T) {
	at := time.Date(2017, time.June, 21, 9, 5, 7, 0, time.UTC)
	c := NewCase(Source{}, &Volunteer{Name: "Jane Doe"})
	assert.Empty(t, c.VideoLink("https://s3.amazonaws.com/", "mm-videos"))

	assert.Equal(t, "jane-doe-06-21-2017-090507.mov", c.EnsureVideoFileName(at))
	assert.Equal(t, "jane-doe-06-21-2017-090507.mov", c.EnsureVideoFileName(at.Add(time.Hour)))
	assert.Equal(t, "https://s3.amazonaws.com/mm-videos/jane-doe-06-21-2017-090507.mov", c.VideoLink("https://s3.amazonaws.com/", "mm-videos"))

	c.SubmissionDate = at.Add(time.Hour)
	c.Volunteer = nil
	assert.Equal(t, "jane-doe-06-21-2017-090507.mov", c.EnsureVideoFileName(at.Add(2*time.Hour)))
	assert.Equal(t, "jane-doe-06-21-2017-090507.mov", c.Clone().VideoFile)

	fresh := NewCase(Source{}, nil)
	assert.Equal(t, "06-21-2017-090507.mov", fresh.EnsureVideoFileName(at))
}

func TestCase_LovedOnesAreASet(t *testing.T) {
	c := NewCase(Source{}, nil)
	a := NewLovedOne(LovedOnePublic{FirstName: "Ana"}, LovedOnePrivate{})
	b := NewLovedOne(LovedOnePublic{FirstName: "Ben"}, LovedOnePrivate{})

	c.AddLovedOne(a)
	c.AddLovedOne(b)
	c.AddLovedOne(a)
	assert.Len(t, c.LovedOnes, 2)

	replacement := &LovedOne{LocalID: a.LocalID, PublicInfo: LovedOnePublic{FirstName: "Anna"}}
	c.AddLovedOne(replacement)
	got, ok := c.LovedOne(a.LocalID)
	require.True(t, ok)
	assert.Equal(t, "Anna", got.PublicInfo.FirstName)

	assert.True(t, c.RemoveLovedOne(b.LocalID))
	assert.False(t, c.RemoveLovedOne(b.LocalID))
	assert.Len(t, c.LovedOnes, 1)
}

func TestNewCaseDefaults(t *testing.T) {
	c := NewCase(Source{Type: "shelter"}, nil)

	assert.Equal(t, CaseOpen, c.CaseStatus)
	assert.Equal(t, MessageUndelivered, c.MessageStatus)
	assert.Equal(t, NextStepFindLeads, c.NextStep)
	assert.Empty(t, c.Key)
	assert.Equal(t, "shelter", c.Source.Type)
}

func TestCase_ApplyUpdate(t *testing.T) {
	c := NewCase(Source{}, nil)
	var u CaseUpdate
	err := json.Unmarshal([]byte(`{
		"messageStatus": "Located / No thanks",
		"nextStep": "Facilitate Reunion",
		"firstName": "Sam",
		"dateOfBirth": "2000-01-15",
		"homeCountry": "us",
		"timeHomeless": {"type": "years", "value": 2},
		"detectives": ["d1"]
	}`), &u)
	require.NoError(t, err)

	require.NoError(t, c.ApplyUpdate(u))

	assert.Equal(t, MessageLocated, c.MessageStatus)
	assert.Equal(t, NextStepReunite, c.NextStep)
	assert.Equal(t, CaseOpen, c.CaseStatus)
	assert.Equal(t, "Sam", c.FirstName)
	assert.Equal(t, time.Date(2000, time.January, 15, 0, 0, 0, 0, time.UTC), *c.DateOfBirth)
	assert.Equal(t, Country{Code: "US", Name: "United States"}, *c.HomeCountry)
	assert.Equal(t, TimeHomeless{Type: TimeYears, Value: 2}, *c.TimeHomeless)
	assert.True(t, c.HasDetectives)
}

func TestCase_ApplyUpdateRejectsBadDate(t *testing.T) {
	c := NewCase(Source{}, nil)
	bad := "15/01/2000"

	err := c.ApplyUpdate(CaseUpdate{DateOfBirth: &bad})

	assert.Error(t, err)
	assert.Nil(t, c.DateOfBirth)
}

func TestLookupCountry(t *testing.T) {
	assert.Equal(t, Country{Code: "CA", Name: "Canada"}, LookupCountry(" ca "))
	assert.Equal(t, Country{Code: "ZZ", Name: "ZZ"}, LookupCountry("zz"))
}

func TestCase_CloneAndCopySubmitted(t *testing.T) {
	us := LookupCountry("US")
	c := NewCase(Source{Type: "shelter"}, &Volunteer{Name: "Jane"})
	c.HomeCountry = &us
	l := NewLovedOne(LovedOnePublic{FirstName: "Ana"}, LovedOnePrivate{})
	c.AddLovedOne(l)

	cp := c.Clone()
	cp.HomeCountry.Name = "changed"
	cp.Volunteer.Name = "changed"
	cp.Key = "k1"
	cp.Age = 30
	cp.LovedOnes[0].ID = "lo1"
	assert.Equal(t, "United States", c.HomeCountry.Name)
	assert.Equal(t, "Jane", c.VolunteerName())
	assert.Empty(t, l.ID)

	c.CopySubmitted(cp)
	assert.Equal(t, "k1", c.Key)
	assert.Equal(t, 30, c.Age)
	assert.Equal(t, "lo1", l.ID)
}
