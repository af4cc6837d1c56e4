package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/miraclemessages/mm-case-api/models"
)

func TestVolunteerInfo(t *testing.T) {
	v := &models.Volunteer{Name: "Jane Doe", Email: "jane@example.com", Phone: "555-0100", Location: "San Francisco"}
	assert.Equal(t, "Volunteer information:\n\nJane Doe\njane@example.com\n555-0100\nSan Francisco", VolunteerInfo(v))

	v.Phone = ""
	assert.Equal(t, "There was an issue.", VolunteerInfo(v))
	assert.Equal(t, "There was an issue.", VolunteerInfo(nil))
}

func TestInterviewEmail(t *testing.T) {
	v := &models.Volunteer{Name: "Jane Doe", Email: "jane@example.com", Phone: "555-0100", Location: "SF"}
	m := InterviewEmail("mm@miraclemessages.org", v, "https://s3.amazonaws.com/b/jane-doe-03-01-2020-143005.mov", " met at the library ")

	assert.Equal(t, "mm@miraclemessages.org", m.ToEmail)
	assert.Equal(t, "[MM] Interview video", m.Subject)
	assert.Equal(t, "Volunteer information:\n\nJane Doe\njane@example.com\n555-0100\nSF"+
		"\n\nLink to video:\nhttps://s3.amazonaws.com/b/jane-doe-03-01-2020-143005.mov."+
		"\n\nPlease add any additional notes here:\nmet at the library", m.Plain)
	assert.Contains(t, m.HTML, "Please add any additional notes here:<br>met at the library")
	assert.Contains(t, m.HTML, "<title>[MM] Interview video</title>")
}

func TestInterviewEmail_WithoutNotes(t *testing.T) {
	m := InterviewEmail("mm@miraclemessages.org", nil, "link", "  ")
	assert.Equal(t, "There was an issue.\n\nLink to video:\nlink.\n\nPlease add any additional notes here:", m.Plain)
}
