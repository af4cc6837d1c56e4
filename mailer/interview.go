package mailer

import (
	"strings"

	"github.com/miraclemessages/mm-case-api/models"
	templates "github.com/miraclemessages/mm-case-api/templates/html"
)

// InterviewSubject is the subject of every interview email
const InterviewSubject = "[MM] Interview video"

// VolunteerInfo is the volunteer block of the interview email. The team
// follows up with the volunteer directly, so every contact field is needed.
func VolunteerInfo(v *models.Volunteer) string {
	if v == nil || v.Name == "" || v.Email == "" || v.Phone == "" || v.Location == "" {
		return "There was an issue."
	}
	return "Volunteer information:\n\n" + strings.Join([]string{v.Name, v.Email, v.Phone, v.Location}, "\n")
}

// InterviewEmail builds the email telling the team where the interview video
// was uploaded. notes are appended below the notes prompt.
func InterviewEmail(to string, v *models.Volunteer, videoLink, notes string) Message {
	var b strings.Builder
	b.WriteString(VolunteerInfo(v))
	b.WriteString("\n\nLink to video:\n")
	b.WriteString(videoLink)
	b.WriteString(".\n\nPlease add any additional notes here:")
	if notes = strings.TrimSpace(notes); notes != "" {
		b.WriteString("\n")
		b.WriteString(notes)
	}
	plain := b.String()
	return Message{
		ToEmail: to,
		Subject: InterviewSubject,
		Plain:   plain,
		HTML:    templates.RenderGenericEmail(InterviewSubject, plain),
	}
}
