package models

import (
	"encoding/json"
	"fmt"
)

// CaseStatus is the lifecycle state of a case
type CaseStatus int

// MessageStatus is the delivery state of the sender's message
type MessageStatus int

// NextStep is the next thing volunteers should do on a case
type NextStep int

// TimeType is the unit used to describe how long someone has been homeless
type TimeType int

const (
	// CaseOpen is an active case to reunite sender with recipient
	CaseOpen CaseStatus = iota
	// CaseClosed means sender and recipient were reunited or the case was otherwise resolved
	CaseClosed
	// CaseCold means the case is unresolved but has no active leads
	CaseCold
)

const (
	// MessageUndelivered has not been delivered to the recipient
	MessageUndelivered MessageStatus = iota
	// MessageDelivered was delivered to the recipient
	MessageDelivered
	// MessageDidNotPost has not been posted yet
	MessageDidNotPost
	// MessageReunited means sender and recipient have been reunited
	MessageReunited
	// MessageLocated means the recipient was located but declined the message
	MessageLocated
	// MessageOther is some other state, see the case notes
	MessageOther
)

const (
	// NextStepFindLeads volunteers should find leads for locating the recipient
	NextStepFindLeads NextStep = iota
	// NextStepLeadFollowUp volunteers should pursue leads to completion
	NextStepLeadFollowUp
	// NextStepSenderFollowUp volunteers should follow up with the sender
	NextStepSenderFollowUp
	// NextStepVolunteerFollowUp follow up with the volunteer who recorded the case
	NextStepVolunteerFollowUp
	// NextStepReunite a reunion should be facilitated
	NextStepReunite
	// NextStepCompleted the case has been resolved
	NextStepCompleted
)

const (
	// TimeWeeks unit
	TimeWeeks TimeType = iota
	// TimeMonths unit
	TimeMonths
	// TimeYears unit
	TimeYears
)

// The wire strings are stored data, some of them do not match the symbol names.
var caseStatusWire = []string{
	CaseOpen:   "Open",
	CaseClosed: "Closed",
	CaseCold:   "Cold",
}

var messageStatusWire = []string{
	MessageUndelivered: "Undelivered",
	MessageDelivered:   "Delivered",
	MessageDidNotPost:  "Did not post",
	MessageReunited:    "Reunited",
	MessageLocated:     "Located / No thanks",
	MessageOther:       "Other / see notes",
}

var nextStepWire = []string{
	NextStepFindLeads:         "Find Leads / Dive in!",
	NextStepLeadFollowUp:      "Follow-up with leads",
	NextStepSenderFollowUp:    "Follow-up with MM sender",
	NextStepVolunteerFollowUp: "Follow-up with Volunteer",
	NextStepReunite:           "Facilitate Reunion",
	NextStepCompleted:         "Done/Completed",
}

var timeTypeWire = []string{
	TimeWeeks:  "weeks",
	TimeMonths: "months",
	TimeYears:  "years",
}

func wireString(table []string, i int, kind string) string {
	if i < 0 || i >= len(table) {
		return fmt.Sprintf("%s(%d)", kind, i)
	}
	return table[i]
}

func parseWire(table []string, s, kind string) (int, error) {
	for i, w := range table {
		if w == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}

func (s CaseStatus) String() string { return wireString(caseStatusWire, int(s), "CaseStatus") }

func (s MessageStatus) String() string {
	return wireString(messageStatusWire, int(s), "MessageStatus")
}

func (s NextStep) String() string { return wireString(nextStepWire, int(s), "NextStep") }

func (t TimeType) String() string { return wireString(timeTypeWire, int(t), "TimeType") }

// ParseCaseStatus returns the CaseStatus for its wire string
func ParseCaseStatus(s string) (CaseStatus, error) {
	i, err := parseWire(caseStatusWire, s, "case status")
	return CaseStatus(i), err
}

// ParseMessageStatus returns the MessageStatus for its wire string
func ParseMessageStatus(s string) (MessageStatus, error) {
	i, err := parseWire(messageStatusWire, s, "message status")
	return MessageStatus(i), err
}

// ParseNextStep returns the NextStep for its wire string
func ParseNextStep(s string) (NextStep, error) {
	i, err := parseWire(nextStepWire, s, "next step")
	return NextStep(i), err
}

// ParseTimeType returns the TimeType for its wire string
func ParseTimeType(s string) (TimeType, error) {
	i, err := parseWire(timeTypeWire, s, "time type")
	return TimeType(i), err
}

// MarshalJSON writes the wire string
func (s CaseStatus) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// UnmarshalJSON reads the wire string
func (s *CaseStatus) UnmarshalJSON(b []byte) error {
	return unmarshalWire(b, func(v string) (err error) {
		*s, err = ParseCaseStatus(v)
		return err
	})
}

// MarshalJSON writes the wire string
func (s MessageStatus) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// UnmarshalJSON reads the wire string
func (s *MessageStatus) UnmarshalJSON(b []byte) error {
	return unmarshalWire(b, func(v string) (err error) {
		*s, err = ParseMessageStatus(v)
		return err
	})
}

// MarshalJSON writes the wire string
func (s NextStep) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// UnmarshalJSON reads the wire string
func (s *NextStep) UnmarshalJSON(b []byte) error {
	return unmarshalWire(b, func(v string) (err error) {
		*s, err = ParseNextStep(v)
		return err
	})
}

// MarshalJSON writes the wire string
func (t TimeType) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

// UnmarshalJSON reads the wire string
func (t *TimeType) UnmarshalJSON(b []byte) error {
	return unmarshalWire(b, func(v string) (err error) {
		*t, err = ParseTimeType(v)
		return err
	})
}

func unmarshalWire(b []byte, set func(string) error) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return set(v)
}
