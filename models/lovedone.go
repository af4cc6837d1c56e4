package models

import "github.com/google/uuid"

// LovedOne is a person the sender of a case is trying to reach. It only lives
// inside its parent Case.
type LovedOne struct {
	// ID is assigned by the store once the parent case has been written
	ID string `json:"id,omitempty" bson:"-"`
	// LocalID identifies the loved one inside its case before it has an ID
	LocalID     string          `json:"localId" bson:"-"`
	PublicInfo  LovedOnePublic  `json:"publicInfo" bson:"publicInfo"`
	PrivateInfo LovedOnePrivate `json:"privateInfo" bson:"privateInfo"`
}

// LovedOnePublic is the part of a loved one visible to every detective
type LovedOnePublic struct {
	FirstName         string `json:"firstName" bson:"firstName"`
	LastName          string `json:"lastName" bson:"lastName"`
	Relationship      string `json:"relationship" bson:"relationship"`
	LastKnownCity     string `json:"lastKnownCity" bson:"lastKnownCity"`
	LastKnownState    string `json:"lastKnownState" bson:"lastKnownState"`
	LastKnownCountry  string `json:"lastKnownCountry" bson:"lastKnownCountry"`
	YearsSinceContact int    `json:"yearsSinceContact" bson:"yearsSinceContact"`
	Message           string `json:"message" bson:"message"`
}

// LovedOnePrivate is the access controlled part of a loved one
type LovedOnePrivate struct {
	DateOfBirth      string `json:"dob" bson:"dob"`
	Phone            string `json:"phone" bson:"phone"`
	Email            string `json:"email" bson:"email"`
	LastKnownAddress string `json:"lastKnownAddress" bson:"lastKnownAddress"`
	Notes            string `json:"notes" bson:"notes"`
}

// NewLovedOne returns a loved one with a fresh local identity
func NewLovedOne(public LovedOnePublic, private LovedOnePrivate) *LovedOne {
	return &LovedOne{
		LocalID:     uuid.New().String(),
		PublicInfo:  public,
		PrivateInfo: private,
	}
}

// PublicDocument is the body written under cases/{key}/lovedOnes/{id}
func (l *LovedOne) PublicDocument() map[string]interface{} {
	p := l.PublicInfo
	return map[string]interface{}{
		"firstName":         p.FirstName,
		"lastName":          p.LastName,
		"relationship":      p.Relationship,
		"lastKnownCity":     p.LastKnownCity,
		"lastKnownState":    p.LastKnownState,
		"lastKnownCountry":  p.LastKnownCountry,
		"yearsSinceContact": p.YearsSinceContact,
		"message":           p.Message,
	}
}

// PrivateDocument is the body written under casesPrivate/{key}/lovedOnes/{id}
func (l *LovedOne) PrivateDocument() map[string]interface{} {
	p := l.PrivateInfo
	return map[string]interface{}{
		"dob":              p.DateOfBirth,
		"phone":            p.Phone,
		"email":            p.Email,
		"lastKnownAddress": p.LastKnownAddress,
		"notes":            p.Notes,
	}
}
