package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is the lifecycle state of an application.
type Status string

const (
	StatusPending     Status = "pending"
	StatusReviewing   Status = "reviewing"
	StatusShortlisted Status = "shortlisted"
	StatusInterview   Status = "interview"
	StatusRejected    Status = "rejected"
	StatusHired       Status = "hired"
)

const (
	MaxCoverLetterLen = 2000
	MaxNotesLen       = 1000
)

type Application struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Job       primitive.ObjectID `bson:"job_id" json:"job_id"`
	Candidate primitive.ObjectID `bson:"candidate_id" json:"candidate_id"`

	CoverLetter string `bson:"cover_letter,omitempty" json:"cover_letter,omitempty"`
	Resume      string `bson:"resume" json:"resume"`

	Status Status `bson:"status" json:"status"`
	Notes  string `bson:"notes,omitempty" json:"notes,omitempty"`

	AppliedAt  time.Time           `bson:"applied_at" json:"applied_at"`
	ReviewedAt *time.Time          `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	ReviewedBy *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusReviewing, StatusShortlisted, StatusInterview, StatusRejected, StatusHired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is permitted from s.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusHired
}
