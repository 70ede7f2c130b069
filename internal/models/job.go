package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var JobCategories = []string{
	"Technology",
	"Healthcare",
	"Finance",
	"Education",
	"Marketing",
	"Sales",
	"Customer Service",
	"Operations",
	"HR",
	"Design",
	"Engineering",
	"Other",
}

var JobTypes = []string{"Full-time", "Part-time", "Contract", "Freelance", "Internship"}

var ExperienceLevels = []string{"Entry Level", "1-3 years", "3-5 years", "5+ years", "Senior Level"}

type Job struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	Requirements string             `bson:"requirements" json:"requirements"`
	Company      primitive.ObjectID `bson:"company" json:"company"` // owning employer

	Category   string `bson:"category" json:"category"`
	Type       string `bson:"type" json:"type"`
	Location   string `bson:"location" json:"location"`
	Remote     bool   `bson:"remote" json:"remote"`
	Experience string `bson:"experience" json:"experience"`

	Salary   Salary   `bson:"salary,omitempty" json:"salary,omitempty"`
	Skills   []string `bson:"skills,omitempty" json:"skills,omitempty"`
	Benefits []string `bson:"benefits,omitempty" json:"benefits,omitempty"`

	ApplicationDeadline time.Time `bson:"application_deadline" json:"application_deadline"`

	IsActive bool `bson:"is_active" json:"is_active"`
	Featured bool `bson:"featured" json:"featured"`

	// Maintained incrementally via $inc, never read-modify-write.
	ApplicationsCount int64 `bson:"applications_count" json:"applications_count"`
	Views             int64 `bson:"views" json:"views"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type Salary struct {
	Min      int64  `bson:"min,omitempty" json:"min,omitempty"`
	Max      int64  `bson:"max,omitempty" json:"max,omitempty"`
	Currency string `bson:"currency,omitempty" json:"currency,omitempty"` // default USD
	Period   string `bson:"period,omitempty" json:"period,omitempty"`     // hourly|monthly|yearly
}

func ValidJobCategory(v string) bool { return contains(JobCategories, v) }
func ValidJobType(v string) bool     { return contains(JobTypes, v) }
func ValidExperience(v string) bool  { return contains(ExperienceLevels, v) }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
