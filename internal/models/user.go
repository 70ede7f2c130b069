package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleCandidate = "candidate"
	RoleEmployer  = "employer"
	RoleAdmin     = "admin"
)

type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password" json:"-"`
	Role     string             `bson:"role" json:"role"` // candidate|employer|admin

	Profile Profile `bson:"profile,omitempty" json:"profile,omitempty"`
	Company Company `bson:"company,omitempty" json:"company,omitempty"`

	IsActive  bool      `bson:"is_active" json:"is_active"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type Profile struct {
	Phone    string   `bson:"phone,omitempty" json:"phone,omitempty"`
	Location string   `bson:"location,omitempty" json:"location,omitempty"`
	Bio      string   `bson:"bio,omitempty" json:"bio,omitempty"`
	Skills   []string `bson:"skills,omitempty" json:"skills,omitempty"`
}

type Company struct {
	Name        string `bson:"name,omitempty" json:"name,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Logo        string `bson:"logo,omitempty" json:"logo,omitempty"`
	Website     string `bson:"website,omitempty" json:"website,omitempty"`
}

// DisplayCompany is what candidates see as the hiring company. Employers
// without a company block fall back to their account name.
func (u *User) DisplayCompany() string {
	if u.Company.Name != "" {
		return u.Company.Name
	}
	return u.Name
}

func ValidRole(r string) bool {
	return r == RoleCandidate || r == RoleEmployer || r == RoleAdmin
}
