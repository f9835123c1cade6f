package domain

import "time"

type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// User es la cuenta persistida. Los campos de credenciales nunca se serializan.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Username      string    `json:"username,omitempty"`
	FirstName     string    `json:"firstName,omitempty"`
	LastName      string    `json:"lastName,omitempty"`
	DisplayName   string    `json:"displayName,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	PhotoURL      string    `json:"photo,omitempty"`
	PasswordHash  string    `json:"-"`
	LocalPassword bool      `json:"-"`
	GoogleID      string    `json:"-"`
	Role          Role      `json:"role"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HasGoogleIdentity indica si la cuenta fue vinculada a Google.
func (u User) HasGoogleIdentity() bool {
	return u.GoogleID != ""
}
