// Package models defines the domain types persisted by the server.
package models

import "time"

// User is an account in the directory.
//
// VerificationKey is non-nil only while Verified is false. ID is assigned
// once on first store and never changes.
type User struct {
	ID              string
	Email           string
	FirstName       *string
	LastName        *string
	HashedPassword  string
	IsAdmin         bool
	Verified        bool
	VerificationKey *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MarkVerified flips the account to verified and drops the key.
func (u *User) MarkVerified() {
	u.Verified = true
	u.VerificationKey = nil
}

// Clone returns a deep copy, so callers can mutate without touching shared state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.FirstName = cloneString(u.FirstName)
	c.LastName = cloneString(u.LastName)
	c.VerificationKey = cloneString(u.VerificationKey)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
