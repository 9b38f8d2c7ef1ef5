package models

import "time"

// Profile is a user document in the profiles collection. Company decides
// which per-company product collection the user's saves land in.
type Profile struct {
	Account      string `bson:"account" json:"account"`
	PasswordHash []byte `bson:"password_hash" json:"-"`
	Company      string `bson:"company,omitempty" json:"company,omitempty"`
	Email        string `bson:"email,omitempty" json:"email,omitempty"`
}

// Session is one logged-in browser session, stored server-side. The
// cookie only carries a signed reference to it.
type Session struct {
	ID         string
	Username   string
	IPAddress  string
	UserAgent  string
	CreatedAt  time.Time
	LastSeenAt time.Time
	ExpiresAt  time.Time
}
