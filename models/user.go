package models

import "time"

// User represents an account entity used for authentication and billing gates.
// It contains identity attributes and credential-related data.
// Sensitive fields must never be exposed outside trusted boundaries.
type User struct {
	// UserID is the internal unique identifier of the user.
	// It is not exposed via JSON and is used only at the persistence layer.
	UserID int64 `json:"-"`

	// Email is the unique account identifier. Comparison is case-insensitive;
	// the persistence layer stores it lowercased.
	Email string `json:"email"`

	// Password carries the plain-text password only inside register/login
	// request bodies. It is never persisted and never returned in responses.
	Password string `json:"password,omitempty"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// It is never exposed via JSON.
	PasswordHash string `json:"-"`

	// SubscriptionTier is the billing tier of the account (e.g. "free",
	// "premium"). Read by billing gates; never synchronized.
	SubscriptionTier string `json:"subscription_tier,omitempty"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// TableName returns the name of the database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}
