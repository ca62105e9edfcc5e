package models

import "time"

// DefaultProviderLocation is used when a created provider has no location hint.
const DefaultProviderLocation = "Unknown"

// Provider is a canonical service provider (CandidateEntity).
type Provider struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Location    string    `json:"location" db:"location"`
	Email       string    `json:"email" db:"email"`
	Phone       string    `json:"phone" db:"phone"`
	Description string    `json:"description" db:"description"`
	AutoCreated bool      `json:"auto_created" db:"auto_created"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CandidateEntity is the part of a provider the matcher looks at.
type CandidateEntity struct {
	ID            string `json:"id" db:"id"`
	CanonicalName string `json:"canonical_name" db:"name"`
	Slug          string `json:"slug" db:"slug"`
	Location      string `json:"location" db:"location"`
}

// NewEntity is a fully initialized provider to be created. Placeholders are
// explicit empty strings rather than missing values.
type NewEntity struct {
	CanonicalName string `json:"canonical_name"`
	Slug          string `json:"slug"`
	Location      string `json:"location"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Description   string `json:"description"`
}
