package models

// UnlinkedRecord is a service listing that names its provider only as free text.
type UnlinkedRecord struct {
	ID           string  `json:"id" db:"id"`
	Title        string  `json:"title" db:"title"`
	RawName      string  `json:"raw_name" db:"provider"`
	LocationHint *string `json:"location_hint,omitempty" db:"location"`
}
