package types

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrDuplicate        = errors.New("favorite already exists")
	ErrPersistence      = errors.New("persistence failure")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// Favorite is a station bookmarked by a user. ID and CreatedAt are assigned
// by the store.
type Favorite struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	SiteID    string    `json:"site_id"`
	SiteName  string    `json:"site_name"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFavorite is the add request body.
type NewFavorite struct {
	UserID    string   `json:"user_id"`
	SiteID    string   `json:"site_id"`
	SiteName  string   `json:"site_name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ValidationError reports a missing required input.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PersistenceError wraps a store failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

type Action string

const (
	ActionAdded   Action = "added"
	ActionRemoved Action = "removed"
)

// Event is published after a favorite is added or removed.
type Event struct {
	EventID    uuid.UUID `json:"event_id"`
	Action     Action    `json:"action"`
	UserID     string    `json:"user_id,omitempty"`
	SiteID     string    `json:"site_id,omitempty"`
	FavoriteID string    `json:"favorite_id"`
	At         time.Time `json:"at"`
}
