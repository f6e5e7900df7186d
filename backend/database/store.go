package database

import (
	"context"
	"errors"
	"time"

	"art-platform/backend/models"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique field (user email) is already taken.
var ErrDuplicate = errors.New("duplicate record")

// Store is the record store behind the web surface. Implementations must be
// safe for concurrent use.
type Store interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	SaveUser(ctx context.Context, user *models.User) error

	ListDocuments(ctx context.Context) ([]models.Document, error)
	CreateDocument(ctx context.Context, doc *models.Document) error

	CreateLogEntry(ctx context.Context, entry *models.LogEntry) error
	ListLogEntries(ctx context.Context, userID string, limit int) ([]models.LogEntry, error)
	DeleteLogEntriesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	Close() error
}
