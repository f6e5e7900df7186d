package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"art-platform/backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormStore keeps users, documents and log entries in a SQL database.
type GormStore struct {
	db *gorm.DB
}

// OpenGorm connects to sqlite (dsn is a file path) or postgres and migrates the schema.
func OpenGorm(driver, dsn string) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// sqlite allows one writer; a single connection also keeps :memory: databases intact
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return NewGormStore(db)
}

// NewGormStore wraps an open connection and migrates the schema.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&models.User{}, &models.Document{}, &models.LogEntry{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// DB exposes the underlying connection for tests and maintenance tasks.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func (s *GormStore) FindUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// CreateUser relies on the unique email index, so concurrent registrations of
// the same address also end in ErrDuplicate.
func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return duplicate(s.db.WithContext(ctx).Create(user).Error)
}

// SaveUser writes every column, so a nil TwoFASecret is persisted as NULL.
func (s *GormStore) SaveUser(ctx context.Context, user *models.User) error {
	return duplicate(s.db.WithContext(ctx).Save(user).Error)
}

func (s *GormStore) ListDocuments(ctx context.Context) ([]models.Document, error) {
	docs := []models.Document{}
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *GormStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	return s.db.WithContext(ctx).Create(doc).Error
}

func (s *GormStore) CreateLogEntry(ctx context.Context, entry *models.LogEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormStore) ListLogEntries(ctx context.Context, userID string, limit int) ([]models.LogEntry, error) {
	entries := []models.LogEntry{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *GormStore) DeleteLogEntriesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.LogEntry{})
	return result.RowsAffected, result.Error
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func duplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
