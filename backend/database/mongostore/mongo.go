// Package mongostore keeps users and documents in MongoDB. Collection and
// field names match the platform's existing Mongo data.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"art-platform/backend/database"
	"art-platform/backend/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	usersCollection     = "users"
	documentsCollection = "documents"
	logsCollection      = "logentries"
)

type Store struct {
	client    *mongo.Client
	users     *mongo.Collection
	documents *mongo.Collection
	logs      *mongo.Collection
}

var _ database.Store = (*Store)(nil)

// Open connects, pings the server and ensures the unique email index.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{
		client:    client,
		users:     db.Collection(usersCollection),
		documents: db.Collection(documentsCollection),
		logs:      db.Collection(logsCollection),
	}

	_, err = s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("create email index: %w", err)
	}
	return s, nil
}

type userDocument struct {
	ID           string        `bson:"_id"`
	Email        string        `bson:"email"`
	Password     string        `bson:"password"`
	Is2FAEnabled bool          `bson:"is2FAEnabled"`
	TwoFA        twoFADocument `bson:"twoFA"`
	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
}

type twoFADocument struct {
	Secret *string `bson:"secret"`
}

type documentDocument struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	URL       string    `bson:"url"`
	CreatedAt time.Time `bson:"createdAt"`
}

type logDocument struct {
	CreatedAt time.Time `bson:"createdAt"`
	Level     string    `bson:"level"`
	Message   string    `bson:"message"`
	Source    string    `bson:"source"`
	UserID    *string   `bson:"userId"`
	Data      string    `bson:"data"`
}

// entry converts a stored log document. Mongo assigns ObjectIDs, so the
// numeric ID stays zero and is omitted from JSON.
func (d logDocument) entry() models.LogEntry {
	return models.LogEntry{
		CreatedAt: d.CreatedAt,
		Level:     d.Level,
		Message:   d.Message,
		Source:    d.Source,
		UserID:    d.UserID,
		Data:      d.Data,
	}
}

func toUserDocument(u *models.User) userDocument {
	return userDocument{
		ID:           u.ID,
		Email:        u.Email,
		Password:     u.Password,
		Is2FAEnabled: u.TwoFAEnabled,
		TwoFA:        twoFADocument{Secret: u.TwoFASecret},
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDocument) user() *models.User {
	return &models.User{
		ID:           d.ID,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		Email:        d.Email,
		Password:     d.Password,
		TwoFAEnabled: d.Is2FAEnabled,
		TwoFASecret:  d.TwoFA.Secret,
	}
}

func (s *Store) findUser(ctx context.Context, filter bson.D) (*models.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return doc.user(), nil
}

func (s *Store) FindUser(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	if _, err := s.users.InsertOne(ctx, toUserDocument(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return database.ErrDuplicate
		}
		return err
	}
	return nil
}

// SaveUser replaces the whole record so a cleared secret is stored as null.
func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	result, err := s.users.ReplaceOne(ctx, bson.D{{Key: "_id", Value: user.ID}}, toUserDocument(user))
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (s *Store) ListDocuments(ctx context.Context) ([]models.Document, error) {
	cursor, err := s.documents.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var found []documentDocument
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}

	docs := make([]models.Document, 0, len(found))
	for _, d := range found {
		docs = append(docs, models.Document{ID: d.ID, Title: d.Title, URL: d.URL, CreatedAt: d.CreatedAt})
	}
	return docs, nil
}

func (s *Store) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	_, err := s.documents.InsertOne(ctx, documentDocument{ID: doc.ID, Title: doc.Title, URL: doc.URL, CreatedAt: doc.CreatedAt})
	return err
}

func (s *Store) CreateLogEntry(ctx context.Context, entry *models.LogEntry) error {
	_, err := s.logs.InsertOne(ctx, logDocument{
		CreatedAt: entry.CreatedAt,
		Level:     entry.Level,
		Message:   entry.Message,
		Source:    entry.Source,
		UserID:    entry.UserID,
		Data:      entry.Data,
	})
	return err
}

func (s *Store) ListLogEntries(ctx context.Context, userID string, limit int) ([]models.LogEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := s.logs.Find(ctx, bson.D{{Key: "userId", Value: userID}}, opts)
	if err != nil {
		return nil, err
	}
	var found []logDocument
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}

	entries := make([]models.LogEntry, 0, len(found))
	for _, d := range found {
		entries = append(entries, d.entry())
	}
	return entries, nil
}

func (s *Store) DeleteLogEntriesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.logs.DeleteMany(ctx, bson.D{{Key: "createdAt", Value: bson.D{{Key: "$lt", Value: cutoff}}}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
