// Package seed loads accounts and compliance documents from a YAML file.
// Neither collection has an admin surface, so this is how they are populated.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"art-platform/backend/accounts"
	"art-platform/backend/database"
	"art-platform/backend/models"

	"gopkg.in/yaml.v3"
)

type File struct {
	Users     []User     `yaml:"users"`
	Documents []Document `yaml:"documents"`
}

type User struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type Document struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// Result counts what Apply created and skipped.
type Result struct {
	UsersCreated     int
	UsersSkipped     int
	DocumentsCreated int
	DocumentsSkipped int
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, f.validate()
}

func (f *File) validate() error {
	for i, u := range f.Users {
		if !accounts.ValidateEmail(u.Email) {
			return fmt.Errorf("users[%d]: invalid email %q", i, u.Email)
		}
		if err := accounts.ValidatePassword(u.Password); err != nil {
			return fmt.Errorf("users[%d]: %w", i, err)
		}
	}
	for i, d := range f.Documents {
		if d.Title == "" || d.URL == "" {
			return fmt.Errorf("documents[%d]: title and url are required", i)
		}
	}
	return nil
}

// Apply creates users whose email is not taken and documents whose URL is not
// listed yet. Running it twice is harmless.
func Apply(ctx context.Context, store database.Store, f *File) (Result, error) {
	var res Result

	for _, u := range f.Users {
		_, err := store.FindUserByEmail(ctx, u.Email)
		if err == nil {
			res.UsersSkipped++
			continue
		}
		if !errors.Is(err, database.ErrNotFound) {
			return res, fmt.Errorf("look up %s: %w", u.Email, err)
		}
		created, err := accounts.Create(ctx, store, u.Email, u.Password)
		if err != nil {
			return res, fmt.Errorf("create %s: %w", u.Email, err)
		}
		slog.Info("seeded user", "source", "seed", "user_id", created.ID)
		res.UsersCreated++
	}

	existing, err := store.ListDocuments(ctx)
	if err != nil {
		return res, fmt.Errorf("list documents: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, d := range existing {
		seen[d.URL] = true
	}

	for _, d := range f.Documents {
		if seen[d.URL] {
			res.DocumentsSkipped++
			continue
		}
		if err := store.CreateDocument(ctx, &models.Document{Title: d.Title, URL: d.URL}); err != nil {
			return res, fmt.Errorf("create document %q: %w", d.Title, err)
		}
		seen[d.URL] = true
		res.DocumentsCreated++
	}

	return res, nil
}
