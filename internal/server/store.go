package server

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/resume-template/internal/db"
	"github.com/jonathan/resume-template/internal/fetch"
)

// DBClient is the user persistence UserService needs.
type DBClient interface {
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	CreateUserWithPassword(ctx context.Context, name, email, passwordHash string) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// Store is everything the server persists. Lookups return nil, nil when
// the row does not exist.
type Store interface {
	DBClient
	fetch.SourceCache

	CreateTemplate(ctx context.Context, t *db.Template) error
	GetTemplate(ctx context.Context, id uuid.UUID) (*db.Template, error)
	ListTemplates(ctx context.Context, userID uuid.UUID) ([]db.Template, error)
	UpdateTemplate(ctx context.Context, t *db.Template) error
	DeleteTemplate(ctx context.Context, id uuid.UUID) error

	CreateDocument(ctx context.Context, d *db.Document) error
	GetDocument(ctx context.Context, id uuid.UUID) (*db.Document, error)
	ListDocuments(ctx context.Context, templateID uuid.UUID) ([]db.Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error

	Ping(ctx context.Context) error
	Close()
}

var _ Store = (*db.DB)(nil)
