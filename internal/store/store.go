// Package store persists packs, schema, values, priorities, users, and
// comments behind a driver-agnostic interface. Two implementations exist:
// Postgres via pgx for deployments and SQLite via modernc for local use,
// selected by the store.driver config key.
package store

import (
	"context"

	"github.com/cellgrid/packdb/internal/model"
	"github.com/cellgrid/packdb/internal/source"
)

// Store is the persistence interface for the pack database.
//
// Lookups of soft-deleted or missing rows return apperr.ErrNotFound.
// Uniqueness violations return apperr.ErrConflict.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByToken(ctx context.Context, token string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// Packs
	CreatePack(ctx context.Context, p *model.Pack) error
	GetPack(ctx context.Context, id int64) (*model.Pack, error)
	ListPacks(ctx context.Context, f model.PackFilter) (*model.PackPage, error)
	UpdatePack(ctx context.Context, p *model.Pack) error
	SoftDeletePack(ctx context.Context, id int64) error

	// Schema
	ListDomains(ctx context.Context) ([]model.Domain, error)
	GetDomain(ctx context.Context, id int64) (*model.Domain, error)
	CreateDomain(ctx context.Context, d *model.Domain) error
	ListFields(ctx context.Context, domainID int64) ([]model.Field, error)
	ListAllFields(ctx context.Context) ([]model.Field, error)
	GetField(ctx context.Context, id int64) (*model.Field, error)
	CreateField(ctx context.Context, f *model.Field) error
	UpdateField(ctx context.Context, f *model.Field) error
	SoftDeleteField(ctx context.Context, id int64) error

	// Values
	CreateValue(ctx context.Context, v *model.Value) error
	GetValue(ctx context.Context, id int64) (*model.Value, error)
	UpdateValue(ctx context.Context, v *model.Value) error
	SoftDeleteValue(ctx context.Context, id int64) error
	ListPackValues(ctx context.Context, packID int64) ([]model.Value, error)

	// Source priorities. GetPriority returns nil when the user never stored
	// an order; it never materializes a row on read.
	GetPriority(ctx context.Context, userID int64) ([]source.Kind, error)
	SetPriority(ctx context.Context, userID int64, order []source.Kind) error

	// Comments
	ListComments(ctx context.Context, valueID int64) ([]model.Comment, error)
	CreateComment(ctx context.Context, c *model.Comment) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
