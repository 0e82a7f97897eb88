package repository

import (
	"context"

	"github.com/gokatarajesh/finlit-quiz/internal/db/queries"
)

type adminStore interface {
	UpsertAdmin(ctx context.Context, arg queries.UpsertAdminParams) (queries.Admin, error)
	GetAdminByUsername(ctx context.Context, username string) (queries.Admin, error)
}

// AdminRepository wraps admin account queries.
type AdminRepository struct {
	store adminStore
}

func NewAdminRepository(store adminStore) *AdminRepository {
	return &AdminRepository{store: store}
}

// Upsert creates the admin or replaces its password hash.
func (r *AdminRepository) Upsert(ctx context.Context, username, passwordHash string) (queries.Admin, error) {
	return r.store.UpsertAdmin(ctx, queries.UpsertAdminParams{Username: username, PasswordHash: passwordHash})
}

// GetByUsername fetches an admin by login name.
func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (queries.Admin, error) {
	return r.store.GetAdminByUsername(ctx, username)
}
