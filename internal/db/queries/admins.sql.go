package queries

import (
	"context"
)

const upsertAdmin = `
INSERT INTO admins (username, password_hash)
VALUES ($1, $2)
ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash
RETURNING id, username, password_hash, created_at
`

type UpsertAdminParams struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

func (q *Queries) UpsertAdmin(ctx context.Context, arg UpsertAdminParams) (Admin, error) {
	row := q.db.QueryRow(ctx, upsertAdmin, arg.Username, arg.PasswordHash)
	var a Admin
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	return a, err
}

const getAdminByUsername = `SELECT id, username, password_hash, created_at FROM admins WHERE username = $1`

func (q *Queries) GetAdminByUsername(ctx context.Context, username string) (Admin, error) {
	row := q.db.QueryRow(ctx, getAdminByUsername, username)
	var a Admin
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	return a, err
}
