package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rookery/internal/database"
	"rookery/internal/models"
)

const accountCols = `id, ap_id, username, domain, internal, name, bio, avatar_url, url, created_at, disabled_at`

// UpsertAccount inserts an account keyed by its federated identity URI, or
// refreshes the profile fields of an existing one (profile-update events).
// Accounts are never deleted, so the identity columns survive the update.
func (s *Store) UpsertAccount(ctx context.Context, acc *models.Account) (*models.Account, error) {
	createdAt := acc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	internal := 0
	if acc.Internal {
		internal = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (ap_id, username, domain, domain_hash, internal, name, bio, avatar_url, url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ap_id) DO UPDATE SET
			username    = excluded.username,
			domain      = excluded.domain,
			domain_hash = excluded.domain_hash,
			name        = excluded.name,
			bio         = excluded.bio,
			avatar_url  = excluded.avatar_url,
			url         = excluded.url
	`, acc.ApID, acc.Username, acc.Domain, models.HashDomain(acc.Domain), internal,
		acc.Name, acc.Bio, acc.AvatarURL, acc.URL, formatTime(createdAt))
	if err != nil {
		return nil, fmt.Errorf("upsert account: %w", err)
	}
	return s.GetAccountByApID(ctx, acc.ApID)
}

func (s *Store) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (s *Store) GetAccountByApID(ctx context.Context, apID string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE ap_id = ?`, apID)
	return scanAccount(row)
}

func (s *Store) GetAccountsByIDs(ctx context.Context, ids []int64) (map[int64]*models.Account, error) {
	accounts := make(map[int64]*models.Account, len(ids))
	if len(ids) == 0 {
		return accounts, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE id IN (`+placeholders(len(ids))+`)`,
		int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("get accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts[acc.ID] = acc
	}
	return accounts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(sc scanner) (*models.Account, error) {
	var a models.Account
	var internal int
	var createdAt string
	var disabledAt sql.NullString
	err := sc.Scan(&a.ID, &a.ApID, &a.Username, &a.Domain, &internal,
		&a.Name, &a.Bio, &a.AvatarURL, &a.URL, &createdAt, &disabledAt)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.Internal = internal == 1
	a.CreatedAt = parseTime(createdAt)
	if disabledAt.Valid {
		t := parseTime(disabledAt.String)
		a.DisabledAt = &t
	}
	return &a, nil
}
