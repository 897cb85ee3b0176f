package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
)

type clientsRepo struct {
	q querier
}

const clientColumns = `id, name, tenant_id, secret_hash, scopes, grant_types,
	access_token_ttl_seconds, contact_email, description, status,
	created_at, updated_at, last_used_at`

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.Name,
		c.TenantID,
		c.SecretHash,
		joinFields(c.Scopes),
		joinFields(c.GrantTypes),
		int64(c.AccessTokenTTL/time.Second),
		c.ContactEmail,
		c.Description,
		string(c.Status),
		toMillis(c.CreatedAt),
		toMillis(c.UpdatedAt),
		toNullMillis(c.LastUsedAt),
	)
	return mapConstraint(err)
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	return c, nil
}

func (r *clientsRepo) ListClients(ctx context.Context, f store.ClientFilter) ([]domain.Client, error) {
	var (
		where []string
		args  []any
	)
	if f.TenantID != "" {
		where = append(where, "tenant_id = ?")
		args = append(args, f.TenantID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}

	query := `SELECT ` + clientColumns + ` FROM clients`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *clientsRepo) UpdateClientStatus(ctx context.Context, id string, status domain.ClientStatus, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE clients SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), toMillis(at), id,
	)
	return affectedOne(res, err)
}

func (r *clientsRepo) TouchClientLastUsed(ctx context.Context, id string, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE clients SET last_used_at = ? WHERE id = ?`,
		toMillis(at), id,
	)
	return affectedOne(res, err)
}

func (r *clientsRepo) CountClients(ctx context.Context) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(s rowScanner) (domain.Client, error) {
	var (
		c                    domain.Client
		scopes, grants       string
		ttlSeconds           int64
		status               string
		createdAt, updatedAt int64
		lastUsedAt           sql.NullInt64
	)
	err := s.Scan(
		&c.ID, &c.Name, &c.TenantID, &c.SecretHash, &scopes, &grants,
		&ttlSeconds, &c.ContactEmail, &c.Description, &status,
		&createdAt, &updatedAt, &lastUsedAt,
	)
	if err != nil {
		return domain.Client{}, err
	}

	c.Scopes = splitFields(scopes)
	c.GrantTypes = splitFields(grants)
	c.AccessTokenTTL = time.Duration(ttlSeconds) * time.Second
	c.Status = domain.ClientStatus(status)
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	c.LastUsedAt = fromNullMillis(lastUsedAt)
	return c, nil
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
