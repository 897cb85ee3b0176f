package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
)

type signingKeysRepo struct {
	q querier
}

const signingKeyColumns = `id, kid, algorithm, private_key_encrypted, created_at, retired_at, purge_after`

func (r *signingKeysRepo) CreateSigningKey(ctx context.Context, key domain.SigningKey) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO signing_keys (`+signingKeyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		key.ID,
		key.Kid,
		key.Algorithm,
		key.PrivateKeyEncrypted,
		toMillis(key.CreatedAt),
		toNullMillis(key.RetiredAt),
		toNullMillis(key.PurgeAfter),
	)
	return mapConstraint(err)
}

func (r *signingKeysRepo) GetSigningKeyByKid(ctx context.Context, kid string) (domain.SigningKey, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+signingKeyColumns+` FROM signing_keys WHERE kid = ?`, kid)
	k, err := scanSigningKey(row)
	if err != nil {
		return domain.SigningKey{}, mapNotFound(err)
	}
	return k, nil
}

func (r *signingKeysRepo) ListSigningKeys(ctx context.Context) ([]domain.SigningKey, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+signingKeyColumns+` FROM signing_keys ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []domain.SigningKey
	for rows.Next() {
		k, err := scanSigningKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *signingKeysRepo) RetireSigningKey(ctx context.Context, kid string, retiredAt, purgeAfter time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE signing_keys SET retired_at = ?, purge_after = ? WHERE kid = ? AND retired_at IS NULL`,
		toMillis(retiredAt), toMillis(purgeAfter), kid,
	)
	return affectedOne(res, err)
}

func (r *signingKeysRepo) DeleteSigningKeys(ctx context.Context, kids []string) error {
	if len(kids) == 0 {
		return nil
	}

	args := make([]any, len(kids))
	for i, k := range kids {
		args[i] = k
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(kids)), ",")

	_, err := r.q.ExecContext(ctx, `DELETE FROM signing_keys WHERE kid IN (`+placeholders+`)`, args...)
	return err
}

func scanSigningKey(s rowScanner) (domain.SigningKey, error) {
	var (
		k          domain.SigningKey
		createdAt  int64
		retiredAt  sql.NullInt64
		purgeAfter sql.NullInt64
	)
	if err := s.Scan(&k.ID, &k.Kid, &k.Algorithm, &k.PrivateKeyEncrypted, &createdAt, &retiredAt, &purgeAfter); err != nil {
		return domain.SigningKey{}, err
	}
	k.CreatedAt = fromMillis(createdAt)
	k.RetiredAt = fromNullMillis(retiredAt)
	k.PurgeAfter = fromNullMillis(purgeAfter)
	return k, nil
}
