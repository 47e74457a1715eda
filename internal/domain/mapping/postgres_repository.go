package mapping

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores configurations as JSONB in source_mappings.
type PostgresRepository struct {
	db DBTX
}

// NewPostgresRepository creates a repository over an open pool.
func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns every stored configuration. Rows whose JSON cannot be decoded
// are reported as *InvalidError values joined into the returned error.
func (r *PostgresRepository) List(ctx context.Context) ([]*Config, error) {
	query := `
		SELECT source_id, config
		FROM source_mappings
		ORDER BY source_id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		configs []*Config
		invalid []error
	)
	for rows.Next() {
		var (
			sourceID string
			data     []byte
		)
		if err := rows.Scan(&sourceID, &data); err != nil {
			return nil, err
		}

		cfg, err := Decode(data)
		if err != nil {
			invalid = append(invalid, &InvalidError{SourceID: sourceID, Reasons: []string{err.Error()}})
			continue
		}
		if cfg.SourceID == "" {
			cfg.SourceID = sourceID
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return configs, errors.Join(invalid...)
}

// Save upserts a configuration keyed by its normalized source id.
func (r *PostgresRepository) Save(ctx context.Context, cfg *Config) error {
	data, err := Encode(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode mapping configuration: %w", err)
	}

	query := `
		INSERT INTO source_mappings (source_id, config)
		VALUES ($1, $2)
		ON CONFLICT (source_id) DO UPDATE SET
			config = EXCLUDED.config,
			updated_at = now()
	`
	_, err = r.db.Exec(ctx, query, cfg.Key(), data)
	return err
}

// Delete removes a stored configuration. Deleting a source that only exists
// as a built-in default is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, sourceID string) error {
	query := `DELETE FROM source_mappings WHERE source_id = $1`
	_, err := r.db.Exec(ctx, query, NormalizeKey(sourceID))
	return err
}
