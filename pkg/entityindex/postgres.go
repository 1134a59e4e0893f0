package entityindex

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/blackrocklabs/playasearch/pkg/types"
)

// DefaultQueryTimeout bounds each index query when the caller does not
// configure one.
const DefaultQueryTimeout = 10 * time.Second

// PostgresIndex implements Index over a Postgres table. It shares the
// database with the item store; a (entity_type, entity_value) index makes
// both exact and prefix lookups cheap.
type PostgresIndex struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresIndex creates an index backed by an existing connection pool.
// A non-positive timeout falls back to DefaultQueryTimeout.
func NewPostgresIndex(db *sql.DB, timeout time.Duration) *PostgresIndex {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &PostgresIndex{db: db, timeout: timeout}
}

// OpenPostgresIndex opens a new connection pool for the index.
func OpenPostgresIndex(connectionString string) (*PostgresIndex, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewPostgresIndex(db, 0), nil
}

// queryContext bounds one index query.
func (p *PostgresIndex) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.timeout)
}

// Initialize creates the entity table and its lookup indices.
func (p *PostgresIndex) Initialize(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS item_entities (
			item_id TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_value TEXT NOT NULL,
			synonym_version INT NOT NULL DEFAULT 0,
			PRIMARY KEY (item_id, entity_type, entity_value)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_item_entities_lookup
		 ON item_entities (entity_type, entity_value)`,
		`CREATE INDEX IF NOT EXISTS idx_item_entities_value
		 ON item_entities (entity_value text_pattern_ops)`,
	}

	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize entity index: %w", err)
		}
	}
	return nil
}

// Add attaches entities to an item, normalizing values first.
func (p *PostgresIndex) Add(ctx context.Context, itemID string, entities []types.Entity) error {
	if len(entities) == 0 {
		return nil
	}

	ctx, cancel := p.queryContext(ctx)
	defer cancel()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO item_entities (item_id, entity_type, entity_value, synonym_version)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (item_id, entity_type, entity_value) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entities {
		e = NormalizeEntity(e)
		if e.Value == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, itemID, string(e.Type), e.Value, SynonymTableVersion); err != nil {
			return fmt.Errorf("failed to insert entity %s: %w", e.Key(), err)
		}
	}

	return tx.Commit()
}

// EntitiesFor returns the entities attached to an item.
func (p *PostgresIndex) EntitiesFor(ctx context.Context, itemID string) ([]types.Entity, error) {
	ctx, cancel := p.queryContext(ctx)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `
		SELECT entity_type, entity_value FROM item_entities
		WHERE item_id = $1
		ORDER BY entity_type, entity_value`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	return scanEntities(rows)
}

// ItemsFor returns the IDs of items carrying the given entity.
func (p *PostgresIndex) ItemsFor(ctx context.Context, entityType types.EntityType, value string) ([]string, error) {
	ctx, cancel := p.queryContext(ctx)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `
		SELECT item_id FROM item_entities
		WHERE entity_type = $1 AND entity_value = $2
		ORDER BY item_id`, string(entityType), Normalize(entityType, value))
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LookupLike returns entities whose canonical value starts with the given
// prefix, optionally restricted to one type.
func (p *PostgresIndex) LookupLike(ctx context.Context, entityType types.EntityType, valuePrefix string) ([]types.Entity, error) {
	query := `
		SELECT DISTINCT entity_type, entity_value FROM item_entities
		WHERE entity_value LIKE $1 || '%'`
	args := []interface{}{valuePrefix}

	if entityType != "" {
		query += ` AND entity_type = $2`
		args = append(args, string(entityType))
	}
	query += ` ORDER BY entity_type, entity_value`

	ctx, cancel := p.queryContext(ctx)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	return scanEntities(rows)
}

// All returns every distinct entity in the index.
func (p *PostgresIndex) All(ctx context.Context) ([]types.Entity, error) {
	ctx, cancel := p.queryContext(ctx)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `
		SELECT DISTINCT entity_type, entity_value FROM item_entities
		ORDER BY entity_type, entity_value`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	return scanEntities(rows)
}

// Close closes the connection pool.
func (p *PostgresIndex) Close() error {
	return p.db.Close()
}

func scanEntities(rows *sql.Rows) ([]types.Entity, error) {
	var entities []types.Entity
	for rows.Next() {
		var typ, value string
		if err := rows.Scan(&typ, &value); err != nil {
			return nil, err
		}
		entities = append(entities, types.Entity{Type: types.EntityType(typ), Value: value})
	}
	return entities, rows.Err()
}

var _ Index = (*PostgresIndex)(nil)
