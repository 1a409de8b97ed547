package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/gloirembonyi/excel-data-extracter/internal/db"
	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

// PostgresStore implements Store using pgxpool. Bulk imports go through the
// COPY and upsert helpers in internal/db.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS master_data (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	item_description TEXT NOT NULL,
	serial_number    TEXT NOT NULL DEFAULT '',
	tag_number       TEXT NOT NULL DEFAULT '',
	quantity         INTEGER NOT NULL DEFAULT 1,
	status           TEXT NOT NULL DEFAULT 'active',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_master_data_identity
	ON master_data(project_id, serial_number, tag_number);

CREATE TABLE IF NOT EXISTS datasets (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS dataset_rows (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	file       TEXT NOT NULL DEFAULT '',
	position   INTEGER NOT NULL,
	row        JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_master_data_project ON master_data(project_id);
CREATE INDEX IF NOT EXISTS idx_dataset_rows_dataset ON dataset_rows(dataset_id, position);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateProject(ctx context.Context, name, description string) (*model.Project, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO projects (id, name, description, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, name, description, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert project")
	}
	return &model.Project{ID: id, Name: name, Description: description, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	err := s.pool.QueryRow(ctx,
		`SELECT p.id, p.name, p.description, p.created_at, p.updated_at,
		        (SELECT COUNT(*) FROM master_data m WHERE m.project_id = p.id)
		 FROM projects p WHERE p.id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.MasterDataCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &model.NotFoundError{Kind: "project", ID: id}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get project %s", id)
	}
	return &p, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.name, p.description, p.created_at, p.updated_at,
		        (SELECT COUNT(*) FROM master_data m WHERE m.project_id = p.id)
		 FROM projects p ORDER BY p.created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.MasterDataCount); err != nil {
			return nil, eris.Wrap(err, "postgres: scan project")
		}
		projects = append(projects, p)
	}
	return projects, eris.Wrap(rows.Err(), "postgres: list projects iterate")
}

func (s *PostgresStore) DeleteProject(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete project %s", id)
	}
	if tag.RowsAffected() == 0 {
		return &model.NotFoundError{Kind: "project", ID: id}
	}
	return nil
}

var masterDataColumns = []string{
	"id", "project_id", "item_description", "serial_number", "tag_number",
	"quantity", "status", "created_at", "updated_at",
}

func (s *PostgresStore) AddMasterData(ctx context.Context, projectID string, items []model.MasterDataItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	rows := make([][]any, len(items))
	for i, item := range items {
		status := item.Status
		if status == "" {
			status = "active"
		}
		rows[i] = []any{
			uuid.New().String(), projectID,
			item.ItemDescription, item.SerialNumber, item.TagNumber,
			item.Quantity, status, now, now,
		}
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "master_data",
		Columns:      masterDataColumns,
		ConflictKeys: []string{"project_id", "serial_number", "tag_number"},
		UpdateCols:   []string{"item_description", "quantity", "status", "updated_at"},
	}, rows)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: add master data to project %s", projectID)
	}
	return int(n), nil
}

func (s *PostgresStore) ListMasterData(ctx context.Context, projectID string) ([]model.MasterDataItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, item_description, serial_number, tag_number, quantity, status, created_at, updated_at
		 FROM master_data WHERE project_id = $1 ORDER BY created_at, id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list master data %s", projectID)
	}
	defer rows.Close()

	var items []model.MasterDataItem
	for rows.Next() {
		var m model.MasterDataItem
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.ItemDescription, &m.SerialNumber, &m.TagNumber,
			&m.Quantity, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan master data")
		}
		items = append(items, m)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list master data iterate")
}

func (s *PostgresStore) DeleteMasterData(ctx context.Context, projectID string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM master_data WHERE project_id = $1`, projectID)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: delete master data %s", projectID)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) CreateDataset(ctx context.Context, name, description string) (*model.Dataset, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO datasets (id, name, description, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, name, description, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert dataset")
	}
	return &model.Dataset{ID: id, Name: name, Description: description, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *PostgresStore) GetDataset(ctx context.Context, id string) (*model.Dataset, error) {
	ds, err := s.getDatasetMeta(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.loadDatasetRows(ctx, ds); err != nil {
		return nil, err
	}
	return ds, nil
}

func (s *PostgresStore) ListDatasets(ctx context.Context, withRows bool) ([]model.Dataset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, created_at, updated_at FROM datasets ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list datasets")
	}
	defer rows.Close()

	var datasets []model.Dataset
	for rows.Next() {
		var ds model.Dataset
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.Description, &ds.CreatedAt, &ds.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan dataset")
		}
		datasets = append(datasets, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list datasets iterate")
	}

	for i := range datasets {
		if withRows {
			if err := s.loadDatasetRows(ctx, &datasets[i]); err != nil {
				return nil, err
			}
			continue
		}
		if err := s.loadDatasetStats(ctx, &datasets[i]); err != nil {
			return nil, err
		}
	}
	return datasets, nil
}

func (s *PostgresStore) DeleteDataset(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete dataset %s", id)
	}
	if tag.RowsAffected() == 0 {
		return &model.NotFoundError{Kind: "dataset", ID: id}
	}
	return nil
}

func (s *PostgresStore) AppendDatasetRows(ctx context.Context, id, filename string, rows []map[string]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if _, err := s.getDatasetMeta(ctx, id); err != nil {
		return 0, err
	}

	var next int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM dataset_rows WHERE dataset_id = $1`, id,
	).Scan(&next)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: next position for dataset %s", id)
	}

	copyRows := make([][]any, len(rows))
	for i, row := range rows {
		rowJSON, err := json.Marshal(row)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal dataset row")
		}
		copyRows[i] = []any{uuid.New().String(), id, filename, next + i, rowJSON}
	}

	n, err := db.CopyFrom(ctx, s.pool, "dataset_rows",
		[]string{"id", "dataset_id", "file", "position", "row"}, copyRows)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: append rows to dataset %s", id)
	}

	if _, err := s.pool.Exec(ctx, `UPDATE datasets SET updated_at = $1 WHERE id = $2`, time.Now().UTC(), id); err != nil {
		return 0, eris.Wrapf(err, "postgres: touch dataset %s", id)
	}
	return int(n), nil
}

// helpers

func (s *PostgresStore) getDatasetMeta(ctx context.Context, id string) (*model.Dataset, error) {
	var ds model.Dataset
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at FROM datasets WHERE id = $1`, id,
	).Scan(&ds.ID, &ds.Name, &ds.Description, &ds.CreatedAt, &ds.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &model.NotFoundError{Kind: "dataset", ID: id}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get dataset %s", id)
	}
	return &ds, nil
}

func (s *PostgresStore) loadDatasetRows(ctx context.Context, ds *model.Dataset) error {
	rows, err := s.pool.Query(ctx,
		`SELECT file, row FROM dataset_rows WHERE dataset_id = $1 ORDER BY position`,
		ds.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: load rows for dataset %s", ds.ID)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var file string
		var rowJSON []byte
		if err := rows.Scan(&file, &rowJSON); err != nil {
			return eris.Wrap(err, "postgres: scan dataset row")
		}
		var row map[string]any
		if err := json.Unmarshal(rowJSON, &row); err != nil {
			return eris.Wrap(err, "postgres: unmarshal dataset row")
		}
		ds.Rows = append(ds.Rows, row)
		if file != "" && !seen[file] {
			seen[file] = true
			ds.Files = append(ds.Files, file)
		}
	}
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "postgres: load rows iterate")
	}
	ds.TotalRows = len(ds.Rows)
	ds.FileCount = len(ds.Files)
	return nil
}

func (s *PostgresStore) loadDatasetStats(ctx context.Context, ds *model.Dataset) error {
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT NULLIF(file, '')) FROM dataset_rows WHERE dataset_id = $1`,
		ds.ID,
	).Scan(&ds.TotalRows, &ds.FileCount)
	return eris.Wrapf(err, "postgres: stats for dataset %s", ds.ID)
}
