package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the default
// backend for single-machine deployments and tests.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS master_data (
	id               TEXT PRIMARY KEY,
	project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	item_description TEXT NOT NULL,
	serial_number    TEXT NOT NULL DEFAULT '',
	tag_number       TEXT NOT NULL DEFAULT '',
	quantity         INTEGER NOT NULL DEFAULT 1,
	status           TEXT NOT NULL DEFAULT 'active',
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS datasets (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS dataset_rows (
	id         TEXT PRIMARY KEY,
	dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	file       TEXT NOT NULL DEFAULT '',
	position   INTEGER NOT NULL,
	row        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_master_data_project ON master_data(project_id);
CREATE INDEX IF NOT EXISTS idx_dataset_rows_dataset ON dataset_rows(dataset_id, position);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateProject(ctx context.Context, name, description string) (*model.Project, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, description, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert project")
	}
	return &model.Project{ID: id, Name: name, Description: description, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	err := s.db.QueryRowContext(ctx,
		`SELECT p.id, p.name, p.description, p.created_at, p.updated_at,
		        (SELECT COUNT(*) FROM master_data m WHERE m.project_id = p.id)
		 FROM projects p WHERE p.id = ?`,
		id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.MasterDataCount)
	if err == sql.ErrNoRows {
		return nil, &model.NotFoundError{Kind: "project", ID: id}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get project %s", id)
	}
	return &p, nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.description, p.created_at, p.updated_at,
		        (SELECT COUNT(*) FROM master_data m WHERE m.project_id = p.id)
		 FROM projects p ORDER BY p.created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.MasterDataCount); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan project")
		}
		projects = append(projects, p)
	}
	return projects, eris.Wrap(rows.Err(), "sqlite: list projects iterate")
}

func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete project %s", id)
	}
	return checkRowsAffected(res, "project", id)
}

func (s *SQLiteStore) AddMasterData(ctx context.Context, projectID string, items []model.MasterDataItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, item := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO master_data
			 (id, project_id, item_description, serial_number, tag_number, quantity, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), projectID,
			item.ItemDescription, item.SerialNumber, item.TagNumber,
			item.Quantity, item.Status, now, now,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert master data for project %s", projectID)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE projects SET updated_at = ? WHERE id = ?`, now, projectID); err != nil {
		return 0, eris.Wrapf(err, "sqlite: touch project %s", projectID)
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit tx")
	}
	return len(items), nil
}

func (s *SQLiteStore) ListMasterData(ctx context.Context, projectID string) ([]model.MasterDataItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, item_description, serial_number, tag_number, quantity, status, created_at, updated_at
		 FROM master_data WHERE project_id = ? ORDER BY created_at, id`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list master data %s", projectID)
	}
	defer rows.Close()

	var items []model.MasterDataItem
	for rows.Next() {
		var m model.MasterDataItem
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.ItemDescription, &m.SerialNumber, &m.TagNumber,
			&m.Quantity, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan master data")
		}
		items = append(items, m)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list master data iterate")
}

func (s *SQLiteStore) DeleteMasterData(ctx context.Context, projectID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM master_data WHERE project_id = ?`, projectID)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: delete master data %s", projectID)
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) CreateDataset(ctx context.Context, name, description string) (*model.Dataset, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO datasets (id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, description, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert dataset")
	}
	return &model.Dataset{ID: id, Name: name, Description: description, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLiteStore) GetDataset(ctx context.Context, id string) (*model.Dataset, error) {
	var ds model.Dataset
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM datasets WHERE id = ?`,
		id,
	).Scan(&ds.ID, &ds.Name, &ds.Description, &ds.CreatedAt, &ds.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &model.NotFoundError{Kind: "dataset", ID: id}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get dataset %s", id)
	}
	if err := s.loadDatasetRows(ctx, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (s *SQLiteStore) ListDatasets(ctx context.Context, withRows bool) ([]model.Dataset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM datasets ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list datasets")
	}
	defer rows.Close()

	var datasets []model.Dataset
	for rows.Next() {
		var ds model.Dataset
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.Description, &ds.CreatedAt, &ds.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan dataset")
		}
		datasets = append(datasets, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list datasets iterate")
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

func (s *SQLiteStore) DeleteDataset(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete dataset %s", id)
	}
	return checkRowsAffected(res, "dataset", id)
}

func (s *SQLiteStore) AppendDatasetRows(ctx context.Context, id, filename string, rows []map[string]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if _, err := s.getDatasetMeta(ctx, id); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM dataset_rows WHERE dataset_id = ?`, id,
	).Scan(&next)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: next position for dataset %s", id)
	}

	for i, row := range rows {
		rowJSON, err := json.Marshal(row)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal dataset row")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO dataset_rows (id, dataset_id, file, position, row) VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), id, filename, next+i, string(rowJSON),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert row into dataset %s", id)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE datasets SET updated_at = ? WHERE id = ?`, time.Now().UTC(), id); err != nil {
		return 0, eris.Wrapf(err, "sqlite: touch dataset %s", id)
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit tx")
	}
	return len(rows), nil
}

// helpers

func (s *SQLiteStore) getDatasetMeta(ctx context.Context, id string) (*model.Dataset, error) {
	var ds model.Dataset
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM datasets WHERE id = ?`, id,
	).Scan(&ds.ID, &ds.Name, &ds.Description, &ds.CreatedAt, &ds.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &model.NotFoundError{Kind: "dataset", ID: id}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get dataset %s", id)
	}
	return &ds, nil
}

func (s *SQLiteStore) loadDatasetRows(ctx context.Context, ds *model.Dataset) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file, row FROM dataset_rows WHERE dataset_id = ? ORDER BY position`,
		ds.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: load rows for dataset %s", ds.ID)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var file, rowJSON string
		if err := rows.Scan(&file, &rowJSON); err != nil {
			return eris.Wrap(err, "sqlite: scan dataset row")
		}
		var row map[string]any
		if err := json.Unmarshal([]byte(rowJSON), &row); err != nil {
			return eris.Wrap(err, "sqlite: unmarshal dataset row")
		}
		ds.Rows = append(ds.Rows, row)
		if file != "" && !seen[file] {
			seen[file] = true
			ds.Files = append(ds.Files, file)
		}
	}
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "sqlite: load rows iterate")
	}
	ds.TotalRows = len(ds.Rows)
	ds.FileCount = len(ds.Files)
	return nil
}

func (s *SQLiteStore) loadDatasetStats(ctx context.Context, ds *model.Dataset) error {
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT NULLIF(file, '')) FROM dataset_rows WHERE dataset_id = ?`,
		ds.ID,
	).Scan(&ds.TotalRows, &ds.FileCount)
	return eris.Wrapf(err, "sqlite: stats for dataset %s", ds.ID)
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return &model.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}
