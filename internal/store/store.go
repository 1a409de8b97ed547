// Package store persists projects, master data, and imported datasets behind
// a driver-neutral interface with SQLite and PostgreSQL implementations.
package store

import (
	"context"

	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

// Store defines the persistence interface for reference data.
type Store interface {
	// Projects
	CreateProject(ctx context.Context, name, description string) (*model.Project, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	DeleteProject(ctx context.Context, id string) error

	// Master data
	AddMasterData(ctx context.Context, projectID string, items []model.MasterDataItem) (int, error)
	ListMasterData(ctx context.Context, projectID string) ([]model.MasterDataItem, error)
	DeleteMasterData(ctx context.Context, projectID string) (int, error)

	// Datasets
	CreateDataset(ctx context.Context, name, description string) (*model.Dataset, error)
	GetDataset(ctx context.Context, id string) (*model.Dataset, error)
	ListDatasets(ctx context.Context, withRows bool) ([]model.Dataset, error)
	DeleteDataset(ctx context.Context, id string) error
	AppendDatasetRows(ctx context.Context, id, filename string, rows []map[string]any) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
