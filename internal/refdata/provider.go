package refdata

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

// Scope selects which slice of the reference pool to fetch.
type Scope struct {
	// ProjectID selects master data records. Empty skips master data.
	ProjectID string
	// DatasetIDs selects specific datasets. Empty with IncludeDatasets set
	// fetches every dataset.
	DatasetIDs      []string
	IncludeDatasets bool
}

// Provider supplies the reference pool the matching engine and bulk resolver
// operate on. Implementations are read-only.
type Provider interface {
	Fetch(ctx context.Context, scope Scope) ([]model.ReferenceItem, error)
}

// storeReader is the slice of the persistence layer the provider needs.
type storeReader interface {
	ListMasterData(ctx context.Context, projectID string) ([]model.MasterDataItem, error)
	GetDataset(ctx context.Context, id string) (*model.Dataset, error)
	ListDatasets(ctx context.Context, withRows bool) ([]model.Dataset, error)
}

// StoreProvider reads master data and dataset rows from the relational store
// and presents them as one provenance-tagged pool.
type StoreProvider struct {
	store storeReader
}

// NewStoreProvider creates a Provider backed by the given store.
func NewStoreProvider(store storeReader) *StoreProvider {
	return &StoreProvider{store: store}
}

// Fetch returns master items first, then dataset rows, preserving store
// order within each group. Order matters: the bulk resolver's first-seen
// rule depends on it.
func (p *StoreProvider) Fetch(ctx context.Context, scope Scope) ([]model.ReferenceItem, error) {
	var pool []model.ReferenceItem

	if scope.ProjectID != "" {
		masters, err := p.store.ListMasterData(ctx, scope.ProjectID)
		if err != nil {
			return nil, eris.Wrap(err, "refdata: list master data")
		}
		for _, m := range masters {
			pool = append(pool, masterItem(m))
		}
	}

	if len(scope.DatasetIDs) > 0 {
		for _, id := range scope.DatasetIDs {
			ds, err := p.store.GetDataset(ctx, id)
			if err != nil {
				return nil, eris.Wrapf(err, "refdata: get dataset %s", id)
			}
			pool = appendDatasetRows(pool, ds)
		}
		return pool, nil
	}

	if scope.IncludeDatasets {
		datasets, err := p.store.ListDatasets(ctx, true)
		if err != nil {
			return nil, eris.Wrap(err, "refdata: list datasets")
		}
		for i := range datasets {
			pool = appendDatasetRows(pool, &datasets[i])
		}
	}

	return pool, nil
}

func masterItem(m model.MasterDataItem) model.ReferenceItem {
	return model.ReferenceItem{
		ID:              "master_" + m.ID,
		ItemDescription: m.ItemDescription,
		SerialNumber:    m.SerialNumber,
		TagNumber:       m.TagNumber,
		Quantity:        m.Quantity,
		Status:          m.Status,
		Source:          model.SourceMaster,
		CreatedAt:       m.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func appendDatasetRows(pool []model.ReferenceItem, ds *model.Dataset) []model.ReferenceItem {
	for _, row := range ds.Rows {
		item := ItemFromRow(row, ds.Name)
		item.CreatedAt = ds.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		pool = append(pool, item)
	}
	return pool
}

// PoolFromRows builds reference items directly from caller-supplied dataset
// rows, for callers that pass reference data inline rather than by id.
func PoolFromRows(rows []map[string]any, collection string) []model.ReferenceItem {
	items := make([]model.ReferenceItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, ItemFromRow(row, collection))
	}
	return items
}
