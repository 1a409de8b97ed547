package refdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

type fakeStore struct {
	masters  []model.MasterDataItem
	datasets map[string]*model.Dataset
	order    []string
}

func (f *fakeStore) ListMasterData(ctx context.Context, projectID string) ([]model.MasterDataItem, error) {
	return f.masters, nil
}

func (f *fakeStore) GetDataset(ctx context.Context, id string) (*model.Dataset, error) {
	ds, ok := f.datasets[id]
	if !ok {
		return nil, &model.NotFoundError{Kind: "dataset", ID: id}
	}
	return ds, nil
}

func (f *fakeStore) ListDatasets(ctx context.Context, withRows bool) ([]model.Dataset, error) {
	var out []model.Dataset
	for _, id := range f.order {
		out = append(out, *f.datasets[id])
	}
	return out, nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		masters: []model.MasterDataItem{{
			ID:              "m1",
			ProjectID:       "p1",
			ItemDescription: "Master Screen",
			SerialNumber:    "SER-M",
			TagNumber:       "TAG-M",
			Quantity:        1,
			Status:          "active",
			CreatedAt:       time.Now().UTC(),
		}},
		datasets: map[string]*model.Dataset{
			"d1": {
				ID:   "d1",
				Name: "stock",
				Rows: []map[string]any{{
					"Item_Description": "Dataset CPU",
					"Serial_Number":    "SER-D",
					"Tag_Number":       "TAG-D",
				}},
				CreatedAt: time.Now().UTC(),
			},
		},
		order: []string{"d1"},
	}
}

func TestStoreProvider_MastersFirst(t *testing.T) {
	provider := NewStoreProvider(newFakeStore())

	pool, err := provider.Fetch(context.Background(), Scope{ProjectID: "p1", IncludeDatasets: true})
	require.NoError(t, err)
	require.Len(t, pool, 2)

	assert.Equal(t, model.SourceMaster, pool[0].Source)
	assert.Equal(t, "master_m1", pool[0].ID)
	assert.Equal(t, "Master Screen", pool[0].ItemDescription)

	assert.Equal(t, model.SourceDataset, pool[1].Source)
	assert.Equal(t, "Dataset CPU", pool[1].ItemDescription)
	assert.Equal(t, "stock", pool[1].Collection)
}

func TestStoreProvider_SpecificDatasets(t *testing.T) {
	provider := NewStoreProvider(newFakeStore())

	pool, err := provider.Fetch(context.Background(), Scope{DatasetIDs: []string{"d1"}})
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, model.SourceDataset, pool[0].Source)
}

func TestStoreProvider_UnknownDataset(t *testing.T) {
	provider := NewStoreProvider(newFakeStore())

	_, err := provider.Fetch(context.Background(), Scope{DatasetIDs: []string{"nope"}})
	require.Error(t, err)
}

func TestStoreProvider_EmptyScope(t *testing.T) {
	provider := NewStoreProvider(newFakeStore())

	pool, err := provider.Fetch(context.Background(), Scope{})
	require.NoError(t, err)
	assert.Empty(t, pool)
}

func TestPoolFromRows(t *testing.T) {
	pool := PoolFromRows([]map[string]any{
		{"Item_Description": "A", "Serial_Number": "S1", "Tag_Number": "T1"},
		{"Item_Description": "B", "Serial_Number": "S2", "Tag_Number": "T2"},
	}, "inline")

	require.Len(t, pool, 2)
	assert.Equal(t, "inline", pool[0].Collection)
	assert.Equal(t, model.SourceDataset, pool[1].Source)
}
