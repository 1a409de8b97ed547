package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gloirembonyi/excel-data-extracter/internal/fetcher"
	"github.com/gloirembonyi/excel-data-extracter/internal/model"
	"github.com/gloirembonyi/excel-data-extracter/internal/refdata"
)

var (
	importDatasetID   string
	importDatasetName string
	importProject     string
)

var importCmd = &cobra.Command{
	Use:   "import <files...>",
	Short: "Import spreadsheets into a dataset or a project's master data",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if importProject != "" {
			return importMasterData(cmd, args)
		}
		return importDataset(cmd, args)
	},
}

func importDataset(cmd *cobra.Command, files []string) error {
	ctx := cmd.Context()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	datasetID := importDatasetID
	if datasetID == "" {
		name := importDatasetName
		if name == "" {
			name = filepath.Base(files[0])
		}
		ds, err := st.CreateDataset(ctx, name, "")
		if err != nil {
			return err
		}
		datasetID = ds.ID
		fmt.Printf("created dataset %s (%s)\n", ds.Name, ds.ID)
	}

	total := 0
	for _, path := range files {
		rows, err := rowsFromFile(path)
		if err != nil {
			return err
		}
		n, err := st.AppendDatasetRows(ctx, datasetID, filepath.Base(path), rows)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d rows\n", path, n)
		total += n
	}
	fmt.Printf("imported %d rows into dataset %s\n", total, datasetID)
	return nil
}

func importMasterData(cmd *cobra.Command, files []string) error {
	ctx := cmd.Context()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	var items []model.MasterDataItem
	for _, path := range files {
		rows, err := rowsFromFile(path)
		if err != nil {
			return err
		}
		for _, row := range rows {
			items = append(items, refdata.MasterItemFromRow(row))
		}
	}

	n, err := st.AddMasterData(ctx, importProject, items)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d master records into project %s\n", n, importProject)
	return nil
}

func rowsFromFile(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return fetcher.Rows(path, data, fetcher.Options{TrimSpace: true})
}

func init() {
	importCmd.Flags().StringVar(&importDatasetID, "dataset", "", "append to an existing dataset id")
	importCmd.Flags().StringVar(&importDatasetName, "name", "", "name for a newly created dataset")
	importCmd.Flags().StringVar(&importProject, "project", "", "import as master data into this project instead")
	rootCmd.AddCommand(importCmd)
}
