package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gloirembonyi/excel-data-extracter/internal/fetcher"
	"github.com/gloirembonyi/excel-data-extracter/internal/matching"
	"github.com/gloirembonyi/excel-data-extracter/internal/model"
	"github.com/gloirembonyi/excel-data-extracter/internal/refdata"
)

var (
	matchProject         string
	matchThreshold       float64
	matchIncludeDatasets bool
	matchDatasetIDs      []string
)

var matchCmd = &cobra.Command{
	Use:   "match <records.xlsx|csv>",
	Short: "Match extracted records against a project's reference data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if matchProject == "" {
			return eris.New("--project is required")
		}

		records, err := recordsFromFile(args[0])
		if err != nil {
			return err
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		pool, err := refdata.NewStoreProvider(st).Fetch(cmd.Context(), refdata.Scope{
			ProjectID:       matchProject,
			DatasetIDs:      matchDatasetIDs,
			IncludeDatasets: matchIncludeDatasets,
		})
		if err != nil {
			return err
		}

		threshold := matchThreshold
		if threshold == 0 {
			threshold = cfg.Match.Threshold
		}

		matches := matching.NewEngine().Match(records, pool, threshold)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RECORD\tSERIAL\tTAG\tBEST MATCH\tTIER\tCONFIDENCE\tCANDIDATES")
		matched := 0
		for i, candidates := range matches {
			rec := records[i]
			if len(candidates) == 0 {
				fmt.Fprintf(w, "%s\t%s\t%s\t-\t-\t-\t0\n", rec.ItemDescription, rec.SerialNumber, rec.TagNumber)
				continue
			}
			matched++
			best := candidates[0]
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
				rec.ItemDescription, rec.SerialNumber, rec.TagNumber,
				best.Item.ItemDescription, best.Tier, best.Confidence, len(candidates))
		}
		w.Flush()

		fmt.Printf("\n%d of %d records matched against %d reference items (threshold %.2f)\n",
			matched, len(records), len(pool), threshold)
		return nil
	},
}

// recordsFromFile parses a spreadsheet of extracted records through the alias
// tables.
func recordsFromFile(path string) ([]model.ExtractedRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	rows, err := fetcher.Rows(path, data, fetcher.Options{TrimSpace: true})
	if err != nil {
		return nil, err
	}

	records := make([]model.ExtractedRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, refdata.RecordFromRow(row))
	}
	if len(records) == 0 {
		return nil, eris.Errorf("no records in %s", path)
	}
	return records, nil
}

func init() {
	matchCmd.Flags().StringVar(&matchProject, "project", "", "project id holding the master data")
	matchCmd.Flags().Float64Var(&matchThreshold, "threshold", 0, "confidence threshold 0..1 (default from config)")
	matchCmd.Flags().BoolVar(&matchIncludeDatasets, "include-datasets", false, "also match against all datasets")
	matchCmd.Flags().StringSliceVar(&matchDatasetIDs, "dataset", nil, "dataset ids to include")
	rootCmd.AddCommand(matchCmd)
}
