package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gloirembonyi/excel-data-extracter/internal/export"
	"github.com/gloirembonyi/excel-data-extracter/internal/matching"
	"github.com/gloirembonyi/excel-data-extracter/internal/model"
	"github.com/gloirembonyi/excel-data-extracter/internal/refdata"
)

var (
	searchProject         string
	searchDatasetIDs      []string
	searchIncludeDatasets bool
	searchTermsFile       string
	searchCaseSensitive   bool
	searchItemType        string
	searchStatus          string
	searchOut             string
)

var bulksearchCmd = &cobra.Command{
	Use:   "bulksearch [terms...]",
	Short: "Resolve tag or serial numbers to reference items, one result per term",
	RunE: func(cmd *cobra.Command, args []string) error {
		terms := args
		if searchTermsFile != "" {
			fileTerms, err := termsFromFile(searchTermsFile)
			if err != nil {
				return err
			}
			terms = append(terms, fileTerms...)
		}
		if len(terms) == 0 {
			return eris.New("no search terms given")
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		pool, err := refdata.NewStoreProvider(st).Fetch(cmd.Context(), refdata.Scope{
			ProjectID:       searchProject,
			DatasetIDs:      searchDatasetIDs,
			IncludeDatasets: searchIncludeDatasets,
		})
		if err != nil {
			return err
		}
		if len(pool) == 0 {
			return eris.New("no reference data in scope; use --project or --dataset")
		}

		results := matching.NewResolver().Resolve(terms, pool, matching.ResolveOptions{
			CaseSensitive: searchCaseSensitive,
			ItemType:      searchItemType,
			Status:        searchStatus,
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TERM\tDESCRIPTION\tSERIAL\tTAG\tSTATUS\tSOURCE")
		found := 0
		for i, item := range results {
			if item.Source != model.SourceNone {
				found++
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				terms[i], item.ItemDescription, item.SerialNumber, item.TagNumber, item.Status, item.Source)
		}
		w.Flush()
		fmt.Printf("\n%d found, %d not found of %d terms\n", found, len(terms)-found, len(terms))

		if searchOut != "" {
			f, err := os.Create(searchOut)
			if err != nil {
				return eris.Wrapf(err, "create %s", searchOut)
			}
			defer f.Close()
			if err := export.SearchResults(f, terms, results); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", searchOut)
		}
		return nil
	},
}

func termsFromFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var terms []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if t := strings.TrimSpace(scanner.Text()); t != "" {
			terms = append(terms, t)
		}
	}
	return terms, eris.Wrapf(scanner.Err(), "read %s", path)
}

func init() {
	bulksearchCmd.Flags().StringVar(&searchProject, "project", "", "project id holding the master data")
	bulksearchCmd.Flags().StringSliceVar(&searchDatasetIDs, "dataset", nil, "dataset ids to search")
	bulksearchCmd.Flags().BoolVar(&searchIncludeDatasets, "include-datasets", false, "search all datasets")
	bulksearchCmd.Flags().StringVar(&searchTermsFile, "terms-file", "", "file with one search term per line")
	bulksearchCmd.Flags().BoolVar(&searchCaseSensitive, "case-sensitive", false, "match identifiers case-sensitively")
	bulksearchCmd.Flags().StringVar(&searchItemType, "item-type", "", "restrict to items whose description contains this")
	bulksearchCmd.Flags().StringVar(&searchStatus, "status", "", "restrict to items with this status")
	bulksearchCmd.Flags().StringVar(&searchOut, "out", "", "write results to an XLSX file")
	rootCmd.AddCommand(bulksearchCmd)
}
