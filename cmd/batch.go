package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gloirembonyi/excel-data-extracter/internal/batch"
	"github.com/gloirembonyi/excel-data-extracter/internal/export"
	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

var (
	batchConcurrency int
	batchOut         string
	batchLayout      string
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
}

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Process a directory of tag photos and print per-image results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		images, err := loadImages(args[0])
		if err != nil {
			return err
		}

		processor, err := newProcessor()
		if err != nil {
			return err
		}
		orch := newOrchestrator(processor)

		jobID, err := orch.Submit(cmd.Context(), images, batchConcurrency)
		if err != nil {
			return err
		}
		zap.L().Info("batch submitted", zap.String("job_id", jobID), zap.Int("images", len(images)))

		if err := orch.Wait(cmd.Context(), jobID); err != nil {
			return err
		}
		job, err := orch.Results(jobID)
		if err != nil {
			return err
		}

		printResults(job)

		if batchOut != "" {
			if err := exportResults(job, batchOut, batchLayout); err != nil {
				return err
			}
			fmt.Printf("\nwrote %s\n", batchOut)
		}

		if job.Status == model.StatusFailed {
			return eris.Errorf("batch %s failed: %d/%d images errored", jobID, job.Failed, job.TotalItems)
		}
		return nil
	},
}

func loadImages(dir string) ([]batch.ImageInput, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "read directory %s", dir)
	}

	var images []batch.ImageInput
	for _, entry := range entries {
		if entry.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "read image %s", path)
		}
		images = append(images, batch.ImageInput{Filename: entry.Name(), Data: data})
	}
	if len(images) == 0 {
		return nil, eris.Errorf("no images found in %s", dir)
	}
	return images, nil
}

func printResults(job model.BatchJob) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "IMAGE\tSTATUS\tOUTCOME\tRECORDS\tRETRIES\tERROR")
	for _, res := range job.Results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			res.Filename, res.Status, res.Outcome, len(res.Records), res.RetryCount, res.ErrorMessage)
	}
	w.Flush()

	fmt.Printf("\n%s: %d completed, %d failed of %d\n",
		job.Status, job.Completed, job.Failed, job.TotalItems)
}

func exportResults(job model.BatchJob, path, layout string) error {
	var records []model.ExtractedRecord
	for _, res := range job.Results {
		records = append(records, res.Records...)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	return export.Records(f, records, export.Layout(layout))
}

func init() {
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max in-flight images (default from config)")
	batchCmd.Flags().StringVar(&batchOut, "out", "", "write extracted records to an XLSX file")
	batchCmd.Flags().StringVar(&batchLayout, "layout", "standard", "export layout: standard or screen_cpu")
	rootCmd.AddCommand(batchCmd)
}
