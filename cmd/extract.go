package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

var extractCmd = &cobra.Command{
	Use:   "extract <image>",
	Short: "Extract inventory records from a single tag photo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		processor, err := newProcessor()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read image %s", args[0])
		}

		res := processor.Process(cmd.Context(), data, args[0], "single_"+uuid.NewString())

		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal result")
		}
		fmt.Println(string(out))

		if res.Status != model.StatusCompleted {
			return eris.Errorf("extraction failed: %s", res.ErrorMessage)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
