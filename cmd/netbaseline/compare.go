package main

import (
	"encoding/json"
	"fmt"
	"os"

	"netbaseline/internal/types"

	"github.com/spf13/cobra"
)

func newCompareCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <scan.json>",
		Short: "Run one baseline comparison for a scan result file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read scan file: %w", err)
			}
			var input types.CompareInput
			if err := json.Unmarshal(raw, &input); err != nil {
				return fmt.Errorf("failed to decode scan file: %w", err)
			}

			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.svc.CompareBaselineScan(cmd.Context(), &input)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
