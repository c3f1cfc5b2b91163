package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evn/versiongate/internal/appversion"
)

var refreshStrict bool

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the latest store release once and save it",
	Long: "refresh looks up the latest release in the store catalog and replaces the " +
		"saved snapshot. A failed lookup keeps the previous snapshot and is not an " +
		"error unless --strict is given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.refresher.Refresh(cmd.Context())
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		if refreshStrict && result.Outcome != appversion.OutcomeUpdated {
			return fmt.Errorf("snapshot not updated: %s", result.Outcome)
		}
		return nil
	},
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshStrict, "strict", false, "exit non-zero when the snapshot was not updated")
}
