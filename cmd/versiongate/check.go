package main

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/evn/versiongate/internal/appversion"
)

var (
	checkPlatform string
	checkVersion  string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Show the decision the gate would make for a client",
	RunE: func(cmd *cobra.Command, args []string) error {
		if checkVersion == "" {
			return errors.New("--version is required")
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		platform := appversion.ParsePlatform(checkPlatform)
		var snapshot *appversion.Snapshot
		if a.engine.TracksLatest(platform) {
			if snapshot, err = a.store.Get(cmd.Context(), a.cfg.AppVersion.CacheKey); err != nil {
				return err
			}
		}

		out := struct {
			Platform appversion.Platform  `json:"platform"`
			Snapshot *appversion.Snapshot `json:"snapshot,omitempty"`
			Decision appversion.Decision  `json:"decision"`
		}{
			Platform: platform,
			Snapshot: snapshot,
			Decision: a.engine.Decide(platform, checkVersion, snapshot, time.Now()),
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkPlatform, "platform", "ios", "client platform (ios, android, web)")
	checkCmd.Flags().StringVar(&checkVersion, "version", "", "client app version")
}
