package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bft-labs/tracescope/plugins/indexcleanup"
)

func newPruneCmd(o *rootOptions) *cobra.Command {
	cfg := indexcleanup.DefaultConfig()
	var maxSize string

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove stale saved frame indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxSize != "" {
				n, err := humanize.ParseBytes(maxSize)
				if err != nil {
					return fmt.Errorf("max-size: %w", err)
				}
				cfg.HighWatermark = int64(n)
				cfg.LowWatermark = int64(n)
			}

			res, err := indexcleanup.Prune(cmd.Context(), o.cfg.StateDir, "", cfg, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d indexes (%s), %s remaining in %s\n",
				res.Removed, humanize.IBytes(uint64(res.Freed)), humanize.IBytes(uint64(res.Remaining)), o.cfg.StateDir)
			return nil
		},
	}
	cmd.Flags().DurationVar(&cfg.MaxAge, "max-age", cfg.MaxAge, "remove indexes not rewritten for this long (0 keeps all)")
	cmd.Flags().StringVar(&maxSize, "max-size", "", "shrink the index directory to this size, e.g. 64MiB")
	return cmd
}
