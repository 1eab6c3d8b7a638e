package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/agentic-research/resfs/internal/provider/sqlitedb"
	"github.com/agentic-research/resfs/internal/resources"
)

var packCmd = &cobra.Command{
	Use:   "pack <output.db>",
	Short: "Pack the selected source into a SQLite bundle",
	Long: `Pack copies every package and resource of the selected source into a
SQLite bundle that a manifest can serve with kind = "sqlite". An existing
file at the output path is replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		output := args[0]
		_, p, closer, err := openSource()
		if err != nil {
			return err
		}
		defer func() {
			if cerr := closer.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()

		start := time.Now()
		logger.Info("packing", "package", p.Package(), "output", output)
		stats, err := sqlitedb.Pack(cmd.Context(), output, p.Package(), resources.NewDirectoryNode(p))
		if err != nil {
			return fmt.Errorf("pack %s: %w", output, err)
		}
		logger.Info("packed",
			"packages", stats.Packages,
			"resources", stats.Resources,
			"size", humanize.Bytes(uint64(stats.Bytes)),
			"took", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(packCmd)
}
