package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/winfsp/cgofuse/fuse"

	"github.com/agentic-research/resfs/internal/fusefs"
	"github.com/agentic-research/resfs/internal/resources"
)

func init() {
	rootCmd.AddCommand(mountCmd)
}

var mountCmd = &cobra.Command{
	Use:   "mount <mountpoint>",
	Short: "Mount the selected source read-only through FUSE",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mountPoint := args[0]
		return withRoot(func(root resources.Traversable) error {
			host := fuse.NewFileSystemHost(fusefs.NewResourceFS(root))

			logger.Info("mounting", "mountpoint", mountPoint, "package", root.Name())

			// Mount blocks until the filesystem is unmounted.
			// uid/gid make the mount owned by the caller (needed for fuse-t/NFS).
			opts := []string{
				"-o", "ro",
				"-o", fmt.Sprintf("uid=%d", os.Getuid()),
				"-o", fmt.Sprintf("gid=%d", os.Getgid()),
			}
			if !host.Mount(mountPoint, opts) {
				return fmt.Errorf("mount %s failed", mountPoint)
			}
			return nil
		})
	},
}
