package cmd

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentic-research/resfs/internal/resources"
)

var (
	catEncoding string
	catNewlines bool
	catReplace  bool
)

func init() {
	catCmd.Flags().StringVarP(&catEncoding, "encoding", "e", "", "Decode as text in this encoding instead of copying raw bytes")
	catCmd.Flags().BoolVar(&catNewlines, "universal-newlines", false, "Translate \\r\\n and \\r to \\n (implies text mode)")
	catCmd.Flags().BoolVar(&catReplace, "replace-invalid", false, "Decode malformed text to U+FFFD instead of failing (implies text mode)")

	rootCmd.AddCommand(lsCmd, catCmd, treeCmd, pathCmd)
}

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List the entries of a package",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoot(func(root resources.Traversable) error {
			node, err := resolveArg(root, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if node.IsFile() {
				_, err := fmt.Fprintln(out, node.Name())
				return err
			}
			for child, err := range node.Iterdir() {
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintln(out, entryName(child)); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var catCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print a resource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoot(func(root resources.Traversable) error {
			node, err := resources.Resolve(root, args[0])
			if err != nil {
				return err
			}

			mode := resources.ModeBinary
			var opts []resources.TextOption
			if catEncoding != "" || catNewlines || catReplace {
				mode = resources.ModeText
				opts = append(opts, resources.WithEncoding(catEncoding))
				if catNewlines {
					opts = append(opts, resources.WithUniversalNewlines())
				}
				if catReplace {
					opts = append(opts, resources.WithReplacement())
				}
			}
			rc, err := node.Open(mode, opts...)
			if err != nil {
				return err
			}
			defer func() { _ = rc.Close() }()
			_, err = io.Copy(cmd.OutOrStdout(), rc)
			return err
		})
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree [path]",
	Short: "Print the package tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoot(func(root resources.Traversable) error {
			start, err := resolveArg(root, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return resources.Walk(start, func(p string, node resources.Traversable, err error) error {
				if err != nil {
					return err
				}
				if p == "." {
					_, err := fmt.Fprintln(out, entryName(node))
					return err
				}
				depth := strings.Count(p, "/") + 1
				_, err = fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", depth), entryName(node))
				return err
			})
		})
	},
}

var pathCmd = &cobra.Command{
	Use:   "path <resource>",
	Short: "Print the on-disk path of a resource",
	Long: `Print the on-disk path of a resource. Only directory sources have one;
other sources fail with "no filesystem path".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoot(func(root resources.Traversable) error {
			dir, name := path.Split(strings.Trim(args[0], "/"))
			parent, err := resources.Resolve(root, dir)
			if err != nil {
				return err
			}
			pkg, ok := parent.(*resources.DirectoryNode)
			if !ok {
				return fmt.Errorf("%s: %w", dir, resources.ErrNotADirectory)
			}
			p, err := resources.NewProviderReader(pkg.Provider()).ResourcePath(name)
			if errors.Is(err, resources.ErrNoFilesystemPath) {
				return fmt.Errorf("%s: resource has no filesystem path", args[0])
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), p)
			return err
		})
	},
}

func resolveArg(root resources.Traversable, args []string) (resources.Traversable, error) {
	if len(args) == 0 {
		return root, nil
	}
	return resources.Resolve(root, args[0])
}

func entryName(n resources.Traversable) string {
	if n.IsDir() {
		return n.Name() + "/"
	}
	return n.Name()
}
