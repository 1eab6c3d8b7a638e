package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentic-research/resfs/internal/nfsmount"
	"github.com/agentic-research/resfs/internal/provider"
	"github.com/agentic-research/resfs/internal/resources"
)

var (
	servePort  int
	serveMount string
)

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "NFS port (default from the manifest, else ephemeral)")
	serveCmd.Flags().StringVar(&serveMount, "mount", "", "Mount the export at this path once the server is up (needs sudo)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Export the selected source read-only over NFS",
	Long: `Serve exports the selected source over NFSv3 on localhost until
interrupted. SIGHUP reloads the manifest and swaps the backend in place, so
clients keep their mount while the content changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadManifest()
		if err != nil {
			return err
		}
		port, mountpoint := 0, ""
		if m.NFS != nil {
			port, mountpoint = m.NFS.Port, m.NFS.Mountpoint
		}
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		if serveMount != "" {
			mountpoint = serveMount
		}

		_, p, closer, err := openSource()
		if err != nil {
			return err
		}
		live := newLiveSource(p, closer, func() (resources.MinimalProvider, io.Closer, error) {
			_, next, c, err := openSource()
			return next, c, err
		})
		defer live.close()

		srv, err := nfsmount.NewServer(nfsmount.NewTreeFS(resources.NewDirectoryNode(live.hot)), port, logger)
		if err != nil {
			return err
		}
		defer func() { _ = srv.Close() }()
		logger.Info("nfs server started", "port", srv.Port(), "package", p.Package())

		if mountpoint != "" {
			if err := nfsmount.Mount(srv.Port(), mountpoint); err != nil {
				return err
			}
			logger.Info("mounted", "mountpoint", mountpoint)
			defer func() {
				if err := nfsmount.Unmount(mountpoint); err != nil {
					logger.Error("unmount failed", "mountpoint", mountpoint, "error", err)
				}
			}()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		live.reloadOn(ctx, syscall.SIGHUP)
		<-ctx.Done()
		logger.Info("shutting down")
		return nil
	},
}

var errSourceClosed = errors.New("source closed")

// liveSource owns the backend behind a HotSwap and the handle that releases it.
type liveSource struct {
	hot  *provider.HotSwap
	open func() (resources.MinimalProvider, io.Closer, error)
	wg   sync.WaitGroup

	mu     sync.Mutex
	closer io.Closer
	closed bool
}

func newLiveSource(p resources.MinimalProvider, closer io.Closer, open func() (resources.MinimalProvider, io.Closer, error)) *liveSource {
	return &liveSource{hot: provider.NewHotSwap(p), open: open, closer: closer}
}

// reload reopens the source and swaps it in. On failure the current
// backend stays in place. After close, the reopened backend is released
// and errSourceClosed is returned.
func (l *liveSource) reload() error {
	next, closer, err := l.open()
	if err != nil {
		return err
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		_ = closer.Close()
		return errSourceClosed
	}
	l.hot.Swap(next)
	prev := l.closer
	l.closer = closer
	l.mu.Unlock()
	return prev.Close()
}

// reloadOn reloads on every sig until ctx is done. close waits for it.
func (l *liveSource) reloadOn(ctx context.Context, sig os.Signal) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sig)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				if err := l.reload(); err != nil {
					logger.Error("reload failed, keeping current source", "error", err)
					continue
				}
				logger.Info("source reloaded", "package", l.hot.Package())
			}
		}
	}()
}

// close releases the current backend once. The reload goroutine must be
// stopped through its context first.
func (l *liveSource) close() {
	l.wg.Wait()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	if err := l.closer.Close(); err != nil {
		logger.Error("close source", "error", err)
	}
}
