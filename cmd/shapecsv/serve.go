package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shapestone/shape-csvchunk/internal/ingest"
	"github.com/shapestone/shape-csvchunk/internal/metrics"
	"github.com/shapestone/shape-csvchunk/internal/server"
	"github.com/shapestone/shape-csvchunk/internal/store"
	"github.com/shapestone/shape-csvchunk/internal/watch"
)

// services is what serve and watch share: the store, the collector and the
// ingest service.
type services struct {
	store     store.Store
	collector *metrics.Collector
	service   *ingest.Service
	retention *store.RetentionScheduler
}

func (a *app) newServices(ctx context.Context) (*services, error) {
	opts, err := a.cfg.ParserOptions()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, a.cfg.Store)
	if err != nil {
		return nil, err
	}
	collector := metrics.NewCollector(a.cfg.Metrics, nil)
	svc, err := ingest.NewService(st, collector, ingest.Settings{
		Options:    opts,
		ChunkSize:  a.cfg.Reader.ChunkSize,
		HasHeaders: a.cfg.Reader.HasHeaders,
	})
	if err != nil {
		if st != nil {
			st.Close()
		}
		return nil, err
	}

	rt := &services{store: st, collector: collector, service: svc}
	if st != nil {
		rt.retention = store.NewRetentionScheduler(st, a.cfg.Store.RetentionDays, a.cfg.Store.PruneSchedule, nil)
		if err := rt.retention.Start(ctx); err != nil {
			st.Close()
			return nil, err
		}
	}
	slog.Info("services ready", "store", a.cfg.Store.Driver, "metrics", a.cfg.Metrics.Enabled)
	return rt, nil
}

func (rt *services) Close() {
	if rt.retention != nil {
		rt.retention.Stop()
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newServeCmd(a *app) *cobra.Command {
	var (
		addr     string
		watchDir string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API. With --watch, files dropped into the directory are
ingested as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.ListenAddress = addr
			}
			ctx, stop := signalContext()
			defer stop()

			rt, err := a.newServices(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			var w *watch.Watcher
			if watchDir != "" {
				wcfg := a.cfg.Watch
				wcfg.Dir = watchDir
				if w, err = watch.New(wcfg, rt.service, nil); err != nil {
					return err
				}
			}

			srv := server.New(rt.service, rt.collector, a.cfg.Server, a.cfg.Metrics.Path)
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(ctx) })
			if w != nil {
				g.Go(func() error { return w.Run(ctx, false) })
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.listen_address)")
	cmd.Flags().StringVar(&watchDir, "watch", "", "also ingest files written to this directory")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		dir      string
		existing bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Ingest CSV files as they appear in a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wcfg := a.cfg.Watch
			if dir != "" {
				wcfg.Dir = dir
			}
			ctx, stop := signalContext()
			defer stop()

			rt, err := a.newServices(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			w, err := watch.New(wcfg, rt.service, nil)
			if err != nil {
				return err
			}
			return w.Run(ctx, existing)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory to watch (overrides watch.dir)")
	cmd.Flags().BoolVar(&existing, "existing", false, "ingest files already in the directory")
	return cmd
}
