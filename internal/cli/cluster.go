package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	clusterWindow time.Duration
	trendingLimit int
	watchInterval time.Duration
	metricsAddr   string
	fromBoard     bool
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Group recent claims into clusters and track trending narratives",
}

var clusterRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Recluster recent claims and persist the snapshot",
	Long: `Refresh clusters the embeddings of claims created within --window using
density-based clustering. Each cluster gets a keyword label, its claims are
assigned to it and clusters at or above the trending threshold are marked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			clusters, err := a.pipeline.RefreshClusters(ctx, window(a))
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ %d clusters\n", len(clusters))
			return printJSON(clusters)
		})
	},
}

var clusterTrendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "List trending clusters, largest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			if fromBoard {
				if a.board == nil {
					return errors.New("redis trend board is not enabled (redis.enabled)")
				}
				clusters, err := a.board.Top(ctx, trendingLimit)
				if err != nil {
					return err
				}
				return printJSON(clusters)
			}
			clusters, err := a.pipeline.Trending(ctx, trendingLimit)
			if err != nil {
				return err
			}
			return printJSON(clusters)
		})
	},
}

var clusterShowCmd = &cobra.Command{
	Use:   "show <cluster-id>",
	Short: "Show a cluster with its member claims",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			d, err := a.pipeline.ClusterDetail(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(d)
		})
	},
}

var clusterWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Periodically recluster and reconcile until interrupted",
	Long: `Watch runs reconcile, cluster refresh and cache pruning on a fixed interval and serves
Prometheus metrics on --metrics-addr. Stop it with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runWatch)
	},
}

func init() {
	rootCmd.AddCommand(clusterCmd)
	clusterCmd.AddCommand(clusterRefreshCmd, clusterTrendingCmd, clusterShowCmd, clusterWatchCmd)

	clusterCmd.PersistentFlags().DurationVar(&clusterWindow, "window", 0, "claims created within this window are clustered (default clustering.window_hours)")
	clusterTrendingCmd.Flags().IntVar(&trendingLimit, "limit", 10, "maximum clusters to return")
	clusterTrendingCmd.Flags().BoolVar(&fromBoard, "board", false, "read from the Redis trend board instead of the store")
	clusterWatchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "refresh interval (default clustering.interval_minutes)")
	clusterWatchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "address for the /metrics endpoint; empty disables it")
}

func window(a *app) time.Duration {
	if clusterWindow > 0 {
		return clusterWindow
	}
	return time.Duration(a.cfg.Clustering.WindowHours) * time.Hour
}

func runWatch(ctx context.Context, a *app) error {
	interval := watchInterval
	if interval <= 0 {
		interval = time.Duration(a.cfg.Clustering.IntervalMinutes) * time.Minute
	}
	stale := time.Duration(a.cfg.Worker.StaleAfterMinute) * time.Minute

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		a.logger.Info("serving metrics", "addr", metricsAddr)
	}

	tick := func() {
		if res, err := a.pipeline.Reconcile(ctx, stale); err != nil {
			a.logger.Warn("reconcile", "error", err)
		} else if res.Linked+res.Reset > 0 {
			a.logger.Info("reconciled claims", "linked", res.Linked, "reset", res.Reset)
		}
		clusters, err := a.pipeline.RefreshClusters(ctx, window(a))
		if err != nil {
			a.logger.Warn("cluster refresh", "error", err)
			return
		}
		a.logger.Info("clusters refreshed", "clusters", len(clusters))
		if a.cache != nil {
			if n, err := a.cache.Prune(); err != nil {
				a.logger.Warn("cache prune", "error", err)
			} else if n > 0 {
				a.logger.Debug("pruned cache entries", "removed", n)
			}
		}
	}

	a.logger.Info("watching", "interval", interval)
	tick()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("stopping watch")
			return nil
		case <-ticker.C:
			tick()
		}
	}
}
