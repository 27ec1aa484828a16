// Package trendboard mirrors trending clusters and raised alerts into Redis so
// dashboards can read them without touching the record store.
package trendboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ppiankov/verifact/internal/model"
)

// clusterTTL bounds how long a cluster snapshot survives without a refresh
const clusterTTL = 48 * time.Hour

// NewClient creates a Redis client from configuration
func NewClient(cfg model.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Board is the Redis-backed trend board
type Board struct {
	rdb         *redis.Client
	trendingKey string
	alertsKey   string
	alertsCap   int64
	logger      *slog.Logger
}

// New creates a board on rdb using the key layout from cfg
func New(rdb *redis.Client, cfg model.RedisConfig, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	capacity := cfg.AlertsCap
	if capacity <= 0 {
		capacity = 500
	}
	return &Board{
		rdb:         rdb,
		trendingKey: cfg.TrendingKey,
		alertsKey:   cfg.AlertsKey,
		alertsCap:   capacity,
		logger:      logger.With("component", "trendboard"),
	}
}

func (b *Board) clusterKey(id string) string {
	return fmt.Sprintf("%s:cluster:%s", b.trendingKey, id)
}

// PublishTrending replaces the board with the given clusters, scored by trend score.
// Clusters are snapshots, so the previous run's members are dropped.
func (b *Board) PublishTrending(ctx context.Context, clusters []model.Cluster) error {
	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, b.trendingKey)
		for _, c := range clusters {
			data, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("encode cluster %s: %w", c.ClusterID, err)
			}
			pipe.Set(ctx, b.clusterKey(c.ClusterID), data, clusterTTL)
			pipe.ZAdd(ctx, b.trendingKey, redis.Z{Score: c.TrendScore, Member: c.ClusterID})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish trending: %w", err)
	}
	b.logger.Debug("trend board updated", "clusters", len(clusters))
	return nil
}

// Top returns up to n clusters from the board, highest trend score first.
// Members whose snapshot expired are skipped.
func (b *Board) Top(ctx context.Context, n int) ([]model.Cluster, error) {
	if n <= 0 {
		n = 10
	}
	members, err := b.rdb.ZRevRangeWithScores(ctx, b.trendingKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read trending: %w", err)
	}
	out := make([]model.Cluster, 0, len(members))
	for _, z := range members {
		id, ok := z.Member.(string)
		if !ok {
			continue
		}
		data, err := b.rdb.Get(ctx, b.clusterKey(id)).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read cluster %s: %w", id, err)
		}
		var c model.Cluster
		if err := json.Unmarshal(data, &c); err != nil {
			b.logger.Warn("dropping unreadable cluster snapshot", "cluster_id", id, "error", err)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// RaiseAlert pushes an alert onto the capped alert list
func (b *Board) RaiseAlert(ctx context.Context, a model.Alert) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	_, err = b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, b.alertsKey, data)
		pipe.LTrim(ctx, b.alertsKey, 0, b.alertsCap-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("mirror alert %s: %w", a.ID, err)
	}
	return nil
}

// RecentAlerts returns up to n mirrored alerts, newest first
func (b *Board) RecentAlerts(ctx context.Context, n int64) ([]model.Alert, error) {
	if n <= 0 {
		n = 20
	}
	raw, err := b.rdb.LRange(ctx, b.alertsKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read alerts: %w", err)
	}
	out := make([]model.Alert, 0, len(raw))
	for _, s := range raw {
		var a model.Alert
		if err := json.Unmarshal([]byte(s), &a); err != nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// Ping checks connectivity
func (b *Board) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}
