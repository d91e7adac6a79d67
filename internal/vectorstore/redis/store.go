// Package redis is a VectorStore backend on Redis 8+ with the search
// module, holding chunks as hashes under a key prefix and querying
// them through an FT vector index.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"scholarag/internal/index"
)

// Config holds connection and layout parameters for the Redis backend.
type Config struct {
	Addrs     []string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
	VectorDim int
}

// Store implements index.VectorStore via rueidis. It also exposes a
// small KV surface used by the embedding cache.
type Store struct {
	client rueidis.Client
	prefix string
	dim    int
}

// NewStore connects to Redis via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	if cfg.VectorDim <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client, prefix: cfg.KeyPrefix, dim: cfg.VectorDim}, nil
}

// NewStoreForTest wraps an existing (mock) client.
func NewStoreForTest(client rueidis.Client, cfg Config) *Store {
	return &Store{client: client, prefix: cfg.KeyPrefix, dim: cfg.VectorDim}
}

func (s *Store) indexName() string   { return s.prefix + "idx" }
func (s *Store) chunkPrefix() string { return s.prefix + "chunk:" }
func (s *Store) metaKey() string     { return s.prefix + "meta" }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for redis: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// DeleteAll removes every chunk hash, the FT index, and the metadata
// key. A missing index is not an error.
func (s *Store) DeleteAll(ctx context.Context) error {
	keys, err := s.scan(ctx, s.chunkPrefix()+"*")
	if err != nil {
		return fmt.Errorf("scan chunk keys: %w", err)
	}

	if len(keys) > 0 {
		cmds := make([]rueidis.Completed, len(keys))
		for i, key := range keys {
			cmds[i] = s.client.B().Del().Key(key).Build()
		}
		for i, res := range s.client.DoMulti(ctx, cmds...) {
			if err := res.Error(); err != nil {
				return fmt.Errorf("delete key %s: %w", keys[i], err)
			}
		}
	}

	cmd := s.client.B().Arbitrary("FT.DROPINDEX").Args(s.indexName()).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil && !isRedisErr(err, "unknown index name") {
		return fmt.Errorf("drop index: %w", err)
	}

	if err := s.client.Do(ctx, s.client.B().Del().Key(s.metaKey()).Build()).Error(); err != nil {
		return fmt.Errorf("delete metadata: %w", err)
	}
	return nil
}

// ReadMeta loads the index metadata JSON.
func (s *Store) ReadMeta(ctx context.Context) (index.Meta, error) {
	cmd := s.client.B().Get().Key(s.metaKey()).Build()
	data, err := s.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return index.Meta{}, index.ErrMetaNotFound
		}
		return index.Meta{}, fmt.Errorf("get metadata: %w", err)
	}

	var meta index.Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return index.Meta{}, fmt.Errorf("parse metadata: %w", err)
	}
	return meta, nil
}

// WriteMeta stores the index metadata JSON.
func (s *Store) WriteMeta(ctx context.Context, meta index.Meta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	cmd := s.client.B().Set().Key(s.metaKey()).Value(string(data)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("set metadata: %w", err)
	}
	return nil
}

// Get retrieves a raw value by key. A missing key yields (nil, nil).
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.client.B().Get().Key(key).Build()
	data, err := s.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

// Set stores a raw value at the given key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	cmd := s.client.B().Set().Key(key).Value(string(value)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *Store) scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		cmd := s.client.B().Scan().Cursor(cursor).Match(pattern).Count(100).Build()
		res, err := s.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, err
		}
		keys = append(keys, res.Elements...)
		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

// isRedisErr checks if err is a Redis server error containing substr (case-insensitive).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return containsIgnoreCase(re.Error(), substr)
}

func containsIgnoreCase(s, substr string) bool {
	ls := len(s)
	lsub := len(substr)
	if lsub > ls {
		return false
	}
	for i := 0; i <= ls-lsub; i++ {
		match := true
		for j := 0; j < lsub; j++ {
			sc := s[i+j]
			tc := substr[j]
			if sc >= 'A' && sc <= 'Z' {
				sc += 'a' - 'A'
			}
			if tc >= 'A' && tc <= 'Z' {
				tc += 'a' - 'A'
			}
			if sc != tc {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
