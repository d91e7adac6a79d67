package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/rueidis"

	"scholarag/internal/domain"
	"scholarag/internal/index"
)

var returnFields = []string{"text", "source", "chunk_index", "page", "length", "__vector_score"}

// Upsert creates the FT index if needed and writes every item as a
// hash in a single pipelined round-trip.
func (s *Store) Upsert(ctx context.Context, items []index.Item) error {
	if len(items) == 0 {
		return nil
	}
	if err := s.ensureIndex(ctx); err != nil {
		return err
	}

	cmds := make([]rueidis.Completed, len(items))
	for i, item := range items {
		key := fmt.Sprintf("%s%s:%d", s.chunkPrefix(), item.Chunk.SourceDocument, item.Chunk.ChunkIndex)
		cmds[i] = s.client.B().Hset().Key(key).FieldValue().
			FieldValue("text", item.Chunk.Text).
			FieldValue("source", item.Chunk.SourceDocument).
			FieldValue("chunk_index", strconv.Itoa(item.Chunk.ChunkIndex)).
			FieldValue("page", strconv.Itoa(item.Chunk.ApproxPage)).
			FieldValue("length", strconv.Itoa(item.Chunk.CharLength)).
			FieldValue("vector", vectorToBytes(item.Vector)).
			Build()
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return fmt.Errorf("store chunk %d: %w", i, err)
		}
	}
	return nil
}

// Query runs a KNN search via FT.SEARCH. A missing index yields no
// matches and no error.
func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]index.Match, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if topK <= 0 {
		return nil, nil
	}

	args := []string{
		s.indexName(),
		fmt.Sprintf("*=>[KNN %d @vector $BLOB]", topK),
		"RETURN", strconv.Itoa(len(returnFields)),
	}
	args = append(args, returnFields...)
	args = append(args,
		"SORTBY", "__vector_score",
		"PARAMS", "2", "BLOB", vectorToBytes(vector),
		"DIALECT", "2",
	)

	cmd := s.client.B().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.client.Do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index name") {
			return nil, nil
		}
		return nil, fmt.Errorf("knn search: %w", err)
	}

	return parseMatches(raw)
}

// Count returns the number of indexed chunks via FT.SEARCH with
// LIMIT 0 0. A missing index counts as zero.
func (s *Store) Count(ctx context.Context) (int, error) {
	cmd := s.client.B().Arbitrary("FT.SEARCH").Args(s.indexName(), "*", "LIMIT", "0", "0").Build()
	raw, err := s.client.Do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index name") {
			return 0, nil
		}
		return 0, fmt.Errorf("count search: %w", err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

func (s *Store) ensureIndex(ctx context.Context) error {
	cmd := s.client.B().Arbitrary("FT.CREATE").Args(
		s.indexName(),
		"ON", "HASH",
		"PREFIX", "1", s.chunkPrefix(),
		"SCHEMA",
		"text", "TEXT",
		"source", "TAG",
		"chunk_index", "NUMERIC",
		"page", "NUMERIC",
		"length", "NUMERIC",
		"vector", "VECTOR", "HNSW", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(s.dim),
		"DISTANCE_METRIC", "COSINE",
	).Build()

	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return nil
		}
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// parseMatches walks the RESP2 2-stride layout:
// [total, key1, fields1, key2, fields2, ...].
func parseMatches(raw []rueidis.RedisMessage) ([]index.Match, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	matches := make([]index.Match, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		fieldsArr, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(fieldsArr)

		chunkIndex, _ := strconv.Atoi(fields["chunk_index"])
		page, _ := strconv.Atoi(fields["page"])

		match := index.Match{
			Chunk: domain.NewChunk(fields["text"], fields["source"], chunkIndex, page),
		}
		if dist, err := strconv.ParseFloat(fields["__vector_score"], 64); err == nil {
			match.Distance = dist
		}
		matches = append(matches, match)
	}

	return matches, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
