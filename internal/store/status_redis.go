package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Status is the run-level record of a split or batch invocation.
type Status struct {
	Status   string                 `json:"status"`
	Progress int                    `json:"progress"`
	Message  string                 `json:"message"`
	Start    *time.Time             `json:"start_time,omitempty"`
	End      *time.Time             `json:"end_time,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Total returns the number of inputs recorded in Metadata["total"], or 0.
func (st Status) Total() int {
	switch v := st.Metadata["total"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// RedisStatus keeps run and per-file records in Redis hashes that expire after ttl.
type RedisStatus struct {
	client *redis.Client
	keyNS  string
	ttl    time.Duration
}

func NewRedisStatus(redisURL, keyNS string, ttl time.Duration) (*RedisStatus, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedisStatus(c, keyNS, ttl), nil
}

func newRedisStatus(c *redis.Client, keyNS string, ttl time.Duration) *RedisStatus {
	if keyNS == "" {
		keyNS = "pdfsplit"
	}
	return &RedisStatus{client: c, keyNS: keyNS, ttl: ttl}
}

func (s *RedisStatus) key(runID string) string {
	return fmt.Sprintf("%s:run:%s:status", s.keyNS, runID)
}

// Set merges st into the run record. Nil Start, End or Metadata leave the
// stored values untouched.
func (s *RedisStatus) Set(ctx context.Context, runID string, st Status) error {
	m := map[string]interface{}{
		"status":   st.Status,
		"progress": st.Progress,
		"message":  st.Message,
	}
	if st.Start != nil {
		m["start"] = st.Start.Format(time.RFC3339Nano)
	}
	if st.End != nil {
		m["end"] = st.End.Format(time.RFC3339Nano)
	}
	if st.Metadata != nil {
		b, err := json.Marshal(st.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		m["metadata"] = string(b)
	}
	return s.write(ctx, s.key(runID), m)
}

// Get returns the run record, or false when it is unknown or expired.
func (s *RedisStatus) Get(ctx context.Context, runID string) (Status, bool, error) {
	res, err := s.client.HGetAll(ctx, s.key(runID)).Result()
	if err != nil {
		return Status{}, false, err
	}
	if len(res) == 0 {
		return Status{}, false, nil
	}
	st := Status{Status: res["status"], Message: res["message"]}
	st.Progress, _ = strconv.Atoi(res["progress"])
	st.Start = parseTime(res["start"])
	st.End = parseTime(res["end"])
	if v := res["metadata"]; v != "" {
		if err := json.Unmarshal([]byte(v), &st.Metadata); err != nil {
			return st, true, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return st, true, nil
}

// Run returns the run record together with its per-file records.
func (s *RedisStatus) Run(ctx context.Context, runID string) (Status, []FileRecord, bool, error) {
	st, ok, err := s.Get(ctx, runID)
	if err != nil || !ok {
		return st, nil, ok, err
	}
	files, err := s.Files(ctx, runID, st.Total())
	return st, files, true, err
}

func parseTime(v string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return nil
	}
	return &t
}

// write stores a hash and refreshes its expiry in one round trip.
func (s *RedisStatus) write(ctx context.Context, key string, m map[string]interface{}) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, m)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Ping checks connectivity; used by the doctor command.
func (s *RedisStatus) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisStatus) Close() error { return s.client.Close() }
