package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// FileRecord is the outcome of one input within a run.
type FileRecord struct {
	Input   string   `json:"input"`
	Status  string   `json:"status"` // "done" or "failed"
	Kind    string   `json:"kind,omitempty"`
	Error   string   `json:"error,omitempty"`
	Outputs []string `json:"outputs,omitempty"`
}

func (s *RedisStatus) fileKey(runID string, index int) string {
	return fmt.Sprintf("%s:run:%s:file:%d", s.keyNS, runID, index)
}

// SaveFile stores the record of the index-th input (1-based) of a run.
func (s *RedisStatus) SaveFile(ctx context.Context, runID string, index int, rec FileRecord) error {
	outputs, err := json.Marshal(rec.Outputs)
	if err != nil {
		return fmt.Errorf("encode outputs: %w", err)
	}
	m := map[string]interface{}{
		"input":   rec.Input,
		"status":  rec.Status,
		"outputs": string(outputs),
	}
	if rec.Kind != "" {
		m["kind"] = rec.Kind
	}
	if rec.Error != "" {
		m["error"] = rec.Error
	}
	return s.write(ctx, s.fileKey(runID, index), m)
}

// GetFile returns the record of the index-th input, or false if none was stored.
func (s *RedisStatus) GetFile(ctx context.Context, runID string, index int) (FileRecord, bool, error) {
	res, err := s.client.HGetAll(ctx, s.fileKey(runID, index)).Result()
	if errors.Is(err, redis.Nil) {
		return FileRecord{}, false, nil
	}
	if err != nil {
		return FileRecord{}, false, err
	}
	if len(res) == 0 {
		return FileRecord{}, false, nil
	}
	rec := FileRecord{
		Input:  res["input"],
		Status: res["status"],
		Kind:   res["kind"],
		Error:  res["error"],
	}
	if v := res["outputs"]; v != "" {
		if err := json.Unmarshal([]byte(v), &rec.Outputs); err != nil {
			return rec, true, fmt.Errorf("decode outputs: %w", err)
		}
	}
	return rec, true, nil
}

// Files returns the records of inputs 1..total, skipping missing ones.
func (s *RedisStatus) Files(ctx context.Context, runID string, total int) ([]FileRecord, error) {
	var out []FileRecord
	for i := 1; i <= total; i++ {
		rec, ok, err := s.GetFile(ctx, runID, i)
		if err != nil {
			return out, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}
