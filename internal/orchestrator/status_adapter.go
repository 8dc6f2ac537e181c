package orchestrator

import (
	"context"

	"github.com/local/pdfsplit/internal/store"
)

type redisStatusAdapter struct{ s *store.RedisStatus }

// NewStatusAdapter exposes a RedisStatus as the orchestrator's StatusStore.
func NewStatusAdapter(s *store.RedisStatus) StatusStore { return &redisStatusAdapter{s: s} }

// Set leaves the stored metadata alone when st.Metadata is nil.
func (a *redisStatusAdapter) Set(ctx context.Context, runID string, st Status) error {
	return a.s.Set(ctx, runID, store.Status{
		Status:   st.Status,
		Progress: st.Progress,
		Message:  st.Message,
		Start:    st.Start,
		End:      st.End,
		Metadata: st.Metadata,
	})
}

func (a *redisStatusAdapter) SaveFile(ctx context.Context, runID string, index int, rec FileRecord) error {
	return a.s.SaveFile(ctx, runID, index, store.FileRecord{
		Input:   rec.Input,
		Status:  rec.Status,
		Kind:    rec.Kind,
		Error:   rec.Error,
		Outputs: rec.Outputs,
	})
}
