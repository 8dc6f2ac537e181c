package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStatus(t *testing.T, ttl time.Duration) (*RedisStatus, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStatus("redis://"+mr.Addr(), "t", ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestKeys(t *testing.T) {
	c := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer c.Close()

	s := newRedisStatus(c, "", time.Hour)
	assert.Equal(t, "pdfsplit:run:abc:status", s.key("abc"))
	assert.Equal(t, "pdfsplit:run:abc:file:3", s.fileKey("abc", 3))

	s = newRedisStatus(c, "ci", 0)
	assert.Equal(t, "ci:run:r1:status", s.key("r1"))
}

func TestNewRedisStatusRejectsBadURL(t *testing.T) {
	_, err := NewRedisStatus("not a url", "pdfsplit", time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis url")
}

func TestStatusRoundTrip(t *testing.T) {
	s, _ := newTestStatus(t, time.Hour)
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Set(ctx, "r1", Status{
		Status:   "running",
		Start:    &start,
		Message:  "0/2 files",
		Metadata: map[string]interface{}{"mode": "batch", "total": 2},
	}))
	// a progress update without metadata keeps the stored metadata
	require.NoError(t, s.Set(ctx, "r1", Status{Status: "running", Progress: 50, Message: "1/2 files"}))

	st, ok, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "running", st.Status)
	assert.Equal(t, 50, st.Progress)
	assert.Equal(t, "1/2 files", st.Message)
	require.NotNil(t, st.Start)
	assert.True(t, start.Equal(*st.Start))
	assert.Nil(t, st.End)
	assert.Equal(t, "batch", st.Metadata["mode"])
	assert.Equal(t, 2, st.Total())

	_, ok, err = s.Get(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileRecords(t *testing.T) {
	s, _ := newTestStatus(t, time.Hour)
	ctx := context.Background()

	done := FileRecord{Input: "a.pdf", Status: "done", Outputs: []string{"a_part_01.pdf", "a_part_02.pdf"}}
	failed := FileRecord{Input: "b.pdf", Status: "failed", Kind: "malformed-document", Error: "b.pdf: open: malformed-document: bad xref"}
	require.NoError(t, s.SaveFile(ctx, "r1", 1, done))
	require.NoError(t, s.SaveFile(ctx, "r1", 3, failed))

	got, ok, err := s.GetFile(ctx, "r1", 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, done, got)

	_, ok, err = s.GetFile(ctx, "r1", 2)
	require.NoError(t, err)
	assert.False(t, ok)

	files, err := s.Files(ctx, "r1", 3)
	require.NoError(t, err)
	assert.Equal(t, []FileRecord{done, failed}, files)
}

func TestRun(t *testing.T) {
	s, _ := newTestStatus(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "r1", Status{Status: "done", Progress: 100, Metadata: map[string]interface{}{"total": 1, "failed": 0}}))
	require.NoError(t, s.SaveFile(ctx, "r1", 1, FileRecord{Input: "a.pdf", Status: "done", Outputs: []string{"a_part_01.pdf"}}))

	st, files, ok, err := s.Run(ctx, "r1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "done", st.Status)
	require.Len(t, files, 1)
	assert.Equal(t, "a.pdf", files[0].Input)

	_, files, ok, err = s.Run(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, files)
}

func TestRecordsExpire(t *testing.T) {
	s, mr := newTestStatus(t, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "r1", Status{Status: "running"}))
	require.NoError(t, s.SaveFile(ctx, "r1", 1, FileRecord{Input: "a.pdf", Status: "done"}))
	assert.Equal(t, 10*time.Minute, mr.TTL("t:run:r1:status"))
	assert.Equal(t, 10*time.Minute, mr.TTL("t:run:r1:file:1"))

	mr.FastForward(11 * time.Minute)
	_, ok, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = s.GetFile(ctx, "r1", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordsWithoutTTLPersist(t *testing.T) {
	s, mr := newTestStatus(t, 0)
	require.NoError(t, s.Set(context.Background(), "r1", Status{Status: "running"}))
	assert.Equal(t, time.Duration(0), mr.TTL("t:run:r1:status"))
	assert.True(t, mr.Exists("t:run:r1:status"))
}
