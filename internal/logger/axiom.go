package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/axiomhq/axiom-go/axiom"
	"github.com/axiomhq/axiom-go/axiom/ingest"
	"github.com/rs/zerolog"
)

const (
	axiomBatchSize = 200
	axiomMaxQueued = 5000
)

type axiomConfig struct {
	Token    string
	OrgID    string
	Dataset  string
	Flush    time.Duration
	MinLevel zerolog.Level
	Service  string
}

// axiomSink is an io.Writer for zerolog JSON lines. Events are buffered and
// shipped in batches by a background flusher and on Close.
type axiomSink struct {
	send     func(ctx context.Context, events []axiom.Event) error
	minLevel zerolog.Level
	service  string

	mu      sync.Mutex
	buf     []axiom.Event
	dropped int
	lastErr error

	kick chan struct{}
	stop chan struct{}
	done chan struct{}
}

func newAxiomSink(cfg axiomConfig) (*axiomSink, error) {
	if cfg.Dataset == "" {
		cfg.Dataset = "dev_pdfsplit"
	}
	opts := []axiom.Option{axiom.SetToken(cfg.Token)}
	if cfg.OrgID != "" {
		opts = append(opts, axiom.SetOrganizationID(cfg.OrgID))
	}
	c, err := axiom.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	send := func(ctx context.Context, events []axiom.Event) error {
		_, err := c.IngestEvents(ctx, cfg.Dataset, events)
		return err
	}
	return startSink(send, cfg), nil
}

func startSink(send func(context.Context, []axiom.Event) error, cfg axiomConfig) *axiomSink {
	if cfg.Flush <= 0 {
		cfg.Flush = 10 * time.Second
	}
	s := &axiomSink{
		send:     send,
		minLevel: cfg.MinLevel,
		service:  cfg.Service,
		kick:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.run(cfg.Flush)
	return s
}

func (s *axiomSink) Write(p []byte) (int, error) {
	var ev map[string]interface{}
	if err := json.Unmarshal(p, &ev); err != nil {
		ev = map[string]interface{}{"message": string(p), "level": zerolog.InfoLevel.String()}
	}
	if lvl, ok := ev[zerolog.LevelFieldName].(string); ok {
		if l, err := zerolog.ParseLevel(lvl); err == nil && l < s.minLevel {
			return len(p), nil
		}
	}
	ev["service"] = s.service
	if _, ok := ev[ingest.TimestampField]; !ok {
		ev[ingest.TimestampField] = time.Now()
	}

	s.mu.Lock()
	if len(s.buf) >= axiomMaxQueued {
		s.dropped++
	} else {
		s.buf = append(s.buf, axiom.Event(ev))
	}
	full := len(s.buf) >= axiomBatchSize
	s.mu.Unlock()

	if full {
		select {
		case s.kick <- struct{}{}:
		default:
		}
	}
	return len(p), nil
}

func (s *axiomSink) run(every time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.flush()
		case <-s.kick:
			s.flush()
		}
	}
}

func (s *axiomSink) flush() {
	s.mu.Lock()
	batch := s.buf
	s.buf = nil
	s.mu.Unlock()
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	for len(batch) > 0 {
		n := min(len(batch), axiomBatchSize)
		if err := s.send(ctx, batch[:n]); err != nil {
			s.mu.Lock()
			s.lastErr = err
			s.dropped += len(batch)
			s.mu.Unlock()
			return
		}
		batch = batch[n:]
	}
}

// Close stops the flusher and ships whatever is still buffered.
func (s *axiomSink) Close() error {
	close(s.stop)
	<-s.done
	s.flush()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastErr != nil {
		return fmt.Errorf("%w (%d events dropped)", s.lastErr, s.dropped)
	}
	return nil
}
