// Package retrieval serves k-nearest-neighbor context lookups over the
// knowledge base, lazily loading the encoder and index on first use and
// releasing them after an idle period.
package retrieval

import (
	"context"
	"sync"
	"time"

	"github.com/homequest-ai/lead-assistant/internal/knowledge"
	"github.com/homequest-ai/lead-assistant/internal/observability/metrics"
	"github.com/homequest-ai/lead-assistant/pkg/logging"
)

// Sentinel payloads returned instead of real context. Callers treat these as
// first-class degraded results, never as errors.
const (
	SentinelDisabled    = "Vector search disabled."
	SentinelUnavailable = "Vector search is currently unavailable."
	SentinelError       = "Error retrieving context information."
)

// Config controls the retrieval service.
type Config struct {
	// Enabled is the global kill-switch. When false every call short-circuits
	// to SentinelDisabled without touching the state machine.
	Enabled bool
	// IdleUnload is how long the encoder and index may sit unused before the
	// next call releases and reloads them. Zero means never unload.
	IdleUnload time.Duration
	// TopK is the default number of neighbors when the caller passes k <= 0.
	TopK         int
	IndexPath    string
	MetadataPath string
}

// Service owns the load/unload lifecycle of the embedding encoder and the
// knowledge index. Loaded resources are shared and read-mostly; the mutex
// guards state transitions only, so searches on an already-loaded snapshot
// proceed without holding the lock.
type Service struct {
	cfg        Config
	newEncoder EncoderFactory
	logger     *logging.Logger
	metrics    *metrics.RetrievalMetrics
	now        func() time.Time

	mu       sync.Mutex
	encoder  Encoder
	index    *knowledge.FlatIndex
	chunks   []knowledge.Chunk
	lastUsed time.Time
	// disabled is set after a failed load so subsequent calls short-circuit
	// instead of retrying the expensive load. Reset clears it.
	disabled bool
}

// NewService creates the retrieval service. The encoder factory is invoked
// lazily; nothing heavy is materialized here.
func NewService(cfg Config, newEncoder EncoderFactory, m *metrics.RetrievalMetrics, logger *logging.Logger) *Service {
	if newEncoder == nil {
		panic("retrieval: encoder factory cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &Service{
		cfg:        cfg,
		newEncoder: newEncoder,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
	}
}

// RetrieveContext returns up to k knowledge payloads semantically closest to
// the query. It never returns an error or an empty slice: any internal
// failure degrades to a single-element sentinel.
func (s *Service) RetrieveContext(ctx context.Context, query string, k int) []string {
	if !s.cfg.Enabled {
		s.metrics.ObserveQuery("disabled")
		return []string{SentinelDisabled}
	}
	if k <= 0 {
		k = s.cfg.TopK
	}

	encoder, index, chunks, ok := s.acquire()
	if !ok {
		s.metrics.ObserveQuery("unavailable")
		return []string{SentinelUnavailable}
	}

	vec, err := encoder.Encode(ctx, query)
	if err != nil {
		s.logger.Error("retrieval: query encode failed", "error", err)
		s.metrics.ObserveQuery("error")
		return []string{SentinelError}
	}

	hits, err := index.Search(vec, k)
	if err != nil {
		s.logger.Error("retrieval: index search failed", "error", err)
		s.metrics.ObserveQuery("error")
		return []string{SentinelError}
	}
	if len(hits) == 0 {
		s.metrics.ObserveQuery("empty")
		return []string{SentinelUnavailable}
	}

	out := make([]string, 0, len(hits))
	for _, hit := range hits {
		out = append(out, chunks[hit.Position].Text)
	}
	s.metrics.ObserveQuery("hit")
	return out
}

// acquire runs the state machine under the lock and hands back a consistent
// snapshot of the loaded resources. The returned references stay valid even
// if a later call unloads, since unloading only drops the service's own
// references.
func (s *Service) acquire() (Encoder, *knowledge.FlatIndex, []knowledge.Chunk, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled {
		return nil, nil, nil, false
	}

	now := s.now()

	// Opportunistic idle check: release a stale resident model before use so
	// the query below runs against a fresh load.
	if s.encoder != nil && s.cfg.IdleUnload > 0 && now.Sub(s.lastUsed) > s.cfg.IdleUnload {
		s.logger.Info("retrieval: idle threshold exceeded, unloading",
			"idle", now.Sub(s.lastUsed).String(),
		)
		s.releaseLocked()
		s.metrics.ObserveUnload()
	}

	if s.encoder == nil {
		if !s.loadLocked() {
			return nil, nil, nil, false
		}
	}

	s.lastUsed = now
	return s.encoder, s.index, s.chunks, true
}

// loadLocked materializes the encoder and reads the index/metadata pair.
// Any failure soft-disables the service so later calls short-circuit.
func (s *Service) loadLocked() bool {
	encoder, err := s.newEncoder()
	if err != nil {
		s.logger.Warn("retrieval: encoder init failed, disabling", "error", err)
		s.disabled = true
		s.metrics.ObserveLoad("failure")
		return false
	}

	index, chunks, err := knowledge.LoadPair(s.cfg.IndexPath, s.cfg.MetadataPath)
	if err != nil {
		s.logger.Warn("retrieval: knowledge base load failed, disabling",
			"index_path", s.cfg.IndexPath,
			"metadata_path", s.cfg.MetadataPath,
			"error", err,
		)
		s.disabled = true
		s.metrics.ObserveLoad("failure")
		return false
	}

	s.encoder = encoder
	s.index = index
	s.chunks = chunks
	s.metrics.ObserveLoad("success")
	s.logger.Info("retrieval: knowledge base loaded",
		"vectors", index.Len(),
		"dim", index.Dim(),
	)
	return true
}

func (s *Service) releaseLocked() {
	s.encoder = nil
	s.index = nil
	s.chunks = nil
}

// Reset clears the soft-disabled flag and releases any resident resources.
// The next call will attempt a fresh load.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disabled = false
	s.releaseLocked()
	s.logger.Info("retrieval: state reset")
}

// Loaded reports whether the encoder and index are currently resident.
func (s *Service) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encoder != nil
}
