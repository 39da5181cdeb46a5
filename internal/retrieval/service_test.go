package retrieval

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/homequest-ai/lead-assistant/internal/knowledge"
	"github.com/homequest-ai/lead-assistant/pkg/logging"
)

// stubEncoder maps known queries to fixed vectors.
type stubEncoder struct {
	vectors map[string][]float32
	err     error
}

func (e *stubEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	if vec, ok := e.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0}, nil
}

// writeKnowledgeBase persists a two-entry index/metadata pair and returns the paths.
func writeKnowledgeBase(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index.gob")
	metaPath := filepath.Join(dir, "metadata.json")

	ix := knowledge.NewFlatIndex(2)
	for _, vec := range [][]float32{{1, 0}, {0, 1}} {
		if err := ix.Add(vec); err != nil {
			t.Fatalf("add vector: %v", err)
		}
	}
	if err := ix.Save(indexPath); err != nil {
		t.Fatalf("save index: %v", err)
	}
	chunks := []knowledge.Chunk{
		{ID: "villa", Text: "Luxury villa in Palm Grove, 4BHK, $780k"},
		{ID: "plot", Text: "Residential plot, 1800 sqft, clear title"},
	}
	if err := knowledge.SaveChunks(metaPath, chunks); err != nil {
		t.Fatalf("save chunks: %v", err)
	}
	return indexPath, metaPath
}

func newTestService(t *testing.T, cfg Config, factory EncoderFactory) *Service {
	t.Helper()
	return NewService(cfg, factory, nil, logging.Default())
}

func TestRetrieveContextReturnsNearestPayloads(t *testing.T) {
	indexPath, metaPath := writeKnowledgeBase(t)
	enc := &stubEncoder{vectors: map[string][]float32{"villa please": {1, 0}}}

	svc := newTestService(t, Config{
		Enabled:      true,
		IdleUnload:   time.Minute,
		TopK:         5,
		IndexPath:    indexPath,
		MetadataPath: metaPath,
	}, func() (Encoder, error) { return enc, nil })

	got := svc.RetrieveContext(context.Background(), "villa please", 1)
	if len(got) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(got))
	}
	if got[0] != "Luxury villa in Palm Grove, 4BHK, $780k" {
		t.Fatalf("unexpected payload: %q", got[0])
	}
	if !svc.Loaded() {
		t.Fatal("expected service to be loaded after a query")
	}
}

func TestRetrieveContextDisabledShortCircuits(t *testing.T) {
	loads := 0
	svc := newTestService(t, Config{Enabled: false}, func() (Encoder, error) {
		loads++
		return &stubEncoder{}, nil
	})

	got := svc.RetrieveContext(context.Background(), "anything", 5)
	if len(got) != 1 || got[0] != SentinelDisabled {
		t.Fatalf("expected disabled sentinel, got %v", got)
	}
	if loads != 0 {
		t.Fatalf("disabled service must not load, got %d loads", loads)
	}
}

func TestRetrieveContextNeverReturnsEmpty(t *testing.T) {
	indexPath, metaPath := writeKnowledgeBase(t)

	cases := []struct {
		name string
		svc  *Service
	}{
		{"missing index files", newTestService(t, Config{
			Enabled:      true,
			IndexPath:    filepath.Join(t.TempDir(), "missing.gob"),
			MetadataPath: filepath.Join(t.TempDir(), "missing.json"),
		}, func() (Encoder, error) { return &stubEncoder{}, nil })},
		{"encoder init failure", newTestService(t, Config{
			Enabled:      true,
			IndexPath:    indexPath,
			MetadataPath: metaPath,
		}, func() (Encoder, error) { return nil, errors.New("model download failed") })},
		{"encode failure", newTestService(t, Config{
			Enabled:      true,
			IndexPath:    indexPath,
			MetadataPath: metaPath,
		}, func() (Encoder, error) { return &stubEncoder{err: errors.New("boom")}, nil })},
		{"disabled", newTestService(t, Config{Enabled: false},
			func() (Encoder, error) { return &stubEncoder{}, nil })},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.svc.RetrieveContext(context.Background(), "query", 5)
			if len(got) == 0 {
				t.Fatal("retrieve must never return an empty sequence")
			}
		})
	}
}

func TestLoadFailureSoftDisablesUntilReset(t *testing.T) {
	indexPath, metaPath := writeKnowledgeBase(t)

	loads := 0
	failFirst := func() (Encoder, error) {
		loads++
		if loads == 1 {
			return nil, errors.New("encoder unavailable")
		}
		return &stubEncoder{vectors: map[string][]float32{"q": {1, 0}}}, nil
	}

	svc := newTestService(t, Config{
		Enabled:      true,
		IndexPath:    indexPath,
		MetadataPath: metaPath,
	}, failFirst)

	if got := svc.RetrieveContext(context.Background(), "q", 1); got[0] != SentinelUnavailable {
		t.Fatalf("expected unavailable sentinel, got %v", got)
	}
	// Soft-disabled: repeated calls must not retry the load.
	svc.RetrieveContext(context.Background(), "q", 1)
	svc.RetrieveContext(context.Background(), "q", 1)
	if loads != 1 {
		t.Fatalf("expected a single load attempt while disabled, got %d", loads)
	}

	svc.Reset()
	if got := svc.RetrieveContext(context.Background(), "q", 1); got[0] == SentinelUnavailable {
		t.Fatalf("expected real payload after reset, got %v", got)
	}
	if loads != 2 {
		t.Fatalf("expected reload after reset, got %d loads", loads)
	}
}

func TestIdleUnloadTriggersReload(t *testing.T) {
	indexPath, metaPath := writeKnowledgeBase(t)

	loads := 0
	factory := func() (Encoder, error) {
		loads++
		return &stubEncoder{vectors: map[string][]float32{"q": {0, 1}}}, nil
	}

	svc := newTestService(t, Config{
		Enabled:      true,
		IdleUnload:   5 * time.Minute,
		IndexPath:    indexPath,
		MetadataPath: metaPath,
	}, factory)

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	svc.RetrieveContext(context.Background(), "q", 1)
	if loads != 1 {
		t.Fatalf("expected initial load, got %d", loads)
	}

	// Just inside the threshold: resident model is reused.
	clock = clock.Add(5*time.Minute - time.Second)
	svc.RetrieveContext(context.Background(), "q", 1)
	if loads != 1 {
		t.Fatalf("call inside threshold must not reload, got %d loads", loads)
	}

	// lastUsed advanced on the previous call; step past the threshold from there.
	clock = clock.Add(5*time.Minute + time.Second)
	got := svc.RetrieveContext(context.Background(), "q", 1)
	if loads != 2 {
		t.Fatalf("call past threshold must unload then reload, got %d loads", loads)
	}
	if got[0] != "Residential plot, 1800 sqft, clear title" {
		t.Fatalf("reloaded service returned wrong payload: %v", got)
	}
}

func TestRetrieveContextUsesConfiguredTopK(t *testing.T) {
	indexPath, metaPath := writeKnowledgeBase(t)
	svc := newTestService(t, Config{
		Enabled:      true,
		TopK:         1,
		IndexPath:    indexPath,
		MetadataPath: metaPath,
	}, func() (Encoder, error) {
		return &stubEncoder{vectors: map[string][]float32{"q": {1, 0}}}, nil
	})

	// k <= 0 falls back to the configured TopK.
	got := svc.RetrieveContext(context.Background(), "q", 0)
	if len(got) != 1 {
		t.Fatalf("expected configured top-k of 1, got %d payloads", len(got))
	}
}
