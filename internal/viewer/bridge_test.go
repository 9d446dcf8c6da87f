package viewer

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sehyun/yt-translator-go/internal/store"
)

func newTestBridge(prefs store.Store, timeout time.Duration) *Bridge {
	return NewBridge(nil, nil, prefs, timeout, zap.NewNop())
}

func TestResolveStreamingDefaultsToSingleShot(t *testing.T) {
	bridge := newTestBridge(store.NewMemoryStore(), 0)

	if bridge.resolveStreaming(context.Background(), nil) {
		t.Error("with no stored preference the mode must default to single shot")
	}
}

func TestResolveStreamingReadsStoredPreference(t *testing.T) {
	prefs := store.NewMemoryStore()
	if err := prefs.Set(context.Background(), store.KeyUseStreaming, "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	bridge := newTestBridge(prefs, 0)

	if !bridge.resolveStreaming(context.Background(), nil) {
		t.Fatal("stored use_streaming=true must select streaming mode")
	}
}

func TestResolveStreamingIgnoresMalformedPreference(t *testing.T) {
	prefs := store.NewMemoryStore()
	if err := prefs.Set(context.Background(), store.KeyUseStreaming, "yes please"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	bridge := newTestBridge(prefs, 0)

	if bridge.resolveStreaming(context.Background(), nil) {
		t.Error("an unparsable stored value must fall back to single shot")
	}
}

func TestResolveStreamingExplicitFlagPersists(t *testing.T) {
	prefs := store.NewMemoryStore()
	bridge := newTestBridge(prefs, 0)

	enabled := true
	if !bridge.resolveStreaming(context.Background(), &enabled) {
		t.Fatal("explicit stream=true must select streaming mode")
	}
	if got, _ := prefs.Get(context.Background(), store.KeyUseStreaming); got != "true" {
		t.Errorf("persisted preference = %q, want %q", got, "true")
	}

	disabled := false
	if bridge.resolveStreaming(context.Background(), &disabled) {
		t.Fatal("explicit stream=false must select single shot")
	}
	if got, _ := prefs.Get(context.Background(), store.KeyUseStreaming); got != "false" {
		t.Errorf("persisted preference = %q, want %q", got, "false")
	}
}

func TestStoredStreamingPreferenceDrivesStreamEndpoint(t *testing.T) {
	prefs := store.NewMemoryStore()
	if err := prefs.Set(context.Background(), store.KeyUseStreaming, "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	bridge := newTestBridge(prefs, 0)

	backend := &fakeBackend{chunks: []string{"결과"}}
	o := NewOrchestrator(backend, prefs, &recordingSink{}, zap.NewNop())

	streaming := bridge.resolveStreaming(context.Background(), nil)
	o.Run(context.Background(), "hello", "gemini-2.0-flash", "한국어", streaming, false, nil)

	if backend.streamCallCount() != 1 {
		t.Errorf("stored preference must drive the stream endpoint, got %d stream calls", backend.streamCallCount())
	}
}

func TestNewOrchestratorAppliesRequestTimeout(t *testing.T) {
	bridge := newTestBridge(store.NewMemoryStore(), 30*time.Second)

	o := bridge.newOrchestrator(&recordingSink{})
	if o.timeout != 30*time.Second {
		t.Errorf("orchestrator timeout = %v, want %v", o.timeout, 30*time.Second)
	}
}

func TestNewOrchestratorDefaultTimeoutWhenUnset(t *testing.T) {
	bridge := newTestBridge(store.NewMemoryStore(), 0)

	o := bridge.newOrchestrator(&recordingSink{})
	if o.timeout != defaultRequestTimeout {
		t.Errorf("orchestrator timeout = %v, want default %v", o.timeout, defaultRequestTimeout)
	}
}
