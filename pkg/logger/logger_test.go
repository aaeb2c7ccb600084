package logger

import (
	"context"
	"testing"
	"time"
)

func TestInitAndGet(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	// Re-initialization must stay safe; packages call Init from TestMain.
	if err := Init(); err != nil {
		t.Fatalf("re-initialization failed: %v", err)
	}
}

func TestFields(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	log := Get()
	log.Info(ctx, "scan progress",
		String("domain", "example.squig.link"),
		Int("devices", 42),
		Duration("took", 1500*time.Millisecond),
	)

	if f := Duration("took", time.Second); f.Key != "took" || f.Value != "1s" {
		t.Fatalf("unexpected duration field: %+v", f)
	}
}

func TestNamedLogger(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	scoped := Get().Named("scanner")
	if scoped == nil {
		t.Fatal("named logger is nil")
	}
	scoped.Debug(context.Background(), "named logger message")
}

func TestSetLevelString(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	for _, level := range []string{"debug", "info", "warn", "error"} {
		if err := SetLevelString(level); err != nil {
			t.Errorf("level %q rejected: %v", level, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected an error for an unknown level")
	}
	if err := SetLevelString("info"); err != nil {
		t.Fatalf("failed to restore level: %v", err)
	}
}
