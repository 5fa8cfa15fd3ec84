package producer

import (
	"context"
	"errors"
	"io"
	"testing"
)

func TestNextTaskDrainsCatalogue(t *testing.T) {
	t.Parallel()

	service := NewService()
	ctx := context.Background()

	seen := 0
	for {
		cfg, err := service.NextTask(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("NextTask returned error: %v", err)
		}
		if cfg.Script == "" {
			t.Fatalf("catalogue task %q has no script", cfg.ID)
		}
		seen++
	}

	if seen == 0 {
		t.Fatal("expected at least one catalogue task")
	}
}

func TestNextTaskHonorsContext(t *testing.T) {
	t.Parallel()

	service := NewService()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := service.NextTask(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
