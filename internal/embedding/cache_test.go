package embedding

import (
	"context"
	"testing"
)

type countingEmbedder struct {
	calls int
}

func (e *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	return []float32{float32(len(text)), 1, 0}, nil
}

func TestCachedHit(t *testing.T) {
	inner := &countingEmbedder{}
	c, err := NewCached(inner, 8)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	first, err := c.Embed(ctx, "refund policy")
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Embed(ctx, "refund policy")
	if err != nil {
		t.Fatal(err)
	}

	if inner.calls != 1 {
		t.Fatalf("inner embedder called %d times, want 1", inner.calls)
	}
	if len(first) != len(second) || first[0] != second[0] {
		t.Fatal("cached vector differs from original")
	}
}

func TestCachedEviction(t *testing.T) {
	inner := &countingEmbedder{}
	c, err := NewCached(inner, 2)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for _, q := range []string{"a", "bb", "ccc"} {
		if _, err := c.Embed(ctx, q); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 2 {
		t.Fatalf("cache length = %d, want capacity 2", c.Len())
	}

	// "a" was evicted, so this costs another inner call.
	if _, err := c.Embed(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 4 {
		t.Fatalf("inner embedder called %d times, want 4", inner.calls)
	}
}

func TestCachedRejectsZeroCapacity(t *testing.T) {
	if _, err := NewCached(&countingEmbedder{}, 0); err == nil {
		t.Fatal("expected error for zero capacity")
	}
}
