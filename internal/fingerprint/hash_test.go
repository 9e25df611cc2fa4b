package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestFileSetHashEmpty(t *testing.T) {
	if got := FileSetHash(nil); got != Empty {
		t.Fatalf("expected sentinel for nil, got %q", got)
	}
	if got := FileSetHash([][]byte{}); got != "0" {
		t.Fatalf("expected sentinel for empty, got %q", got)
	}
}

func TestFileSetHashOrderIndependent(t *testing.T) {
	a := []byte("hello")
	b := []byte("world")

	ab := FileSetHash([][]byte{a, b})
	ba := FileSetHash([][]byte{b, a})
	if ab != ba {
		t.Fatalf("expected order independence, got %q vs %q", ab, ba)
	}
	if len(ab) != 64 {
		t.Fatalf("expected hex sha256, got %q", ab)
	}
	if ab == FileSetHash([][]byte{a}) {
		t.Fatal("expected different hash for a subset")
	}
}

func TestFileSetHashKnownValue(t *testing.T) {
	digest := ContentHash([]byte("hello"))
	sum := sha256.Sum256([]byte(`["` + digest + `"]`))
	want := hex.EncodeToString(sum[:])

	if got := FileSetHash([][]byte{[]byte("hello")}); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestContentHash(t *testing.T) {
	const helloSHA = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got := ContentHash([]byte("hello")); got != helloSHA {
		t.Fatalf("unexpected digest %q", got)
	}
}

func TestCompositeHashKeyOrderIndependent(t *testing.T) {
	first, err := CompositeHash("abc", map[string]any{"b": 2.0, "a": map[string]any{"y": 1.0, "x": "v"}})
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	second, err := CompositeHash("abc", map[string]any{"a": map[string]any{"x": "v", "y": 1.0}, "b": 2.0})
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	if first != second {
		t.Fatalf("expected canonical metadata hashing, got %q vs %q", first, second)
	}

	other, err := CompositeHash("abc", map[string]any{"b": 3.0})
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	if other == first {
		t.Fatal("expected metadata to change the composite hash")
	}
}

func TestCompositeHashNilMetadata(t *testing.T) {
	fromNil, err := CompositeHash("p", nil)
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	fromEmpty, err := CompositeHash("p", map[string]any{})
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	if fromNil != fromEmpty {
		t.Fatalf("expected nil and empty metadata to match")
	}

	want := ContentHash([]byte("p" + ContentHash([]byte("{}"))))
	if fromNil != want {
		t.Fatalf("expected %q, got %q", want, fromNil)
	}
}

func TestCompositeHashRejectsUnencodable(t *testing.T) {
	if _, err := CompositeHash("p", map[string]any{"ch": make(chan int)}); err == nil {
		t.Fatal("expected encode error")
	}
}

func TestSeriesHash(t *testing.T) {
	if SeriesHash("temp", []byte{1, 2}) == SeriesHash("temp2", []byte{1, 2}) {
		t.Fatal("expected name to participate in the hash")
	}
	if SeriesHash("ab", nil) != ContentHash([]byte("ab")) {
		t.Fatal("expected sha256 over name and raw bytes")
	}
}
