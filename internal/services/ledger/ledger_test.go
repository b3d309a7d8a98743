package ledger

import (
	"strings"
	"testing"
)

func TestKey(t *testing.T) {
	a := Key([]byte("pixels"), []byte(`{"type":"product"}`))
	b := Key([]byte("pixels"), []byte(`{"type":"product"}`))
	if a != b {
		t.Fatalf("Key() not deterministic: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, CacheKeyPrefix) || len(a) != len(CacheKeyPrefix)+64 {
		t.Fatalf("unexpected key %q", a)
	}

	if Key([]byte("pixels"), []byte(`{"type":"avatar"}`)) == a {
		t.Fatal("metadata does not affect the key")
	}
	if Key([]byte("pixel"), []byte(`s{"type":"product"}`)) == a {
		t.Fatal("data and metadata boundary is ambiguous")
	}
}
