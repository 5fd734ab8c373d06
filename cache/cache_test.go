package cache

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestSetGet(t *testing.T) {
	c := New[[]string]()

	want := []string{"a", "b"}
	c.Set("foo", want, time.Minute)

	got, ok := c.Get("foo")
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Unexpected result (-got +want):\n%s", diff)
	}
}

func TestGetMissing(t *testing.T) {
	c := New[int]()

	if got, ok := c.Get("foo"); ok {
		t.Errorf("expected a cache miss, got %v", got)
	}
}

func TestGetExpired(t *testing.T) {
	c := New[int]()

	c.Set("foo", 42, -time.Second)

	if got, ok := c.Get("foo"); ok {
		t.Errorf("expected a cache miss on expired entry, got %v", got)
	}
	if n := c.Len(); n != 0 {
		t.Errorf("expired entry not removed, Len() = %d", n)
	}
}

func TestDelete(t *testing.T) {
	c := New[int]()

	c.Set("foo", 42, time.Minute)
	c.Delete("foo")

	if got, ok := c.Get("foo"); ok {
		t.Errorf("expected a cache miss after delete, got %v", got)
	}
}
