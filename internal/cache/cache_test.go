package cache

import (
	"encoding/json"
	"os"
	"testing"
	"time"
)

func TestKeyStableAndSeparatorAware(t *testing.T) {
	if Key("a", "b") != Key("a", "b") {
		t.Error("same parts, different keys")
	}
	if Key("a", "b") == Key("ab") {
		t.Error("concatenation collides with separate parts")
	}
	if Key("a", "b") == Key("b", "a") {
		t.Error("part order ignored")
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	c, err := New(t.TempDir(), 3600)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	key := Key("ollama", "system", "user")
	if _, ok := c.Get(key); ok {
		t.Fatal("hit before Put")
	}
	if err := c.Put(key, `[{"rule":"r"}]`); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := c.Get(key)
	if !ok || got != `[{"rule":"r"}]` {
		t.Errorf("Get = %q, %v", got, ok)
	}
}

func TestGetExpiredEntry(t *testing.T) {
	c, err := New(t.TempDir(), 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	key := Key("k")
	writeEntry(t, c.entryPath(key), Entry{
		Key:       key,
		Response:  "v",
		CreatedAt: time.Now().Add(-2 * time.Second),
	})

	if _, ok := c.Get(key); ok {
		t.Error("expired entry served")
	}
	if _, err := os.Stat(c.entryPath(key)); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c, err := New(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	key := Key("k")
	writeEntry(t, c.entryPath(key), Entry{
		Key:       key,
		Response:  "v",
		CreatedAt: time.Now().Add(-24 * time.Hour),
	})
	if _, ok := c.Get(key); !ok {
		t.Error("entry expired with TTL disabled")
	}
}

func TestClear(t *testing.T) {
	c, err := New(t.TempDir(), 3600)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Put(Key(k), k); err != nil {
			t.Fatalf("Put(%s): %v", k, err)
		}
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if _, ok := c.Get(Key(k)); ok {
			t.Errorf("entry %s survived Clear", k)
		}
	}
}

func TestCorruptEntryIsMiss(t *testing.T) {
	c, err := New(t.TempDir(), 3600)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	key := Key("k")
	if err := os.WriteFile(c.entryPath(key), []byte("not json"), 0o644); err != nil {
		t.Fatalf("writing corrupt entry: %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("corrupt entry served")
	}
}

func writeEntry(t *testing.T, path string, e Entry) {
	t.Helper()
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}
