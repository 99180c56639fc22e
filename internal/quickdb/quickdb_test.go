package quickdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/illarion/quickdb/internal/confirm"
	"github.com/illarion/quickdb/internal/obfuscate"
	"github.com/illarion/quickdb/internal/storage"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedTime = time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

// testRegistry returns a registry over fresh memory areas
func testRegistry(t *testing.T, answer bool) (*Registry, *storage.MemoryArea, *storage.MemoryArea) {
	t.Helper()
	persistent, session := storage.NewMemory(), storage.NewMemory()
	r, err := NewRegistry(persistent, session,
		WithConfirmer(confirm.Static(answer)),
		WithLogger(zaptest.NewLogger(t)),
		WithClock(func() time.Time { return fixedTime }),
	)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	return r, persistent, session
}

func TestDefaults(t *testing.T) {
	r, persistent, _ := testRegistry(t, false)

	if diff := cmp.Diff([]string{"Global", "User"}, r.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
	if r.Global() == nil || r.Global().Obfuscated() {
		t.Error("Global should exist and be plain")
	}
	if r.User() == nil || !r.User().Obfuscated() {
		t.Error("User should exist and be obfuscated")
	}

	// Only the obfuscated default persists a key
	if ok, _ := r.HasPeerKey(storage.Persistent, "User"); !ok {
		t.Error("User key should be stored")
	}
	if ok, _ := r.HasPeerKey(storage.Persistent, "Global"); ok {
		t.Error("Global should have no stored key")
	}
	raw, _, _ := persistent.Get(storage.ReservedNamespace, "__quickdb_peer_User")
	if err := obfuscate.ValidateKey(string(raw)); err != nil || len(raw) != 64 {
		t.Errorf("stored key %q is not 64 hex chars: %v", raw, err)
	}
}

func TestNewRegistryNilArea(t *testing.T) {
	if _, err := NewRegistry(nil, storage.NewMemory()); !errors.Is(err, ErrNoArea) {
		t.Errorf("expected ErrNoArea, got %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	r, _, _ := testRegistry(t, false)

	values := map[string]any{
		"string": "abc123",
		"number": float64(42.5),
		"bool":   true,
		"null":   nil,
		"list":   []any{float64(1), "two", false},
		"object": map[string]any{"name": "ada", "tags": []any{"x"}},
	}

	for _, name := range []string{"Global", "User"} {
		inst, _ := r.Instance(name)
		t.Run(name, func(t *testing.T) {
			for k, v := range values {
				if err := inst.Set(k, v); err != nil {
					t.Fatalf("Set(%s) failed: %v", k, err)
				}
				got, err := inst.Get(k)
				if err != nil {
					t.Fatalf("Get(%s) failed: %v", k, err)
				}
				if diff := cmp.Diff(v, got); diff != "" {
					t.Errorf("Get(%s) mismatch (-want +got):\n%s", k, diff)
				}
			}
		})
	}
}

func TestGetMissing(t *testing.T) {
	r, _, _ := testRegistry(t, false)

	v, err := r.Global().Get("nope")
	if err != nil || v != nil {
		t.Errorf("Get missing = %v, %v; want nil, nil", v, err)
	}
	v, err = r.Global().Query("nope")
	if err != nil || v != nil {
		t.Errorf("Query missing = %v, %v; want nil, nil", v, err)
	}
}

func TestGetAs(t *testing.T) {
	r, _, _ := testRegistry(t, false)

	type user struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	in := user{ID: 7, Name: "ada"}
	if err := r.User().Set("auth", in); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok, err := GetAs[user](r.User(), "auth")
	if err != nil || !ok {
		t.Fatalf("GetAs failed: ok=%v err=%v", ok, err)
	}
	if got != in {
		t.Errorf("GetAs = %+v, want %+v", got, in)
	}

	_, ok, err = GetAs[user](r.User(), "missing")
	if err != nil || ok {
		t.Errorf("GetAs missing: ok=%v err=%v", ok, err)
	}

	if err := r.User().Set("name", "ada"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, _, err := GetAs[int](r.User(), "name"); !errors.Is(err, ErrDeserialization) {
		t.Errorf("expected ErrDeserialization decoding a string as int, got %v", err)
	}
}

func TestSetUnserializable(t *testing.T) {
	r, _, _ := testRegistry(t, false)
	if err := r.Global().Set("ch", make(chan int)); err == nil {
		t.Error("expected error for a value JSON cannot encode")
	}
	if ok, _ := r.Global().Has("ch"); ok {
		t.Error("failed Set must not write")
	}
}

func TestSetModeIgnored(t *testing.T) {
	r, _, _ := testRegistry(t, false)
	inst := r.Global()

	if err := inst.Set("k", "first"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := inst.Set("k", "second", SetCreate); err != nil {
		t.Fatalf("Set with SetCreate failed: %v", err)
	}
	if v, _ := inst.Get("k"); v != "second" {
		t.Errorf("Get = %v, want second", v)
	}
}

func TestHasLifecycle(t *testing.T) {
	r, _, _ := testRegistry(t, false)
	inst := r.Global()

	steps := []struct {
		do   func() error
		want bool
	}{
		{func() error { return nil }, false},
		{func() error { return inst.Set("k", 1) }, true},
		{func() error { return inst.DeleteKey("k") }, false},
		{func() error { return inst.DeleteKey("k") }, false}, // missing key is fine
	}
	for i, s := range steps {
		if err := s.do(); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		if got, err := inst.Has("k"); err != nil || got != s.want {
			t.Errorf("step %d: Has = %v, %v; want %v", i, got, err, s.want)
		}
	}
}

func TestScenarioTest(t *testing.T) {
	r, _, _ := testRegistry(t, false)
	inst, err := r.Create("Test", InstanceOptions{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := inst.Set("a", map[string]any{"x": 1}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, _ := inst.Get("a")
	if diff := cmp.Diff(map[string]any{"x": float64(1)}, got); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}
	if err := inst.DeleteKey("a"); err != nil {
		t.Fatalf("DeleteKey failed: %v", err)
	}
	if got, err := inst.Get("a"); got != nil || err != nil {
		t.Errorf("Get after DeleteKey = %v, %v", got, err)
	}
}

func TestScenarioSecure(t *testing.T) {
	r, persistent, _ := testRegistry(t, false)
	inst, err := r.Create("Secure", InstanceOptions{Obfuscate: true})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := inst.Set("token", "abc123"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	raw, ok, err := persistent.Get("Secure", "token")
	if err != nil || !ok {
		t.Fatalf("raw read failed: ok=%v err=%v", ok, err)
	}
	if string(raw) == `"abc123"` || strings.Contains(string(raw), "abc123") {
		t.Errorf("stored value is readable: %q", raw)
	}
	if v, _ := inst.Get("token"); v != "abc123" {
		t.Errorf("Get = %v, want abc123", v)
	}

	// The stored bytes are the XOR of the JSON text with the key text
	key, _, _ := persistent.Get(storage.ReservedNamespace, PeerKey("Secure"))
	if diff := cmp.Diff([]byte(`"abc123"`), obfuscate.Transform(raw, string(key))); diff != "" {
		t.Errorf("stored bytes mismatch (-want +got):\n%s", diff)
	}
}

func TestKeyReuse(t *testing.T) {
	r, persistent, _ := testRegistry(t, false)

	first, err := r.Create("Vault", InstanceOptions{Obfuscate: true})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := first.Set("k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	stored, _, _ := persistent.Get(storage.ReservedNamespace, PeerKey("Vault"))

	// Re-creation replaces the registered object and reuses the stored key
	second, err := r.Create("Vault", InstanceOptions{Obfuscate: true})
	if err != nil {
		t.Fatalf("re-Create failed: %v", err)
	}
	if got, _ := r.Instance("Vault"); got != second {
		t.Error("registry should hold the re-created instance")
	}
	if v, err := second.Get("k"); err != nil || v != "v" {
		t.Errorf("Get after re-create = %v, %v", v, err)
	}
	again, _, _ := persistent.Get(storage.ReservedNamespace, PeerKey("Vault"))
	if string(again) != string(stored) {
		t.Error("stored key changed on re-create")
	}
}

func TestExplicitKey(t *testing.T) {
	r, persistent, _ := testRegistry(t, false)
	key := strings.Repeat("ab", 32)

	inst, err := r.Create("Keyed", InstanceOptions{Obfuscate: true, Key: key})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	// An explicit key is persisted when none is stored yet
	stored, _, _ := persistent.Get(storage.ReservedNamespace, PeerKey("Keyed"))
	if string(stored) != key {
		t.Errorf("stored key = %q, want %q", stored, key)
	}
	if err := inst.Set("k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// A different explicit key wins over the stored one but does not replace it
	other := strings.Repeat("cd", 32)
	wrong, err := r.Create("Keyed", InstanceOptions{Obfuscate: true, Key: other})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	stored, _, _ = persistent.Get(storage.ReservedNamespace, PeerKey("Keyed"))
	if string(stored) != key {
		t.Error("stored key must not be overwritten")
	}

	// A wrong key never panics: either an error or a different value
	v, err := wrong.Get("k")
	if err == nil && v == "v" {
		t.Error("wrong key should not decode the original value")
	}
	if err != nil && !errors.Is(err, ErrDeserialization) {
		t.Errorf("expected ErrDeserialization, got %v", err)
	}
	var de *DeserializationError
	if errors.As(err, &de) && (de.Instance != "Keyed" || de.Key != "k") {
		t.Errorf("DeserializationError = %+v", de)
	}
}

func TestPlainInstanceHasNoKey(t *testing.T) {
	r, _, _ := testRegistry(t, false)
	if _, err := r.Create("Plain", InstanceOptions{}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if ok, _ := r.HasPeerKey(storage.Persistent, "Plain"); ok {
		t.Error("plain instance must not store a key")
	}
}

func TestInvalidNames(t *testing.T) {
	r, _, _ := testRegistry(t, false)
	for _, name := range []string{"", "__quickdb", "__x", "a\x00b"} {
		if _, err := r.Create(name, InstanceOptions{}); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Create(%q): expected ErrInvalidName, got %v", name, err)
		}
	}
	if _, err := r.Create("_single", InstanceOptions{}); err != nil {
		t.Errorf("single underscore should be allowed: %v", err)
	}
}

func TestKeysAndDump(t *testing.T) {
	r, _, _ := testRegistry(t, false)

	user := r.User()
	if err := user.Set("b", 2); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := user.Set("a", "one"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	// Another instance's keys stay out
	if err := r.Global().Set("c", 3); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	keys, err := user.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, keys); diff != "" {
		t.Errorf("Keys mismatch (-want +got):\n%s", diff)
	}

	dump, err := user.Dump()
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	want := map[string]any{"a": "one", "b": float64(2)}
	if diff := cmp.Diff(want, dump); diff != "" {
		t.Errorf("Dump mismatch (-want +got):\n%s", diff)
	}
	for k := range dump {
		if strings.HasPrefix(k, PeerKeyPrefix) {
			t.Errorf("Dump leaked peer record %s", k)
		}
	}

	logs, _ := r.Logs()
	if len(logs) == 0 || logs[len(logs)-1].Message != "Dumped 2 keys" {
		t.Errorf("Dump should log an info entry, got %+v", logs)
	}
}

func TestDumpSkipsPeerPrefixedKeys(t *testing.T) {
	r, _, _ := testRegistry(t, false)
	if err := r.Global().Set(PeerKey("spoof"), "x"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	dump, err := r.Global().Dump()
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	if len(dump) != 0 {
		t.Errorf("Dump = %v, want empty", dump)
	}
}

func TestDumpCorrupt(t *testing.T) {
	r, persistent, _ := testRegistry(t, false)
	if err := persistent.Put("Global", "bad", []byte("{not json")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := r.Global().Dump(); !errors.Is(err, ErrDeserialization) {
		t.Errorf("expected ErrDeserialization, got %v", err)
	}
}

func TestDeleteDeclined(t *testing.T) {
	r, persistent, _ := testRegistry(t, false)
	user := r.User()
	if err := user.Set("auth", "x"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	before, _ := persistent.Keys("User")

	ok, err := user.Delete(context.Background(), false)
	if err != nil || ok {
		t.Fatalf("Delete = %v, %v; want false, nil", ok, err)
	}

	after, _ := persistent.Keys("User")
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("storage changed (-before +after):\n%s", diff)
	}
	if got, _ := r.Instance("User"); got != user {
		t.Error("declined delete must keep the instance registered")
	}
	if ok, _ := r.HasPeerKey(storage.Persistent, "User"); !ok {
		t.Error("declined delete must keep the key")
	}
}

func TestDeleteConfirmed(t *testing.T) {
	persistent, session := storage.NewMemory(), storage.NewMemory()
	var seen confirm.Dialog
	r, err := NewRegistry(persistent, session,
		WithConfirmer(confirm.Func(func(_ context.Context, d confirm.Dialog) bool {
			seen = d
			return true
		})),
		WithClock(func() time.Time { return fixedTime }),
	)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	user := r.User()
	if err := user.Set("auth", "x"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	ok, err := user.Delete(context.Background(), false)
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v; want true, nil", ok, err)
	}

	want := confirm.Dialog{
		Title:        `Delete Instance "User"`,
		Message:      "Are you sure you want to delete this instance(User) and all its data?",
		ConfirmLabel: "Delete",
		CancelLabel:  "Cancel",
		Severity:     confirm.SeverityDelete,
	}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("dialog mismatch (-want +got):\n%s", diff)
	}

	logs, _ := r.Logs()
	last := logs[len(logs)-1]
	wantEntry := LogEntry{
		Timestamp: "2025-03-14T09:26:53.589Z",
		Level:     LevelInfo,
		Instance:  "User",
		Message:   `Instance "User" has been deleted`,
	}
	if diff := cmp.Diff(wantEntry, last); diff != "" {
		t.Errorf("log entry mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteForced(t *testing.T) {
	// The confirmer would decline; force skips it
	r, persistent, _ := testRegistry(t, false)
	user := r.User()
	for i := 0; i < 3; i++ {
		if err := user.Set(fmt.Sprintf("k%d", i), i); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	if err := r.Global().Set("keep", true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	ok, err := user.Delete(context.Background(), true)
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v; want true, nil", ok, err)
	}

	if keys, _ := persistent.Keys("User"); len(keys) != 0 {
		t.Errorf("keys left after delete: %v", keys)
	}
	if ok, _ := r.HasPeerKey(storage.Persistent, "User"); ok {
		t.Error("key record left after delete")
	}
	if _, ok := r.Instance("User"); ok || r.User() != nil {
		t.Error("instance still registered after delete")
	}
	if v, _ := r.Global().Get("keep"); v != true {
		t.Error("other instance lost data")
	}
}

func TestDeleteKeepsRecreated(t *testing.T) {
	r, _, _ := testRegistry(t, true)
	old, _ := r.Create("Temp", InstanceOptions{})
	fresh, _ := r.Create("Temp", InstanceOptions{})

	if ok, err := old.Delete(context.Background(), true); err != nil || !ok {
		t.Fatalf("Delete = %v, %v", ok, err)
	}
	if got, ok := r.Instance("Temp"); !ok || got != fresh {
		t.Error("deleting a stale instance must not unregister its replacement")
	}
}

func TestDeleteCancelledContext(t *testing.T) {
	persistent, session := storage.NewMemory(), storage.NewMemory()
	r, err := NewRegistry(persistent, session, WithConfirmer(confirm.Line{}))
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if ok, err := r.Global().Delete(ctx, false); ok || err != nil {
		t.Errorf("Delete = %v, %v; want false, nil", ok, err)
	}
}

func TestClearArea(t *testing.T) {
	r, persistent, _ := testRegistry(t, false)
	if err := r.Global().Set("a", 1); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := r.Global().ClearArea(); err != nil {
		t.Fatalf("ClearArea failed: %v", err)
	}
	names, _ := persistent.Namespaces()
	if len(names) != 0 {
		t.Errorf("namespaces left after clear: %v", names)
	}
	logs, _ := r.Logs()
	if len(logs) == 0 || logs[len(logs)-1].Level != LevelWarn {
		t.Errorf("ClearArea should log a warning, got %+v", logs)
	}
}

func TestSessionInstance(t *testing.T) {
	r, persistent, session := testRegistry(t, false)
	inst, err := r.Create("Scratch", InstanceOptions{Area: storage.Session})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if inst.Kind() != storage.Session {
		t.Errorf("Kind = %s", inst.Kind())
	}
	if err := inst.Set("k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok, _ := session.Get("Scratch", "k"); !ok {
		t.Error("value should be in the session area")
	}
	if _, ok, _ := persistent.Get("Scratch", "k"); ok {
		t.Error("value must not reach the persistent area")
	}
}

func TestDetachedKey(t *testing.T) {
	r, persistent, _ := testRegistry(t, false)
	key := strings.Repeat("ab", 32)

	inst, err := r.Create("Vault", InstanceOptions{Obfuscate: true, Key: key, DetachedKey: true})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, ok, _ := persistent.Get(storage.ReservedNamespace, PeerKey("Vault")); ok {
		t.Error("detached key must not be stored")
	}
	if err := inst.Set("k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	again, err := r.Create("Vault", InstanceOptions{Obfuscate: true, Key: key, DetachedKey: true})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if v, err := again.Get("k"); err != nil || v != "v" {
		t.Errorf("Get = %v, %v; want v", v, err)
	}
}

func TestSessionPeerKey(t *testing.T) {
	r, _, session := testRegistry(t, false)
	if _, err := r.Create("Scratch", InstanceOptions{Obfuscate: true, Area: storage.Session}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, ok, _ := session.Get(storage.ReservedNamespace, PeerKey("Scratch")); !ok {
		t.Fatal("key should be stored in the session area")
	}
	if ok, err := r.HasPeerKey(storage.Session, "Scratch"); err != nil || !ok {
		t.Errorf("HasPeerKey(Session) = %v, %v; want true", ok, err)
	}
	if ok, _ := r.HasPeerKey(storage.Persistent, "Scratch"); ok {
		t.Error("no key should be stored in the persistent area")
	}
}

func TestLogLevels(t *testing.T) {
	r, _, session := testRegistry(t, false)
	g := r.Global()

	g.Log("plain")
	g.Log("careful", LevelWarn)
	g.Log("broken", LevelError)

	logs, err := r.Logs()
	if err != nil {
		t.Fatalf("Logs failed: %v", err)
	}
	want := []LogEntry{
		{Timestamp: "2025-03-14T09:26:53.589Z", Level: LevelInfo, Instance: "Global", Message: "plain"},
		{Timestamp: "2025-03-14T09:26:53.589Z", Level: LevelWarn, Instance: "Global", Message: "careful"},
		{Timestamp: "2025-03-14T09:26:53.589Z", Level: LevelError, Instance: "Global", Message: "broken"},
	}
	if diff := cmp.Diff(want, logs); diff != "" {
		t.Errorf("logs mismatch (-want +got):\n%s", diff)
	}

	// The record itself is a JSON array with the exact field names
	raw, _, _ := session.Get(storage.ReservedNamespace, LogsKey)
	if !strings.HasPrefix(string(raw), `[{"timestamp":"2025-03-14T09:26:53.589Z","level":"info","instance":"Global","message":"plain"}`) {
		t.Errorf("unexpected log record: %s", raw)
	}

	if err := r.ClearLogs(); err != nil {
		t.Fatalf("ClearLogs failed: %v", err)
	}
	if logs, _ := r.Logs(); len(logs) != 0 {
		t.Errorf("logs after clear: %v", logs)
	}
}

func TestLogNeverFails(t *testing.T) {
	r, _, session := testRegistry(t, false)
	session.Close()

	// Must not panic with the session area gone
	r.Global().Log("lost")
	if _, err := r.Logs(); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
