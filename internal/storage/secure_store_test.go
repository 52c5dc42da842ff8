package storage

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeClock struct {
	now time.Time
}

func (clock *fakeClock) Now() time.Time { return clock.now }

func (clock *fakeClock) Advance(d time.Duration) { clock.now = clock.now.Add(d) }

func newTestStore(t *testing.T, backend Backend, clock *fakeClock) *SecureStore {
	t.Helper()
	return NewSecureStore(backend, Config{Now: clock.Now}, zap.NewNop())
}

type nestedValue struct {
	Name    string            `json:"name"`
	Count   int               `json:"count"`
	Ratio   float64           `json:"ratio"`
	Tags    []string          `json:"tags"`
	Labels  map[string]string `json:"labels"`
	Enabled bool              `json:"enabled"`
	When    time.Time         `json:"when"`
}

func TestSetGetRoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)}
	store := newTestStore(t, NewMemoryBackend(), clock)

	want := nestedValue{
		Name:    "deep work",
		Count:   3,
		Ratio:   0.85,
		Tags:    []string{"quiet", "bright"},
		Labels:  map[string]string{"room": "office"},
		Enabled: true,
		When:    clock.now,
	}
	require.NoError(t, store.SetItem("session", want))

	got, ok := Load[nestedValue](store, "session")
	require.True(t, ok)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStoredPayloadIsObfuscatedAndNamespaced(t *testing.T) {
	backend := NewMemoryBackend()
	store := newTestStore(t, backend, &fakeClock{now: time.Now()})
	require.NoError(t, store.SetItem("prefs", map[string]string{"theme": "dark"}))

	raw, err := backend.Get(DefaultNamespace + "prefs")
	require.NoError(t, err)
	assert.NotContains(t, raw, "dark")
	assert.False(t, strings.HasPrefix(raw, "{"))
}

func TestExpiredItemIsAbsentAndRemoved(t *testing.T) {
	backend := NewMemoryBackend()
	clock := &fakeClock{now: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)}
	store := newTestStore(t, backend, clock)

	require.NoError(t, store.SetItemWithTTL("short", "value", time.Millisecond))
	clock.Advance(2 * time.Millisecond)

	var out string
	assert.False(t, store.GetItem("short", &out))
	_, err := backend.Get(DefaultNamespace + "short")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubMillisecondTTLStillExpires(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)}
	store := newTestStore(t, NewMemoryBackend(), clock)

	require.NoError(t, store.SetItemWithTTL("blink", 1, 500*time.Microsecond))
	clock.Advance(time.Hour)

	_, ok := Load[int](store, "blink")
	assert.False(t, ok)
	assert.Equal(t, int64(1), ttlMillis(500*time.Microsecond))
	assert.Equal(t, int64(2), ttlMillis(1500*time.Microsecond))
	assert.Equal(t, int64(0), ttlMillis(0))
}

func TestZeroTTLNeverExpires(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store := newTestStore(t, NewMemoryBackend(), clock)
	require.NoError(t, store.SetItemWithTTL("forever", 42, 0))
	clock.Advance(10 * 365 * 24 * time.Hour)

	value, ok := Load[int](store, "forever")
	require.True(t, ok)
	assert.Equal(t, 42, value)
}

func TestStartupSweepRemovesExpiredItems(t *testing.T) {
	backend := NewMemoryBackend()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := newTestStore(t, backend, clock)
	require.NoError(t, store.SetItemWithTTL("old", 1, time.Hour))
	require.NoError(t, store.SetItemWithTTL("fresh", 2, 48*time.Hour))
	require.NoError(t, backend.Set("unrelated", "keep me"))

	clock.Advance(2 * time.Hour)
	newTestStore(t, backend, clock)

	keys, err := backend.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultNamespace + "fresh", "unrelated"}, keys)
}

func TestLegacyPlainRecordIsReadable(t *testing.T) {
	backend := NewMemoryBackend()
	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	require.NoError(t, backend.Set(DefaultNamespace+"legacy", `{"value":{"count":7},"written_at":1700000000000,"ttl":0}`))
	store := newTestStore(t, backend, clock)

	var out struct {
		Count int `json:"count"`
	}
	require.True(t, store.GetItem("legacy", &out))
	assert.Equal(t, 7, out.Count)
}

func TestGarbageRecordReadsAsAbsent(t *testing.T) {
	backend := NewMemoryBackend()
	require.NoError(t, backend.Set(DefaultNamespace+"junk", "%%% not a record %%%"))
	store := newTestStore(t, backend, &fakeClock{now: time.Now()})

	var out any
	assert.NotPanics(t, func() {
		assert.False(t, store.GetItem("junk", &out))
	})
}

type failingCodec struct{}

func (failingCodec) Encode([]byte) (string, error) { return "", errors.New("codec down") }
func (failingCodec) Decode(string) ([]byte, error) { return nil, errors.New("codec down") }

func TestEncodeFailureFallsBackToPlainWrite(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	backend := NewMemoryBackend()
	store := NewSecureStore(backend, Config{Codec: failingCodec{}}, zap.New(core))

	require.NoError(t, store.SetItem("k", "v"))
	raw, err := backend.Get(DefaultNamespace + "k")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "{"))

	value, ok := Load[string](store, "k")
	require.True(t, ok)
	assert.Equal(t, "v", value)
	assert.Equal(t, 1, logs.FilterMessage("obfuscation failed, storing plain record").Len())
}

// quotaBackend rejects obfuscated payloads or, when full, every write.
type quotaBackend struct {
	*MemoryBackend
	rejectEncoded bool
	full          bool
}

func (backend *quotaBackend) Set(key, value string) error {
	if backend.full || (backend.rejectEncoded && !strings.HasPrefix(value, "{")) {
		return errors.New("quota exceeded")
	}
	return backend.MemoryBackend.Set(key, value)
}

func TestBackendFailureRetriesPlainThenDrops(t *testing.T) {
	backend := &quotaBackend{MemoryBackend: NewMemoryBackend(), rejectEncoded: true}
	core, logs := observer.New(zapcore.WarnLevel)
	store := NewSecureStore(backend, Config{}, zap.New(core))

	require.NoError(t, store.SetItem("retry", 5))
	value, ok := Load[int](store, "retry")
	require.True(t, ok)
	assert.Equal(t, 5, value)

	backend.full = true
	err := store.SetItem("dropped", 6)
	require.Error(t, err)
	_, ok = Load[int](store, "dropped")
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("write dropped").Len())
}

func TestClearOnlyTouchesNamespace(t *testing.T) {
	backend := NewMemoryBackend()
	store := newTestStore(t, backend, &fakeClock{now: time.Now()})
	require.NoError(t, store.SetItem("a", 1))
	require.NoError(t, store.SetItem("b", 2))
	require.NoError(t, backend.Set("other_app", "x"))

	require.NoError(t, store.Clear())

	keys, err := backend.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"other_app"}, keys)
}

func TestRemoveItem(t *testing.T) {
	store := newTestStore(t, NewMemoryBackend(), &fakeClock{now: time.Now()})
	require.NoError(t, store.SetItem("gone", true))
	require.NoError(t, store.RemoveItem("gone"))
	_, ok := Load[bool](store, "gone")
	assert.False(t, ok)
}

func TestExportImportMigratesLiveItems(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)}
	source := newTestStore(t, NewMemoryBackend(), clock)
	require.NoError(t, source.SetItem("points", map[string]int{"total": 120}))
	require.NoError(t, source.SetItem("theme", "dark"))
	require.NoError(t, source.SetItemWithTTL("stale", "x", time.Minute))
	clock.Advance(time.Hour)

	exported, err := source.Export()
	require.NoError(t, err)
	assert.NotContains(t, string(exported), "stale")

	target := newTestStore(t, NewMemoryBackend(), clock)
	imported, err := target.Import(exported)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	points, ok := Load[map[string]int](target, "points")
	require.True(t, ok)
	assert.Equal(t, 120, points["total"])
	theme, ok := Load[string](target, "theme")
	require.True(t, ok)
	assert.Equal(t, "dark", theme)
}

func TestImportRejectsMalformedDocument(t *testing.T) {
	store := newTestStore(t, NewMemoryBackend(), &fakeClock{now: time.Now()})
	_, err := store.Import([]byte("[1, 2"))
	assert.Error(t, err)
}
