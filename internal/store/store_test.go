package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourname/share_lite/internal/models"
)

func newMemStore(t *testing.T, opts Options) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return New(fs, opts), fs
}

func readAll(t *testing.T, s *Store, name string) ([]byte, models.ObjectInfo) {
	t.Helper()
	rc, info, err := s.Get(name)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return b, info
}

func TestKey(t *testing.T) {
	sum := sha256.Sum256([]byte("abc.png"))
	assert.Equal(t, hex.EncodeToString(sum[:]), Key("abc.png"))
	assert.Len(t, Key(""), 64)
}

func TestCreateAndGet(t *testing.T) {
	s, fs := newMemStore(t, Options{ChunkSize: 2})

	n, err := s.Create(context.Background(), "abc.png", "image/png", bytes.NewReader([]byte{1, 2, 3}))
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	key := Key("abc.png")
	ok, _ := afero.Exists(fs, "/store-"+key)
	assert.True(t, ok)
	typ, err := afero.ReadFile(fs, "/store-"+key+"-type")
	require.NoError(t, err)
	assert.Equal(t, "image/png", string(typ))

	body, info := readAll(t, s, "abc.png")
	assert.Equal(t, []byte{1, 2, 3}, body)
	assert.EqualValues(t, 3, info.Size)
	assert.Equal(t, "image/png", info.ContentType)
	assert.True(t, info.TypeKnown)
}

func TestCreate_SecondWriteConflicts(t *testing.T) {
	s, _ := newMemStore(t, Options{})

	_, err := s.Create(context.Background(), "a", "text/plain", bytes.NewBufferString("first"))
	require.NoError(t, err)

	_, err = s.Create(context.Background(), "a", "image/png", bytes.NewBufferString("second"))
	assert.ErrorIs(t, err, models.ErrExists)

	body, info := readAll(t, s, "a")
	assert.Equal(t, "first", string(body))
	assert.Equal(t, "text/plain", info.ContentType)
}

type failingReader struct {
	data []byte
	sent bool
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.sent {
		return 0, errors.New("connection reset")
	}
	f.sent = true
	return copy(p, f.data), nil
}

func TestCreate_InterruptedBodyLeavesNothing(t *testing.T) {
	s, fs := newMemStore(t, Options{})

	_, err := s.Create(context.Background(), "broken", "text/plain", &failingReader{data: []byte("partial")})
	require.Error(t, err)

	key := Key("broken")
	for _, p := range []string{"/store-" + key, "/store-" + key + "-type"} {
		ok, _ := afero.Exists(fs, p)
		assert.False(t, ok, p)
	}

	// имя снова свободно
	_, err = s.Create(context.Background(), "broken", "text/plain", bytes.NewBufferString("ok"))
	assert.NoError(t, err)
}

func TestCreate_CanceledContext(t *testing.T) {
	s, fs := newMemStore(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Create(ctx, "late", "text/plain", bytes.NewBufferString("data"))
	assert.ErrorIs(t, err, context.Canceled)
	ok, _ := afero.Exists(fs, "/store-"+Key("late"))
	assert.False(t, ok)
}

func TestCreate_MaxBytes(t *testing.T) {
	s, fs := newMemStore(t, Options{MaxBytes: 4})

	_, err := s.Create(context.Background(), "big", "text/plain", bytes.NewBufferString("12345"))
	assert.ErrorIs(t, err, models.ErrTooLarge)
	ok, _ := afero.Exists(fs, "/store-"+Key("big"))
	assert.False(t, ok)

	_, err = s.Create(context.Background(), "fits", "text/plain", bytes.NewBufferString("1234"))
	assert.NoError(t, err)
}

func TestGet_NotFound(t *testing.T) {
	s, _ := newMemStore(t, Options{})

	_, _, err := s.Get("missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = s.Stat("missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStat_MissingOrEmptySidecar(t *testing.T) {
	s, fs := newMemStore(t, Options{})
	key := Key("raw")
	require.NoError(t, afero.WriteFile(fs, "/store-"+key, []byte("xyz"), 0o644))

	info, err := s.Stat("raw")
	require.NoError(t, err)
	assert.False(t, info.TypeKnown)
	assert.Equal(t, "application/octet-stream", info.ContentType)
	assert.EqualValues(t, 3, info.Size)

	require.NoError(t, afero.WriteFile(fs, "/store-"+key+"-type", nil, 0o644))
	info, err = s.Stat("raw")
	require.NoError(t, err)
	assert.False(t, info.TypeKnown)
}

func TestOpen_ConfinedToDir(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, Options{})
	require.NoError(t, err)

	name := "../../../etc/passwd"
	_, err = s.Create(context.Background(), name, "text/plain", bytes.NewBufferString("x"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "store-"+Key(name)))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "store-"+Key(name)+"-type"))
	assert.NoError(t, err)
}

func TestCreate_ConcurrentSingleWinner(t *testing.T) {
	s, err := Open(t.TempDir(), Options{})
	require.NoError(t, err)

	const writers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []int
		others  int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload := bytes.Repeat([]byte(fmt.Sprintf("%02d", i)), 4096)
			_, err := s.Create(context.Background(), "race", "text/plain", bytes.NewReader(payload))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, i)
			case errors.Is(err, models.ErrExists):
				others++
			default:
				t.Errorf("writer %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, writers-1, others)

	body, _ := readAll(t, s, "race")
	assert.Equal(t, bytes.Repeat([]byte(fmt.Sprintf("%02d", winners[0])), 4096), body)
}

func TestUsage(t *testing.T) {
	s, _ := newMemStore(t, Options{})
	_, err := s.Create(context.Background(), "a", "text/plain", bytes.NewBufferString("12345"))
	require.NoError(t, err)
	_, err = s.Create(context.Background(), "b", "img", bytes.NewBufferString("1"))
	require.NoError(t, err)

	u, err := s.Usage()
	require.NoError(t, err)
	assert.Equal(t, 2, u.Objects)
	assert.EqualValues(t, 5+len("text/plain")+1+len("img"), u.TotalBytes)
}

type recordingObserver struct {
	mu  sync.Mutex
	ops []string
}

func (r *recordingObserver) Observe(op string, _ int64, err error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		op += ":err"
	}
	r.ops = append(r.ops, op)
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	s, _ := newMemStore(t, Options{Observer: obs})

	_, _ = s.Create(context.Background(), "a", "t", bytes.NewBufferString("x"))
	_, _ = s.Create(context.Background(), "a", "t", bytes.NewBufferString("x"))
	_, _, _ = s.Get("nope")

	assert.Equal(t, []string{"put", "put:err", "get:err"}, obs.ops)
}
