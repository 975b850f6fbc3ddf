package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepOrphans(t *testing.T) {
	s, fs := newMemStore(t, Options{})

	// полноценный объект не трогаем, даже старый
	_, err := s.Create(context.Background(), "complete", "text/plain", bytes.NewBufferString("ok"))
	require.NoError(t, err)

	stale := "/store-" + Key("stale")
	fresh := "/store-" + Key("fresh")
	require.NoError(t, afero.WriteFile(fs, stale, []byte("half"), 0o644))
	require.NoError(t, afero.WriteFile(fs, fresh, []byte("half"), 0o644))

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, fs.Chtimes(stale, old, old))
	require.NoError(t, fs.Chtimes("/store-"+Key("complete"), old, old))

	removed, err := s.SweepOrphans(time.Now(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	ok, _ := afero.Exists(fs, stale)
	assert.False(t, ok, "stale orphan not removed")
	ok, _ = afero.Exists(fs, fresh)
	assert.True(t, ok, "fresh orphan removed")
	_, err = s.Stat("complete")
	assert.NoError(t, err)
}

// stallingReader отдаёт первую порцию и ждёт release перед остатком.
type stallingReader struct {
	step    int
	first   []byte
	rest    []byte
	fail    error
	stalled chan struct{}
	release chan struct{}
}

func (r *stallingReader) Read(p []byte) (int, error) {
	switch r.step {
	case 0:
		r.step++
		return copy(p, r.first), nil
	case 1:
		r.step++
		close(r.stalled)
		<-r.release
		if r.fail != nil {
			return 0, r.fail
		}
		return copy(p, r.rest), nil
	default:
		return 0, io.EOF
	}
}

// Зависшую загрузку GC может принять за сироту. Занявший ключ следующий писатель
// не должен пострадать ни при успешном, ни при неудачном завершении первого.
func TestSweepOrphans_StalledUploadDoesNotClobberNewWriter(t *testing.T) {
	cases := map[string]error{
		"first writer completes": nil,
		"first writer fails":     errors.New("connection reset"),
	}
	for name, fail := range cases {
		for fsName, newFs := range map[string]func() afero.Fs{
			"mem": afero.NewMemMapFs,
			"os":  func() afero.Fs { return afero.NewBasePathFs(afero.NewOsFs(), t.TempDir()) },
		} {
			t.Run(name+"/"+fsName, func(t *testing.T) {
				fs := newFs()
				s := New(fs, Options{})

				slow := &stallingReader{
					first:   []byte("AA"),
					rest:    []byte("A"),
					fail:    fail,
					stalled: make(chan struct{}),
					release: make(chan struct{}),
				}
				done := make(chan error, 1)
				go func() {
					_, err := s.Create(context.Background(), "n", "text/first", slow)
					done <- err
				}()
				<-slow.stalled

				path := "/store-" + Key("n")
				old := time.Now().Add(-48 * time.Hour)
				require.NoError(t, fs.Chtimes(path, old, old))
				removed, err := s.SweepOrphans(time.Now(), 24*time.Hour)
				require.NoError(t, err)
				require.Equal(t, 1, removed)

				_, err = s.Create(context.Background(), "n", "image/second", bytes.NewBufferString("BBB"))
				require.NoError(t, err)

				close(slow.release)
				assert.Error(t, <-done)

				b, info := readAll(t, s, "n")
				assert.Equal(t, "BBB", string(b))
				assert.Equal(t, "image/second", info.ContentType)
				assert.True(t, info.TypeKnown)
			})
		}
	}
}

func TestSweepOrphans_DanglingSidecar(t *testing.T) {
	s, fs := newMemStore(t, Options{})

	// sidecar без контента (контент удалён снаружи) иначе навсегда блокирует имя
	dangling := "/store-" + Key("gone") + "-type"
	require.NoError(t, afero.WriteFile(fs, dangling, []byte("text/plain"), 0o644))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, fs.Chtimes(dangling, old, old))

	_, err := s.Create(context.Background(), "gone", "text/plain", bytes.NewBufferString("x"))
	require.Error(t, err)
	ok, _ := afero.Exists(fs, "/store-"+Key("gone"))
	assert.False(t, ok, "content left after failed sidecar write")
	ok, _ = afero.Exists(fs, dangling)
	assert.True(t, ok, "foreign sidecar removed by failed writer")

	removed, err := s.SweepOrphans(time.Now(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = s.Create(context.Background(), "gone", "text/plain", bytes.NewBufferString("x"))
	require.NoError(t, err)
}
