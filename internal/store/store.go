// Package store хранит загруженные объекты на локальном диске под детерминированными
// именами: store-<sha256(name)> для содержимого и store-<sha256(name)>-type для MIME-типа.
//
// Взаимное исключение писателей целиком делегировано файловой системе: контентный файл
// открывается с O_EXCL, поэтому из конкурирующих PUT'ов на один ключ выигрывает ровно один,
// в том числе если шлюз запущен в нескольких процессах над общим каталогом.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/afero/mem"
	"github.com/yourname/share_lite/internal/models"
	"github.com/yourname/share_lite/pkg/shareproto"
)

const (
	root             = "/"
	filePerm         = 0o644
	DefaultChunkSize = 4096
)

// Observer получает сведения о каждой операции стора (см. internal/metrics).
type Observer interface {
	Observe(op string, bytes int64, err error, dur time.Duration)
}

// Options — настройки стора, передаваемые при конструировании.
type Options struct {
	// ChunkSize — размер буфера потокового копирования; пиковое потребление памяти на запрос.
	ChunkSize int
	// MaxBytes ограничивает фактически принятый объём тела; 0 — без ограничения.
	MaxBytes int64
	Observer Observer
}

// Store — хранилище объектов поверх afero.Fs.
type Store struct {
	fs       afero.Fs
	chunk    int
	maxBytes int64
	obs      Observer
}

// New создаёт стор поверх произвольной файловой системы; корень fs считается каталогом стора.
func New(fs afero.Fs, opts Options) *Store {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}

	return &Store{
		fs:       fs,
		chunk:    opts.ChunkSize,
		maxBytes: opts.MaxBytes,
		obs:      opts.Observer,
	}
}

// Open создаёт каталог dir при необходимости и возвращает стор, запертый внутри него.
func Open(dir string, opts Options) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("store dir %q: %w", dir, err)
	}
	if err = os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("store dir %q: %w", abs, err)
	}

	return New(afero.NewBasePathFs(afero.NewOsFs(), abs), opts), nil
}

// Key возвращает ключ хранения для имени загрузки.
func Key(name string) string {
	sum := sha256.Sum256([]byte(name))

	return hex.EncodeToString(sum[:])
}

func contentPath(key string) string {
	return filepath.Join(root, shareproto.StorePrefix+key)
}

func typePath(key string) string {
	return contentPath(key) + shareproto.TypeSuffix
}

// Create записывает объект ровно один раз. Если контентный файл уже существует,
// возвращается models.ErrExists и ничего не меняется. При любой ошибке после создания
// файла удаляется только то, что создал этот писатель, чтобы недописанный объект
// не стал доступен на чтение и чужой объект не пострадал.
func (s *Store) Create(ctx context.Context, name, contentType string, body io.Reader) (n int64, err error) {
	start := time.Now()
	defer func() { s.observe("put", n, err, time.Since(start)) }()

	key := Key(name)
	path := contentPath(key)

	f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return 0, fmt.Errorf("create %s: %w", key, models.ErrExists)
		}
		return 0, fmt.Errorf("create %s: %w", key, err)
	}
	own, err := f.Stat()
	if err != nil {
		_ = f.Close()
		_ = s.fs.Remove(path)
		return 0, fmt.Errorf("stat %s: %w", key, err)
	}

	var typeCreated bool
	defer func() {
		if err == nil {
			return
		}
		if typeCreated {
			_ = s.fs.Remove(typePath(key))
		}
		if s.owns(path, own) {
			_ = s.fs.Remove(path)
		}
	}()

	n, err = s.copyBody(ctx, f, body)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", key, cerr)
	}
	if err != nil {
		return n, err
	}

	// Пока тело писалось, GC мог счесть файл сиротой, а другой PUT занять ключ.
	if !s.owns(path, own) {
		return n, fmt.Errorf("create %s: %w", key, errReplaced)
	}
	typeCreated, err = s.writeType(key, contentType)
	if err != nil {
		return n, fmt.Errorf("write type %s: %w", key, err)
	}
	if !s.owns(path, own) {
		return n, fmt.Errorf("create %s: %w", key, errReplaced)
	}

	return n, nil
}

// errReplaced — контентный файл писателя удалили или подменили во время загрузки.
var errReplaced = errors.New("content file replaced during upload")

// owns сообщает, что по path всё ещё лежит файл, открытый этим писателем.
func (s *Store) owns(path string, own os.FileInfo) bool {
	fi, err := s.fs.Stat(path)
	if err != nil {
		return false
	}
	return sameFile(own, fi)
}

// sameFile сравнивает файлы по идентичности, а не по имени. mem.FileInfo из
// afero.MemMapFs не несёт inode, поэтому для него сравниваются сами данные.
func sameFile(a, b os.FileInfo) bool {
	if ma, ok := a.(*mem.FileInfo); ok {
		mb, ok := b.(*mem.FileInfo)
		return ok && ma.FileData == mb.FileData
	}
	return os.SameFile(a, b)
}

// writeType создаёт sidecar эксклюзивно: существующий sidecar никогда не перезаписывается.
// created истинно, если файл был создан этим вызовом (даже при ошибке записи).
func (s *Store) writeType(key, contentType string) (created bool, err error) {
	tf, err := s.fs.OpenFile(typePath(key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return false, err
	}
	_, err = io.WriteString(tf, contentType)
	if cerr := tf.Close(); err == nil {
		err = cerr
	}

	return true, err
}

func (s *Store) copyBody(ctx context.Context, dst io.Writer, body io.Reader) (int64, error) {
	src := io.Reader(&ctxReader{ctx: ctx, r: body})
	if s.maxBytes > 0 {
		src = io.LimitReader(src, s.maxBytes+1)
	}

	// writerOnly прячет ReadFrom у *os.File, иначе CopyBuffer проигнорирует наш буфер.
	n, err := io.CopyBuffer(writerOnly{dst}, src, make([]byte, s.chunk))
	if err != nil {
		return n, fmt.Errorf("copy body: %w", err)
	}
	if s.maxBytes > 0 && n > s.maxBytes {
		return n, fmt.Errorf("copy body: %w", models.ErrTooLarge)
	}

	return n, nil
}

// Stat возвращает метаданные объекта, не открывая его содержимое.
func (s *Store) Stat(name string) (info models.ObjectInfo, err error) {
	start := time.Now()
	defer func() { s.observe("stat", 0, err, time.Since(start)) }()

	return s.stat(Key(name))
}

func (s *Store) stat(key string) (models.ObjectInfo, error) {
	fi, err := s.fs.Stat(contentPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.ObjectInfo{}, fmt.Errorf("stat %s: %w", key, models.ErrNotFound)
		}
		return models.ObjectInfo{}, fmt.Errorf("stat %s: %w", key, err)
	}
	if fi.IsDir() {
		return models.ObjectInfo{}, fmt.Errorf("stat %s: %w", key, models.ErrNotFound)
	}

	info := models.ObjectInfo{
		Key:         key,
		Size:        fi.Size(),
		ContentType: shareproto.DefaultContentType,
	}

	// Пустой или нечитаемый sidecar трактуем как неизвестный тип.
	if b, err := afero.ReadFile(s.fs, typePath(key)); err == nil && len(b) > 0 {
		info.ContentType = string(b)
		info.TypeKnown = true
	}

	return info, nil
}

// Get открывает объект на чтение. Вызывающий обязан закрыть поток.
func (s *Store) Get(name string) (rc io.ReadCloser, info models.ObjectInfo, err error) {
	start := time.Now()
	defer func() { s.observe("get", info.Size, err, time.Since(start)) }()

	key := Key(name)
	f, err := s.fs.Open(contentPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, models.ObjectInfo{}, fmt.Errorf("open %s: %w", key, models.ErrNotFound)
		}
		return nil, models.ObjectInfo{}, fmt.Errorf("open %s: %w", key, err)
	}

	info, err = s.stat(key)
	if err != nil {
		_ = f.Close()
		return nil, models.ObjectInfo{}, err
	}

	return f, info, nil
}

// ChunkSize возвращает размер буфера потокового копирования.
func (s *Store) ChunkSize() int {
	return s.chunk
}

// Usage суммирует размеры всех файлов стора.
func (s *Store) Usage() (models.Usage, error) {
	entries, err := afero.ReadDir(s.fs, root)
	if err != nil {
		return models.Usage{}, err
	}

	var u models.Usage
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), shareproto.StorePrefix) {
			continue
		}
		u.TotalBytes += e.Size()
		if !strings.HasSuffix(e.Name(), shareproto.TypeSuffix) {
			u.Objects++
		}
	}

	return u, nil
}

func (s *Store) observe(op string, bytes int64, err error, dur time.Duration) {
	if s.obs == nil {
		return
	}
	s.obs.Observe(op, bytes, err, dur)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

type writerOnly struct {
	io.Writer
}
