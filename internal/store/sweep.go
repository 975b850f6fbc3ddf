package store

import (
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/yourname/share_lite/pkg/shareproto"
)

// SweepOrphans удаляет контентные файлы без sidecar'а, не менявшиеся дольше ttl.
// Такие файлы остаются, если процесс упал между созданием объекта и записью типа.
// Заодно убираются старые sidecar'ы без контента: иначе имя навсегда осталось бы занятым.
// Возвращает число удалённых файлов.
func (s *Store) SweepOrphans(now time.Time, ttl time.Duration) (removed int, err error) {
	start := time.Now()
	defer func() { s.observe("sweep", 0, err, time.Since(start)) }()

	entries, err := afero.ReadDir(s.fs, root)
	if err != nil {
		return 0, err
	}

	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		names[e.Name()] = struct{}{}
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, shareproto.StorePrefix) || now.Sub(e.ModTime()) < ttl {
			continue
		}

		if strings.HasSuffix(name, shareproto.TypeSuffix) {
			key := strings.TrimSuffix(strings.TrimPrefix(name, shareproto.StorePrefix), shareproto.TypeSuffix)
			if _, ok := names[shareproto.StorePrefix+key]; ok {
				continue
			}
			if ok, _ := afero.Exists(s.fs, contentPath(key)); ok {
				continue
			}
			if err := s.fs.Remove(typePath(key)); err == nil {
				removed++
			}
			continue
		}

		if _, ok := names[name+shareproto.TypeSuffix]; ok {
			continue
		}
		key := strings.TrimPrefix(name, shareproto.StorePrefix)
		// Файл мог получить sidecar между ReadDir и этой проверкой.
		if ok, _ := afero.Exists(s.fs, typePath(key)); ok {
			continue
		}
		if err := s.fs.Remove(contentPath(key)); err == nil {
			removed++
		}
	}

	return removed, nil
}
