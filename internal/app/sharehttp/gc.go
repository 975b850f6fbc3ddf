package sharehttp

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Sweeper удаляет осиротевшие контентные файлы (реализуется store.Store).
type Sweeper interface {
	SweepOrphans(now time.Time, ttl time.Duration) (int, error)
}

// StartGC стартует периодическую очистку каталога и возвращает функцию остановки.
func StartGC(s Sweeper, l *log.Logger, ttl time.Duration, every time.Duration) func() {
	if every <= 0 || ttl <= 0 {
		return func() {}
	}

	ticker := time.NewTicker(every)
	stop := make(chan struct{})
	var once sync.Once
	go func() {
		for {
			select {
			case <-ticker.C:
				sweepOnce(s, l, ttl)
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			close(stop)
		})
	}
}

func sweepOnce(s Sweeper, l *log.Logger, ttl time.Duration) {
	removed, err := s.SweepOrphans(time.Now(), ttl)
	if err != nil {
		l.Error("gc sweep failed", "err", err)
		return
	}
	if removed > 0 {
		l.Info("gc removed orphaned uploads", "count", removed)
	}
}
