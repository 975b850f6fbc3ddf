package sharehttp

import (
	"context"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yourname/share_lite/internal/logging"
	"github.com/yourname/share_lite/internal/metrics"
	"github.com/yourname/share_lite/internal/models"
)

// ObjectStore — то, что шлюзу нужно от хранилища (реализуется store.Store).
type ObjectStore interface {
	Create(ctx context.Context, name, contentType string, body io.Reader) (int64, error)
	Get(name string) (io.ReadCloser, models.ObjectInfo, error)
	Stat(name string) (models.ObjectInfo, error)
	Usage() (models.Usage, error)
	ChunkSize() int
}

// Deps — зависимости шлюза, передаются при конструировании.
type Deps struct {
	Store    ObjectStore
	Secret   string
	BasePath string // нормализованный, вида "/share/"
	// MaxUploadBytes ограничивает заявленный размер загрузки; 0 — без ограничения.
	MaxUploadBytes int64
	Logger         *log.Logger
	Metrics        *metrics.Metrics
}

// Server serves the upload gateway API on top of an ObjectStore.
type Server struct {
	store    ObjectStore
	secret   string
	basePath string
	maxBytes int64
	log      *log.Logger
	metrics  *metrics.Metrics
}

// New создаёт HTTP-обработчик шлюза.
func New(deps Deps) http.Handler {
	srv := &Server{
		store:    deps.Store,
		secret:   deps.Secret,
		basePath: deps.BasePath,
		maxBytes: deps.MaxUploadBytes,
		log:      deps.Logger,
		metrics:  deps.Metrics,
	}
	if srv.basePath == "" {
		srv.basePath = "/"
	}
	if srv.log == nil {
		srv.log = logging.Discard()
	}

	return srv.routes()
}

// routes регистрирует обработчики шлюза. Разбор методов повторяет протокол:
// всё, что не OPTIONS/PUT/GET/HEAD, получает 400, а не 405.
func (a *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logging.AccessLog(a.log))
	if a.metrics != nil {
		r.Use(a.metrics.Middleware)
	}
	r.Use(corsHeaders)

	r.MethodNotAllowed(badRequest)

	pattern := a.basePath + "*"
	r.Options(pattern, preflight)
	r.Put(pattern, a.upload)
	r.Get(pattern, a.download)
	r.Head(pattern, a.download)

	return r
}

// NewAdmin создаёт служебный обработчик с health-check'ом и метриками.
func NewAdmin(st ObjectStore, m *metrics.Metrics) http.Handler {
	a := &Server{store: st, metrics: m}

	r := chi.NewRouter()
	r.Get("/health", a.health)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	return r
}
