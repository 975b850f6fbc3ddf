package sharehttp

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/yourname/share_lite/internal/logging"
	"github.com/yourname/share_lite/internal/models"
	"github.com/yourname/share_lite/pkg/httperrors"
	"github.com/yourname/share_lite/pkg/shareproto"
)

// download обслуживает GET и HEAD: отдаёт объект без изменений с сохранённым типом.
func (a *Server) download(w http.ResponseWriter, r *http.Request) {
	name := a.uploadName(r)

	if r.Method == http.MethodHead {
		info, err := a.store.Stat(name)
		if err != nil {
			a.downloadFailed(w, r, err)
			return
		}
		writeObjectHeaders(w.Header(), info)
		w.WriteHeader(http.StatusOK)
		return
	}

	rc, info, err := a.store.Get(name)
	if err != nil {
		a.downloadFailed(w, r, err)
		return
	}
	defer rc.Close()

	writeObjectHeaders(w.Header(), info)
	w.WriteHeader(http.StatusOK)

	if _, err = io.CopyBuffer(w, rc, make([]byte, a.store.ChunkSize())); err != nil {
		// Заголовки уже ушли, остаётся только оборвать ответ.
		logging.FromRequest(a.log, r).Warn("download interrupted", "key", info.Key, "err", err)
	}
}

func (a *Server) downloadFailed(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, models.ErrNotFound) {
		logging.FromRequest(a.log, r).Error("download failed", "err", err)
	}
	httperrors.Write(w, err)
}

// writeObjectHeaders выставляет заголовки объекта. Неизвестный тип отдаётся как вложение,
// а CSP запрещает браузеру исполнять содержимое при любом типе.
func writeObjectHeaders(h http.Header, info models.ObjectInfo) {
	if !info.TypeKnown {
		h.Set("Content-Disposition", "attachment")
	}
	h.Set("Content-Type", info.ContentType)
	h.Set("Content-Length", strconv.FormatInt(info.Size, 10))
	h.Set("X-Content-Type-Options", "nosniff")
	for _, name := range shareproto.CSPHeaders {
		h.Set(name, shareproto.ContentSecurityPolicy)
	}
}
