package sharehttp

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/yourname/share_lite/internal/models"
	"github.com/yourname/share_lite/pkg/shareproto"
)

// uploadName возвращает имя загрузки — декодированный хвост пути после base_path.
// Имя никогда не используется как путь на диске, только как вход для sha256.
func (a *Server) uploadName(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, a.basePath)
}

// newUpload собирает из запроса всё, что входит в подпись слота.
func (a *Server) newUpload(r *http.Request) (*models.Upload, error) {
	name := a.uploadName(r)
	if name == "" {
		return nil, fmt.Errorf("empty upload name: %w", models.ErrBadRequest)
	}

	size := declaredSize(r)
	if size == "" {
		return nil, fmt.Errorf("missing Content-Length: %w", models.ErrBadRequest)
	}

	// Пустой, но присутствующий Content-Type подписывается как есть.
	contentType := shareproto.DefaultContentType
	if _, ok := r.Header["Content-Type"]; ok {
		contentType = r.Header.Get("Content-Type")
	}
	if len(contentType) > shareproto.MaxContentTypeLen {
		return nil, fmt.Errorf("content type is %d bytes: %w", len(contentType), models.ErrBadRequest)
	}

	return &models.Upload{
		Name:        name,
		Size:        size,
		ContentType: contentType,
		Token:       r.URL.Query().Get(shareproto.TokenParam),
	}, nil
}

// declaredSize отдаёт Content-Length в том виде, в каком его подписал эмитент.
func declaredSize(r *http.Request) string {
	if v := r.Header.Get("Content-Length"); v != "" {
		return v
	}
	if r.ContentLength >= 0 {
		return strconv.FormatInt(r.ContentLength, 10)
	}

	return ""
}
