package sharehttp

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/yourname/share_lite/internal/logging"
	"github.com/yourname/share_lite/internal/models"
	"github.com/yourname/share_lite/internal/store"
	"github.com/yourname/share_lite/internal/token"
	"github.com/yourname/share_lite/pkg/httperrors"
	"github.com/yourname/share_lite/pkg/shareproto"
)

// upload принимает PUT с подписанным слотом и однократно сохраняет тело.
func (a *Server) upload(w http.ResponseWriter, r *http.Request) {
	if !r.URL.Query().Has(shareproto.TokenParam) {
		badRequest(w, r)
		return
	}

	l := logging.FromRequest(a.log, r)

	up, err := a.newUpload(r)
	if err != nil {
		l.Debug("upload rejected", "err", err)
		httperrors.Write(w, err)
		return
	}

	calculated, ok := token.Verify(a.secret, up.Name, up.Size, up.ContentType, up.Token)
	if !ok {
		if a.metrics != nil {
			a.metrics.AuthFailure()
		}
		l.Warn("token mismatch", "calculated", calculated, "got", up.Token)
		httperrors.Write(w, models.ErrForbidden)
		return
	}

	if a.maxBytes > 0 {
		if n, err := strconv.ParseInt(up.Size, 10, 64); err != nil || n > a.maxBytes {
			l.Info("upload too large", "declared", up.Size, "limit", a.maxBytes)
			httperrors.Write(w, models.ErrTooLarge)
			return
		}
	}

	n, err := a.store.Create(r.Context(), up.Name, up.ContentType, r.Body)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrExists):
			l.Info("upload conflict", "key", store.Key(up.Name))
		case errors.Is(err, models.ErrTooLarge):
			l.Info("upload body over limit", "key", store.Key(up.Name), "limit", a.maxBytes)
		default:
			l.Error("upload failed", "key", store.Key(up.Name), "err", err)
		}
		httperrors.Write(w, err)
		return
	}

	l.Info("stored", "key", store.Key(up.Name), "size", humanize.IBytes(uint64(n)), "type", up.ContentType)

	// https://xmpp.org/extensions/xep-0363.html#upload
	// 201 означает, что объект уже доступен по GET-URL слота.
	w.WriteHeader(http.StatusCreated)
}
