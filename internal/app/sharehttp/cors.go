package sharehttp

import (
	"net/http"

	"github.com/yourname/share_lite/pkg/shareproto"
)

// corsHeaders выставляет CORS-заголовки на каждый ответ, включая ошибки.
func corsHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Methods", shareproto.CORSAllowMethods)
		h.Set("Access-Control-Allow-Headers", shareproto.CORSAllowHeaders)
		h.Set("Access-Control-Max-Age", shareproto.CORSMaxAge)
		h.Set("Access-Control-Allow-Origin", shareproto.CORSAllowOrigin)

		next.ServeHTTP(w, r)
	})
}

func preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func badRequest(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusBadRequest)
}
