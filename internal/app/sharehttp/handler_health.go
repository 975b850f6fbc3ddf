package sharehttp

import (
	"encoding/json"
	"net/http"
)

// healthStats — payload ответа /health.
type healthStats struct {
	OK         bool  `json:"ok"`
	Objects    int   `json:"objects"`
	TotalBytes int64 `json:"total_bytes"`
}

// health возвращает агрегированную статистику по каталогу стора.
func (a *Server) health(w http.ResponseWriter, _ *http.Request) {
	u, err := a.store.Usage()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(healthStats{
		OK:         true,
		Objects:    u.Objects,
		TotalBytes: u.TotalBytes,
	})

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}
