package httperrors

import (
	"errors"
	"net/http"

	"github.com/yourname/share_lite/internal/models"
)

// Status переводит доменную ошибку в HTTP-код ответа.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, models.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrExists):
		return http.StatusConflict
	case errors.Is(err, models.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// Write отвечает только статусом: шлюз никогда не отдаёт тело с описанием ошибки.
func Write(w http.ResponseWriter, err error) {
	w.WriteHeader(Status(err))
}

// FromStatus выполняет обратное преобразование для клиента шлюза.
func FromStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return models.ErrBadRequest
	case http.StatusForbidden:
		return models.ErrForbidden
	case http.StatusNotFound:
		return models.ErrNotFound
	case http.StatusConflict:
		return models.ErrExists
	case http.StatusRequestEntityTooLarge:
		return models.ErrTooLarge
	default:
		return nil
	}
}
