package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/miamiwave/internal/logger"
	"github.com/miamiwave/internal/record"
	"github.com/miamiwave/internal/service"
)

const maxBodySize = 1 << 20

type errorResponse struct {
	Error    string            `json:"error"`
	Failures []service.Failure `json:"failures,omitempty"`
	Retry    bool              `json:"retry,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("writeJSON encode: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError переводит ошибку сервиса в HTTP-ответ.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	writeJSON(w, statusFor(op, err), errorBody(err))
}

// writeViewError — то же для экранов: клиент может предложить повтор.
func writeViewError(w http.ResponseWriter, op string, err error) {
	body := errorBody(err)
	status := statusFor(op, err)
	body.Retry = status != http.StatusNotFound && status != http.StatusBadRequest
	writeJSON(w, status, body)
}

func statusFor(op string, err error) int {
	var batch *service.BatchError
	switch {
	case errors.Is(err, record.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.As(err, &batch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, record.ErrTransport):
		logger.Errorf("%s: %v", op, err)
		return http.StatusBadGateway
	default:
		logger.Errorf("%s: %v", op, err)
		return http.StatusInternalServerError
	}
}

func errorBody(err error) errorResponse {
	var batch *service.BatchError
	switch {
	case errors.Is(err, record.ErrNotFound):
		return errorResponse{Error: "not found"}
	case errors.Is(err, service.ErrInvalidInput):
		return errorResponse{Error: err.Error()}
	case errors.As(err, &batch):
		return errorResponse{Error: "write rejected", Failures: batch.Failures}
	case errors.Is(err, record.ErrTransport):
		return errorResponse{Error: "record store unavailable"}
	default:
		return errorResponse{Error: "internal error"}
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(into); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return false
	}
	return true
}

// pathID читает положительный целый параметр маршрута.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}
