package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/shahdolbazaar/marketplace-go-app/internal/apperr"
	"github.com/shahdolbazaar/marketplace-go-app/internal/middleware"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeData[T any](w http.ResponseWriter, status int, data T) {
	writeJSON(w, status, models.ItemResponse[T]{Data: data})
}

func writeList[T any](w http.ResponseWriter, data []T, p *models.Pagination) {
	if data == nil {
		data = []T{}
	}
	writeJSON(w, http.StatusOK, models.ListResponse[T]{Data: data, Pagination: p})
}

// writeError maps err to its status and the error envelope. Causes of
// internal errors are logged, never returned.
func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.RequestIDFrom(r.Context())),
			zap.Error(err),
		)
	}
	writeJSON(w, status, models.ErrorResponse{Error: models.ErrorBody{
		Kind:    apperr.KindName(err),
		Message: apperr.PublicMessage(err),
		Fields:  apperr.FieldErrors(err),
	}})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("api.decode", map[string]string{"body": "is required"})
		}
		return apperr.Validation("api.decode", map[string]string{"body": "must be valid JSON"})
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("api.pathID", map[string]string{name: "must be a positive integer"})
	}
	return id, nil
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

func queryBool(r *http.Request, key string) (*bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validation("api.queryBool", map[string]string{key: "must be true or false"})
	}
	return &b, nil
}
