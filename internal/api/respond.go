package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	apperrors "galapagosrental/internal/errors"
	"galapagosrental/internal/logger"

	"github.com/gorilla/mux"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to {"error": msg}. Unexpected errors are
// logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.StatusCode(err)
	if code >= http.StatusInternalServerError {
		log := logger.WithComponent("api")
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Int("status", code).Msg("request failed")
	}
	writeJSON(w, code, map[string]string{"error": apperrors.PublicMessage(err)})
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.BadRequest("Invalid request body")
	}
	return nil
}

func pathInt(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		return 0, apperrors.BadRequest("Invalid " + name)
	}
	return n, nil
}

func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return n
}
