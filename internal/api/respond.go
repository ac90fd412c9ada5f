package api

import (
	"encoding/json"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/canvass/internal/store"
)

const maxBodyBytes = 1 << 20

var (
	errBadRequest      = eris.New("api: bad request")
	errSessionNotFound = eris.New("api: session not found")
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func statusFor(err error) int {
	switch {
	case eris.Is(err, store.ErrNotFound), eris.Is(err, errSessionNotFound):
		return http.StatusNotFound
	case eris.Is(err, store.ErrCompanyInUse):
		return http.StatusConflict
	case eris.Is(err, store.ErrInvalidBusiness), eris.Is(err, store.ErrInvalidCompany), eris.Is(err, errBadRequest):
		return http.StatusBadRequest
	case eris.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case eris.Is(err, ErrNotApproved):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zap.L().Error("api: request failed", zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return eris.Wrap(errBadRequest, "invalid request body")
	}
	return nil
}
