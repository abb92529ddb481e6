package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dreamware/kvsync/internal/apperrors"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusForKind maps each of the five stable error kinds to the HTTP
// status spec.md §6/§7 assigns it.
func statusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindPreconditionFailed:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status code and a {code, message} JSON body.
// The original cause, if any, never reaches the response body; a.log
// records it for KindInternal so the diagnostic isn't lost.
func (a *API) writeError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if !apperrors.As(err, &appErr) {
		appErr = apperrors.Internal(err, "unexpected error")
	}
	if appErr.Kind == apperrors.KindInternal {
		a.log.Error().Err(appErr.Cause()).Str("code", appErr.Code).Msg(appErr.Message)
	}
	status := statusForKind(appErr.Kind)
	writeJSON(w, status, errorBody{Code: appErr.Code, Message: appErr.Message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
