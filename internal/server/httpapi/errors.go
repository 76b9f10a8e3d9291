package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

var statusByCode = map[string]int{
	common.CodeInvalidCredentials:  http.StatusUnauthorized,
	common.CodeInvalidLogin:        http.StatusUnauthorized,
	common.CodeUserAlreadyExists:   http.StatusBadRequest,
	common.CodeUserNotFound:        http.StatusNotFound,
	common.CodeInvalidKey:          http.StatusBadRequest,
	common.CodeNotAuthorizedUpdate: http.StatusForbidden,
	common.CodeCannotDeleteSelf:    http.StatusBadRequest,
	common.CodeCannotDeleteAdmin:   http.StatusForbidden,
	common.CodeValidation:          http.StatusUnprocessableEntity,
	common.CodeTooLarge:            http.StatusRequestEntityTooLarge,
	common.CodeInternal:            http.StatusInternalServerError,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // client may be gone
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, ErrorResponse{Detail: code})
}

// fail maps a service error to its code and status. Internal errors are
// logged and reported without their message.
func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := common.Code(err)
	if code == common.CodeInternal {
		s.logger.Error(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, statusByCode[code], code)
}
