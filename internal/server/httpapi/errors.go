package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/cmcs/internal/common"
	"github.com/dmitrijs2005/cmcs/internal/docstore"
	"github.com/dmitrijs2005/cmcs/internal/server/services"
)

// decryptFailedMessage is returned when a stored ciphertext exists but does
// not decrypt. It stays a server error: the caller cannot fix it.
const decryptFailedMessage = "document could not be decrypted (corrupted or wrong key)"

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps service errors onto a status code and a message that is
// safe to show to the caller.
func statusFor(err error) (int, string) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message
	case errors.Is(err, common.ErrorInvalidCredentials):
		return http.StatusUnauthorized, common.ErrorInvalidCredentials.Error()
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, common.ErrTokenExpired.Error()
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, docstore.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrorClaimLocked):
		return http.StatusConflict, common.ErrorClaimLocked.Error()
	case errors.Is(err, common.ErrorClaimNotInReview):
		return http.StatusConflict, common.ErrorClaimNotInReview.Error()
	case errors.Is(err, docstore.ErrDecrypt):
		return http.StatusInternalServerError, decryptFailedMessage
	}
	return http.StatusInternalServerError, "internal server error"
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := statusFor(err)
	switch {
	case code >= http.StatusInternalServerError:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	case code == http.StatusBadRequest:
		h.logger.Info(r.Context(), "request rejected", "path", r.URL.Path, "reason", msg)
	}
	writeError(w, code, msg)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
