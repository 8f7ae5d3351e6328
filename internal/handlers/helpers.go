package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/nahidhasan98/autocommit/internal/errors"
	"github.com/nahidhasan98/autocommit/internal/models"
)

// maxBodySize caps request bodies
const maxBodySize = 5 << 20

// writeJSON writes a JSON response with the given status code
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error("Failed to encode JSON response", err)
	}
}

// writeAppError writes an application error response
func (h *Handler) writeAppError(w http.ResponseWriter, appErr *errors.AppError) {
	response := &models.ErrorResponse{
		Error:   appErr.Message,
		Code:    string(appErr.Code),
		Details: appErr.Details,
	}

	// Log the error for internal monitoring
	h.log.With("error_code", appErr.Code).
		With("status_code", appErr.StatusCode).
		Error(appErr.Message, appErr.Err)

	h.writeJSON(w, response, appErr.StatusCode)
}

// writeError writes any error, wrapping non-application errors as internal
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.InternalError(err)
	}
	h.writeAppError(w, appErr)
}

// requireMethod rejects requests that do not use method
func (h *Handler) requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	h.writeJSON(w, &models.ErrorResponse{
		Error: "Method not allowed",
		Code:  string(errors.ErrCodeInvalidRequest),
	}, http.StatusMethodNotAllowed)
	return false
}

// readBody reads a size limited request body
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, *errors.AppError) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, errors.InvalidRequest("Failed to read request body: " + err.Error())
	}
	return body, nil
}

// decodeJSON decodes a size limited JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) *errors.AppError {
	body, appErr := readBody(w, r)
	if appErr != nil {
		return appErr
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.InvalidRequest("Invalid JSON payload: " + err.Error())
	}
	return nil
}
