package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/topi314/clubagenda/server/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", slog.Any("err", err))
	}
}

// ok writes a success body. Keys of fields are merged next to "success".
func ok(w http.ResponseWriter, fields map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// fail renders err as {success:false, message, ...metadata}.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.From(err)

	status := appErr.Kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Failed to handle request", slog.String("path", r.URL.Path), slog.Any("err", err))
	} else {
		slog.DebugContext(r.Context(), "Rejected request", slog.String("path", r.URL.Path), slog.String("kind", string(appErr.Kind)), slog.String("message", appErr.Message))
	}

	body := map[string]any{}
	for k, v := range appErr.Metadata {
		body[k] = v
	}
	body["success"] = false
	body["message"] = appErr.Message
	if appErr.Kind == apperr.KindUnauthorized && h.cfg.LoginURL != "" {
		body["redirect_url"] = h.cfg.LoginURL + "?" + url.Values{"rd": {r.URL.RequestURI()}}.Encode()
	}
	writeJSON(w, status, body)
}

// decode reads a json body into v and validates it.
func (h *handler) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is empty")
		}
		return apperr.Wrap(apperr.KindValidation, "invalid json body", err)
	}
	return h.validateStruct(v)
}

func pathInt(r *http.Request, name string) (int, error) {
	value, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, apperr.Validation("invalid %s %q", name, r.PathValue(name))
	}
	return value, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, apperr.Validation("%s is required", name)
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("invalid %s %q", name, raw)
	}
	return value, nil
}
