package web

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hpungsan/spark/internal/errors"
)

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderError writes err as a JSON error body. Internal error details are
// not exposed.
func renderError(w http.ResponseWriter, err error) {
	sErr, ok := errors.As(err)
	if !ok {
		sErr = errors.NewInternal(err)
	}

	errorObj := map[string]any{
		"code":    string(sErr.Code),
		"message": sErr.Message,
		"status":  sErr.Status,
	}
	if sErr.Code == errors.ErrInternal {
		errorObj["message"] = "an internal error occurred"
	} else if sErr.Details != nil {
		errorObj["details"] = sErr.Details
	}
	renderJSON(w, sErr.Status, map[string]any{"error": errorObj})
}

// decodeBody decodes a JSON request body of at most limit bytes into T.
// An empty body decodes to the zero value.
func decodeBody[T any](w http.ResponseWriter, r *http.Request, limit int64) (T, error) {
	var v T
	if r.ContentLength > limit {
		return v, errors.NewPayloadTooLarge(int(limit), int(r.ContentLength))
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		if stderrors.Is(err, io.EOF) {
			return v, nil
		}
		// Chunked bodies have no declared length; report the first byte over.
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return v, errors.NewPayloadTooLarge(int(limit), int(limit)+1)
		}
		return v, errors.NewInvalidRequest(fmt.Sprintf("invalid request body: %v", err))
	}
	return v, nil
}
