package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/orgball2608/gigcache"
)

const (
	headerCacheMode       = "X-Cache-Mode"
	rateLimitedRetryAfter = "60" // seconds
)

type apiError struct {
	Code int    `json:"code"`
	Text string `json:"text"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func errorBody(code int, text string) errorEnvelope {
	return errorEnvelope{Error: apiError{Code: code, Text: text}}
}

// writeJSON writes v as JSON; for HEAD only headers are sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeResult writes the value merged with a "cache" metadata block.
func writeResult[T any](w http.ResponseWriter, r *http.Request, res gigcache.Result[T]) {
	body, err := mergeMeta(res.Value, res.Meta)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set(headerCacheMode, string(res.Meta.Mode))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(body)
}

// mergeMeta adds meta under "cache" to the JSON object of value.
// Values that do not encode to an object are nested under "data".
func mergeMeta(value any, meta gigcache.Meta) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		obj = map[string]json.RawMessage{"data": raw}
	}
	m, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	obj["cache"] = m
	return json.Marshal(obj)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := gigcache.StatusCode(err)
	if errors.Is(err, gigcache.ErrRateLimited) {
		w.Header().Set("Retry-After", rateLimitedRetryAfter)
	}
	writeJSON(w, r, status, errorBody(status, err.Error()))
}
