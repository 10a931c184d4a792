package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// ResponseSink is implemented by response writers that distinguish raw body
// writes from structured (JSON) writes.
type ResponseSink interface {
	WriteRaw(b []byte) (int, error)
	WriteStructured(v any) error
}

// WriteJSON writes v as a JSON response body through the structured write
// path. Handlers behind Engine.Middleware should use it instead of encoding
// JSON themselves so that the cached entry keeps its kind.
//
// Only w itself is checked for a ResponseSink. If another wrapper sits
// between the engine and the handler, v is encoded and written through that
// wrapper, so it sees the bytes and the status. The engine then captures a
// raw body.
func WriteJSON(w http.ResponseWriter, v any) error {
	if sink, ok := w.(ResponseSink); ok {
		return sink.WriteStructured(v)
	}

	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encode json body: %w", err)
	}
	return writeJSONBody(w, body)
}

func writeJSONBody(w http.ResponseWriter, body []byte) error {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	_, err := w.Write(body)
	return err
}

// interceptWriter passes every write through to the client and keeps a copy
// of the body for the store.
type interceptWriter struct {
	http.ResponseWriter

	ready func() bool

	status   int
	kind     BodyKind
	body     bytes.Buffer
	captured bool
	disabled bool
}

func newInterceptWriter(w http.ResponseWriter, ready func() bool) *interceptWriter {
	return &interceptWriter{ResponseWriter: w, ready: ready}
}

func (w *interceptWriter) WriteHeader(code int) {
	if w.status == 0 && code >= http.StatusOK {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

// Write is the raw write path.
func (w *interceptWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	n, err := w.ResponseWriter.Write(b)
	if w.capturing() {
		if w.kind != KindRaw {
			w.body.Reset()
			w.kind = KindRaw
		}
		w.body.Write(b[:n])
		w.captured = true
		if err != nil {
			w.disabled = true
		}
	}
	return n, err
}

// WriteRaw implements ResponseSink.
func (w *interceptWriter) WriteRaw(b []byte) (int, error) {
	return w.Write(b)
}

// WriteStructured implements ResponseSink. The client receives v unchanged;
// the store receives its JSON text.
func (w *interceptWriter) WriteStructured(v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encode json body: %w", err)
	}

	if w.capturing() {
		w.body.Reset()
		w.body.Write(body)
		w.kind = KindStructured
		w.captured = true
	}

	if w.status == 0 {
		w.status = http.StatusOK
	}
	if sink, ok := w.ResponseWriter.(ResponseSink); ok {
		return sink.WriteStructured(v)
	}
	if err := writeJSONBody(w.ResponseWriter, body); err != nil {
		w.disabled = true
		return err
	}
	return nil
}

// capturing re-checks store readiness. Once the store is seen not ready the
// response is no longer captured.
func (w *interceptWriter) capturing() bool {
	if w.disabled {
		return false
	}
	if !w.ready() {
		w.disabled = true
		w.body.Reset()
		return false
	}
	return true
}

// entry returns the body to store, if any.
func (w *interceptWriter) entry() (Entry, bool) {
	if w.disabled || !w.captured {
		return Entry{}, false
	}
	if w.status < http.StatusOK || w.status >= http.StatusMultipleChoices {
		return Entry{}, false
	}
	return Entry{Kind: w.kind, Body: bytes.Clone(w.body.Bytes())}, true
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (w *interceptWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Flush implements http.Flusher if the underlying writer supports it.
func (w *interceptWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

var _ ResponseSink = (*interceptWriter)(nil)
