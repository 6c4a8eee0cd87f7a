// Package responsewriter records the status and size of a response for the
// logging, metrics and tracing middleware.
package responsewriter

import "net/http"

// ResponseWriter wraps http.ResponseWriter and remembers what was written.
type ResponseWriter struct {
	http.ResponseWriter
	status      int
	written     int
	wroteHeader bool
}

// Wrap returns w itself when it is already wrapped, so stacked middleware
// share one recorder.
func Wrap(w http.ResponseWriter) *ResponseWriter {
	if rw, ok := w.(*ResponseWriter); ok {
		return rw
	}
	return &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader records the first status code only.
func (w *ResponseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += n
	return n, err
}

// Flush forwards to the underlying writer when it supports flushing.
func (w *ResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		if !w.wroteHeader {
			w.WriteHeader(http.StatusOK)
		}
		f.Flush()
	}
}

// StatusCode is the status sent, 200 if the handler never set one.
func (w *ResponseWriter) StatusCode() int { return w.status }

// BytesWritten is the response body size so far.
func (w *ResponseWriter) BytesWritten() int { return w.written }

// Unwrap supports http.ResponseController.
func (w *ResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
