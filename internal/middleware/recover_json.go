package middleware

import (
	"bufio"
	"encoding/json"
	"net"
	"net/http"
	"runtime/debug"

	"github.com/miamiwave/internal/logger"
)

// trackingWriter запоминает, начат ли уже ответ. Реализует http.Hijacker для WebSocket upgrade.
type trackingWriter struct {
	http.ResponseWriter
	started bool
}

func (w *trackingWriter) WriteHeader(code int) {
	if w.started {
		return
	}
	w.started = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.started = true
	return w.ResponseWriter.Write(b)
}

func (w *trackingWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *trackingWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		w.started = true
		return h.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// RecoverJSON при панике в обработчике логирует её с маршрутом и зрителем и отдаёт JSON 500,
// если ответ ещё не начат. http.ErrAbortHandler пробрасывается дальше.
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &trackingWriter{ResponseWriter: w}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.Errorf("panic recovered %s %s viewer=%q: %v", r.Method, r.URL.Path, GetUserID(r.Context()), rec)
			logger.Debugf("panic stack: %s", debug.Stack())
			if tw.started {
				return
			}
			tw.Header().Set("Content-Type", "application/json; charset=utf-8")
			tw.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(tw).Encode(map[string]string{"error": "internal server error"})
		}()
		next.ServeHTTP(tw, r)
	})
}
