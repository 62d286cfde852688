package logger

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Middleware logs every request through LogAPI once the handler returns.
func (l *Logger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		path := r.URL.Path
		if id := middleware.GetReqID(r.Context()); id != "" {
			path += " [" + id + "]"
		}
		l.LogAPI(r.Method, path, strconv.Itoa(status), time.Since(start).Round(time.Microsecond).String())
	})
}
