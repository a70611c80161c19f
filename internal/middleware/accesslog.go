package middleware

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/izonedevs/izonehub-api/internal/metrics"
	"github.com/izonedevs/izonehub-api/internal/requestinfo"
)

// AccessLog writes one structured line per request and records the HTTP
// metrics.  It expects requestinfo.Enrich earlier in the chain; without it
// the client fields are omitted.
func AccessLog(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			metrics.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
			metrics.HTTPDuration.WithLabelValues(r.Method).Observe(elapsed.Seconds())

			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"dur_ms", elapsed.Milliseconds(),
				"req_id", chimw.GetReqID(r.Context()),
			}
			if info := requestinfo.FromContext(r.Context()); info != nil {
				fields = append(fields,
					"ip", info.IP.String(),
					"browser", info.UA.Browser,
					"device", info.UA.Device,
					"bot", info.UA.IsBot,
				)
				if info.Geo.CountryISO != "" {
					fields = append(fields, "country", info.Geo.CountryISO, "city", info.Geo.City)
				}
			}

			switch {
			case status >= 500:
				log.Errorw("request", fields...)
			case status >= 400:
				log.Warnw("request", fields...)
			default:
				log.Infow("request", fields...)
			}
		})
	}
}
