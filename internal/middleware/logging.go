package middleware

import (
	"net"
	"net/http"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"photo-gallery/internal/logging"
)

// LoggingConfig controls which requests reach the access log.
type LoggingConfig struct {
	// SkipPaths are never logged. A path also covers everything below it.
	SkipPaths []string
	// HealthPaths are logged only when LogHealthChecks is set.
	HealthPaths []string
	// StaticExtensions mark static assets, logged only when LogStaticFiles
	// is set.
	StaticExtensions []string
	// APIPrefix marks dynamic routes. Photo ids end in image extensions but
	// paths under the prefix are never treated as static assets.
	APIPrefix       string
	LogStaticFiles  bool
	LogHealthChecks bool
}

// DefaultLoggingConfig logs API and health traffic but not static assets.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		HealthPaths:      []string{"/health", "/healthz", "/livez", "/readyz"},
		StaticExtensions: []string{".css", ".js", ".ico", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webmanifest", ".woff", ".woff2", ".ttf"},
		APIPrefix:        "/api/",
		LogStaticFiles:   false,
		LogHealthChecks:  true,
	}
}

func (c LoggingConfig) shouldLog(p string) bool {
	if matchesPath(p, c.SkipPaths) {
		return false
	}
	if !c.LogHealthChecks && slices.Contains(c.HealthPaths, p) {
		return false
	}
	if !c.LogStaticFiles && c.isStatic(p) {
		return false
	}
	return true
}

func (c LoggingConfig) isStatic(p string) bool {
	if c.APIPrefix != "" && strings.HasPrefix(p, c.APIPrefix) {
		return false
	}
	ext := strings.ToLower(path.Ext(p))
	return ext != "" && slices.Contains(c.StaticExtensions, ext)
}

// Logger returns middleware that writes one W3C Extended Log Format line per
// request with the fields
//
//	date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken sc(Content-Encoding) sc(X-Cache) cs(User-Agent) cs(Referer)
//
// sc(X-Cache) is the thumbnail cache result (hit, miss or shared) and "-"
// for every other route.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.shouldLog(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			//nolint:gosec // G706: request fields pass through logField
			logging.Printf("%s", accessLogLine(r, rec, time.Since(start), time.Now().UTC()))
		})
	}
}

func accessLogLine(r *http.Request, rec *statusRecorder, took time.Duration, now time.Time) string {
	fields := []string{
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		logField(clientIP(r)),
		logField(r.Method),
		logField(r.URL.Path),
		logField(r.URL.RawQuery),
		strconv.Itoa(rec.status),
		strconv.FormatInt(rec.bytes, 10),
		strconv.FormatInt(took.Milliseconds(), 10),
		logField(rec.Header().Get("Content-Encoding")),
		logField(rec.Header().Get("X-Cache")),
		quoteW3C(logField(r.UserAgent())),
		logField(r.Referer()),
	}
	return strings.Join(fields, " ")
}

// logField sanitizes a client-controlled value and renders empty values as
// "-".
func logField(s string) string {
	s = sanitizeLogField(s)
	if s == "" {
		return "-"
	}
	return s
}

// sanitizeLogField turns line breaks into spaces and drops other control
// characters, including ESC, so clients cannot forge lines or inject
// terminal escapes. Tabs are kept.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		default:
			return r
		}
	}, s)
}

// quoteW3C quotes values containing whitespace or quotes, doubling any
// embedded quotes.
func quoteW3C(s string) string {
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// clientIP prefers proxy headers over the connection address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
