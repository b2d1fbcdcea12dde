// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access logger. Bodies are never
// logged. Contact submissions carry names, e-mail addresses and phone
// numbers, so anything that can echo them (query strings, header values) is
// passed through a scrubber before it reaches the log line, and credentials
// headers are masked outright.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-portfolio-backend/internal/multilingual"
)

const redactedValue = "[REDACTED]"

// Patterns run in declaration order. The phone pattern is the loosest and
// would eat the digit groups of a UUID, so ids go first.
var scrubPatterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`), "[REDACTED:id]"},
	{regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`), "[REDACTED:email]"},
	{regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`), "[REDACTED:phone]"},
}

// RedactOptions configures RedactingLogger.
//
// MaskHeaders names extra headers whose values are replaced with
// "[REDACTED]" on top of Authorization, Cookie and Set-Cookie. Matching is
// case-insensitive.
type RedactOptions struct {
	MaskHeaders []string
}

// scrub replaces ids, e-mail addresses and phone numbers in s.
func scrub(s string) string {
	for _, p := range scrubPatterns {
		if s == "" {
			return s
		}
		s = p.re.ReplaceAllString(s, p.repl)
	}
	return s
}

type headerMask map[string]struct{}

func newHeaderMask(extra []string) headerMask {
	m := headerMask{"authorization": {}, "cookie": {}, "set-cookie": {}}
	for _, h := range extra {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			m[h] = struct{}{}
		}
	}
	return m
}

// apply returns a flattened copy of hdr with masked and scrubbed values.
func (m headerMask) apply(hdr map[string][]string) map[string]string {
	out := make(map[string]string, len(hdr))
	for k, vv := range hdr {
		if _, masked := m[strings.ToLower(k)]; masked {
			out[k] = redactedValue
			continue
		}
		out[k] = scrub(strings.Join(vv, ", "))
	}
	return out
}

// accessLevel maps the outcome to a level: error for 5xx or recorded gin
// errors, warn for 4xx, info otherwise.
func accessLevel(status int, errs []*gin.Error) zerolog.Level {
	switch {
	case status >= 500 || len(errs) > 0:
		return zerolog.ErrorLevel
	case status >= 400:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// RedactingLogger attaches a request-scoped logger (request_id, method,
// route) to the Gin and request contexts and emits one access line per
// request once the handlers finish.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	mask := newHeaderMask(opts.MaskHeaders)

	return func(c *gin.Context) {
		start := time.Now()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		reqID := c.Writer.Header().Get(requestIDHeader)
		if reqID == "" {
			reqID = c.GetHeader(requestIDHeader)
		}

		scoped := log.With().
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", route).
			Logger()
		attachLogger(c, &scoped)

		c.Next()

		status := c.Writer.Status()
		ev := scoped.WithLevel(accessLevel(status, c.Errors))
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		if v, ok := c.Get(languageKey); ok {
			if l, ok := v.(multilingual.Language); ok {
				ev = ev.Str("lang", l.String())
			}
		}
		if IsReplay(c) {
			ev = ev.Bool("replayed", true)
		}
		ev.
			Str("query", scrub(truncate(c.Request.URL.RawQuery, maxQueryLogLength))).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", mask.apply(c.Request.Header)).
			Msg("http_request")
	}
}
