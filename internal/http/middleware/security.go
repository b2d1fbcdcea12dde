// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders. The API serves two kinds of responses:
// admin JSON, which must never be cached or embedded, and project images,
// which the public site loads cross-origin and which may be cached. Paths
// listed in SecurityOptions.CacheablePrefixes are treated as the latter.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultHSTSMaxAge = 180 * 24 * time.Hour

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS emits Strict-Transport-Security on HTTPS requests. Only
	// enable it when traffic is HTTPS end-to-end.
	EnableHSTS bool
	// HSTSMaxAge defaults to 180 days when <= 0.
	HSTSMaxAge time.Duration
	// NoStore sends Cache-Control: no-store (plus Pragma and Expires) on
	// every path outside CacheablePrefixes.
	NoStore bool
	// CacheablePrefixes are public asset paths, e.g. "/uploads/".
	CacheablePrefixes []string
	// EnablePolicy adds Permissions-Policy and
	// X-Permitted-Cross-Domain-Policies.
	EnablePolicy bool
}

type headerPair struct{ name, value string }

// SecurityHeaders returns a middleware that sets:
//
//	X-Content-Type-Options: nosniff
//	Referrer-Policy: no-referrer
//	X-Frame-Options: DENY                         (API paths)
//	Cross-Origin-Resource-Policy: same-origin     (API paths)
//	Cross-Origin-Resource-Policy: cross-origin    (cacheable paths)
//	Cache-Control: no-store, Pragma, Expires      (API paths, when NoStore)
//	Strict-Transport-Security                     (HTTPS, when EnableHSTS)
//
// X-Request-ID is appended to Access-Control-Expose-Headers when present.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains; preload"

	common := []headerPair{
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "no-referrer"},
	}
	if opt.EnablePolicy {
		common = append(common,
			headerPair{"Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()"},
			headerPair{"X-Permitted-Cross-Domain-Policies", "none"},
		)
	}
	api := []headerPair{
		{"X-Frame-Options", "DENY"},
		{"Cross-Origin-Resource-Policy", "same-origin"},
	}
	if opt.NoStore {
		api = append(api,
			headerPair{"Cache-Control", "no-store"},
			headerPair{"Pragma", "no-cache"},
			headerPair{"Expires", "0"},
		)
	}
	assets := []headerPair{
		{"Cross-Origin-Resource-Policy", "cross-origin"},
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		setAll(h, common)
		if hasAnyPrefix(c.Request.URL.Path, opt.CacheablePrefixes) {
			setAll(h, assets)
		} else {
			setAll(h, api)
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		if h.Get(requestIDHeader) != "" {
			appendToken(h, "Access-Control-Expose-Headers", requestIDHeader)
		}
		c.Next()
	}
}

func setAll(h http.Header, pairs []headerPair) {
	for _, p := range pairs {
		h.Set(p.name, p.value)
	}
}

// appendToken adds token to the comma-separated header key unless it is
// already listed.
func appendToken(h http.Header, key, token string) {
	cur := h.Get(key)
	if cur == "" {
		h.Set(key, token)
		return
	}
	for _, t := range strings.Split(cur, ",") {
		if strings.EqualFold(strings.TrimSpace(t), token) {
			return
		}
	}
	h.Set(key, cur+", "+token)
}

// isHTTPS reports whether the request arrived over TLS, directly or behind a
// proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func hasAnyPrefix(p string, prefixes []string) bool {
	for _, pre := range prefixes {
		if pre != "" && strings.HasPrefix(p, pre) {
			return true
		}
	}
	return false
}
