// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, the response hardening applied to
// every route. The API serves JSON only, so there is no CSP here; the
// Permissions-Policy keeps camera and microphone available to same-origin
// pages because call rooms need them.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultPermissionsPolicy is sent unless SecurityOptions overrides it.
const DefaultPermissionsPolicy = "geolocation=(), payment=(), usb=(), camera=(self), microphone=(self)"

const defaultHSTSMaxAge = 180 * 24 * time.Hour

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS emits Strict-Transport-Security on HTTPS requests only.
	// Enable it only when TLS reaches the proxy in front of this process.
	EnableHSTS bool
	HSTSMaxAge time.Duration // <= 0 means 180 days

	PermissionsPolicy string // empty means DefaultPermissionsPolicy

	// NoStorePrefixes marks responses under these paths Cache-Control:
	// no-store. Handlers may replace the header, for example to allow
	// ETag revalidation.
	NoStorePrefixes []string
}

// SecurityHeaders sets nosniff, frame denial, referrer, and feature policy
// headers on every response, plus HSTS and no-store where configured.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	policy := opt.PermissionsPolicy
	if policy == "" {
		policy = DefaultPermissionsPolicy
	}
	static := [][2]string{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
		{"Cross-Origin-Opener-Policy", "same-origin"},
		{"X-Permitted-Cross-Domain-Policies", "none"},
		{"Permissions-Policy", policy},
	}

	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, kv := range static {
			h.Set(kv[0], kv[1])
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		if hasAnyPrefix(c.Request.URL.Path, opt.NoStorePrefixes) {
			h.Set("Cache-Control", "no-store")
		}
		c.Next()
	}
}

// isHTTPS trusts X-Forwarded-Proto; the service runs behind a proxy.
func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && (path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/")) {
			return true
		}
	}
	return false
}
