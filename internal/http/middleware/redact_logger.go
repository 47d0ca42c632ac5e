// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access log. Bodies are never
// logged. Query strings and header values are scrubbed of bearer tokens,
// UUIDs, emails, and phone numbers; credential headers are masked outright.
// Websocket upgrades are logged once, when the session ends, as "ws_session".
package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures RedactingLogger.
type RedactOptions struct {
	// MaskHeaders are replaced with "[REDACTED]" in addition to the built-in
	// credential headers. Names are case-insensitive.
	MaskHeaders []string
}

const redacted = "[REDACTED]"

// Browsers cannot set Authorization on a websocket handshake, so clients
// carry credentials in ?token= or the subprotocol header.
var builtinMasked = []string{
	"Authorization",
	"Cookie",
	"Set-Cookie",
	"Sec-WebSocket-Protocol",
}

type redactor struct {
	masked map[string]struct{}
}

var (
	tokenParamRE = regexp.MustCompile(`(?i)(^|&)(token|access_token)=[^&]*`)
	uuidRE       = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE      = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE      = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

func newRedactor(extra []string) redactor {
	r := redactor{masked: make(map[string]struct{}, len(builtinMasked)+len(extra))}
	for _, h := range append(append([]string{}, builtinMasked...), extra...) {
		if h = strings.TrimSpace(h); h != "" {
			r.masked[http.CanonicalHeaderKey(h)] = struct{}{}
		}
	}
	return r
}

// scrub redacts tokens first and UUIDs before phones, since the phone
// pattern would otherwise eat the digit groups of a UUID.
func (redactor) scrub(s string) string {
	if s == "" {
		return s
	}
	s = tokenParamRE.ReplaceAllString(s, "${1}${2}="+redacted)
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

func (r redactor) headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := r.masked[http.CanonicalHeaderKey(k)]; ok {
			out[k] = redacted
			continue
		}
		out[k] = r.scrub(strings.Join(vv, ", "))
	}
	return out
}

// RedactingLogger logs one line per request at info, warn for 4xx, and
// error for 5xx or recorded gin errors. It also attaches the request-scoped
// logger that LoggerFrom returns, carrying request_id and the route.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	rd := newRedactor(opts.MaskHeaders)

	return func(c *gin.Context) {
		start := time.Now()
		route := c.FullPath()
		if route == "" {
			route = rd.scrub(c.Request.URL.Path)
		}
		rid := RequestIDFrom(c)
		upgrade := c.IsWebsocket()

		setLogger(c, log.With().Str("request_id", rid).Str("path", route).Logger())

		query := truncate(rd.scrub(c.Request.URL.RawQuery), maxQueryLogLength)
		headers := rd.headers(c.Request.Header)

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError || len(c.Errors) > 0:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		default:
			ev = log.Info()
		}
		if uid := userKey(c); uid != "" {
			ev = ev.Str("user_id", uid)
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}

		msg := "http_request"
		if upgrade {
			msg = "ws_session"
			ev = ev.Str("room", rd.scrub(c.Param("room_id")))
		}

		ev.Str("request_id", rid).
			Str("method", c.Request.Method).
			Str("path", route).
			Str("query", query).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg(msg)
	}
}
