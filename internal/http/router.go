// Package httpapi assembles the Gin engine: edge middleware shared by every
// route, operational endpoints (/health, /metrics, /swagger), and the
// authenticated API mounted under the configured base path.
//
// Edge order: otelgin, RequestID, RedactingLogger, Recovery, body limit,
// Metrics, CORS, SecurityHeaders, Gzip. API order: Authenticate,
// IdempotencyValidator, RateLimiter. The idempotency check runs before the
// limiter so replays can bypass it.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/skillswap-backend/internal/config"
	"github.com/tbourn/skillswap-backend/internal/http/handlers"
	"github.com/tbourn/skillswap-backend/internal/http/middleware"
	"github.com/tbourn/skillswap-backend/internal/realtime"
	"github.com/tbourn/skillswap-backend/internal/services"
)

const maxBodyBytes = 1 << 20

var (
	corsMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsAllow   = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey, "If-None-Match"}
	corsExpose  = []string{"X-Request-ID", "Content-Length", "ETag", "Idempotency-Replayed"}
)

// Deps carries the runtime collaborators RegisterRoutes needs beyond config.
type Deps struct {
	DB *gorm.DB
	// RankCache is optional; nil disables recommendation caching.
	RankCache services.RankCache
	// Hub is optional; nil makes the websocket routes answer 503.
	Hub *realtime.Hub
}

// RegisterRoutes attaches middleware and endpoints to r.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	allowOrigin := useEdge(r, cfg)
	mountOps(r, cfg)

	svc := newServiceSet(deps.DB, deps.RankCache, cfg)
	hd := svc.handlerDeps(realtime.Upgrader(allowOrigin))
	if deps.Hub != nil {
		hd.Relay = deps.Hub
	}
	mountAPI(r, cfg, svc, handlers.New(hd))
}

// useEdge installs the middleware every route shares and returns the origin
// check websocket upgrades should apply (nil allows any origin).
func useEdge(r *gin.Engine, cfg config.Config) func(string) bool {
	r.Use(
		otelgin.Middleware(cfg.OTEL.ServiceName),
		middleware.RequestID(),
		middleware.RedactingLogger(middleware.RedactOptions{}),
		middleware.Recovery(),
		limitBody(maxBodyBytes),
		middleware.Metrics(),
	)

	corsMW, allowOrigin := corsPolicy(cfg.CORS.AllowedOrigins)
	r.Use(corsMW...)

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:      cfg.Security.EnableHSTS,
		HSTSMaxAge:      cfg.Security.HSTSMaxAge,
		NoStorePrefixes: []string{cfg.APIBasePath},
	}))

	// Hijacked websocket connections cannot be wrapped by the gzip writer.
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPathsRegexs([]string{`.*/ws/.*`, `^/metrics$`}),
	))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})
	return allowOrigin
}

// corsPolicy allows every origin when none are configured, without
// credentials. Otherwise only listed origins are echoed back.
func corsPolicy(origins []string) ([]gin.HandlerFunc, func(string) bool) {
	base := cors.Config{
		AllowMethods:  corsMethods,
		AllowHeaders:  corsAllow,
		ExposeHeaders: corsExpose,
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		base.AllowAllOrigins = true
		// cors only answers requests that carry an Origin header; clients
		// without one still get the wildcard.
		wildcard := func(c *gin.Context) {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Next()
		}
		return []gin.HandlerFunc{wildcard, cors.New(base)}, nil
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{cors.New(base)}, func(origin string) bool {
		_, ok := allowed[origin]
		return ok
	}
}

func mountOps(r *gin.Engine, cfg config.Config) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}

type serviceSet struct {
	profiles  *services.ProfileService
	requests  *services.RequestService
	recommend *services.RecommendationService
	messages  *services.MessageService
	idem      *services.IdempotencyService
}

func newServiceSet(db *gorm.DB, rc services.RankCache, cfg config.Config) serviceSet {
	return serviceSet{
		profiles:  services.NewProfileService(db, rc),
		requests:  services.NewRequestService(db, cfg.RequestMaxRunes),
		recommend: services.NewRecommendationService(db, rc, cfg.Match.TopK, cfg.Match.MinScore, cfg.Match.CacheTTL),
		messages:  services.NewMessageService(db, cfg.ChatMaxRunes),
		idem:      services.NewIdempotencyService(db, cfg.IdempotencyTTL),
	}
}

func (s serviceSet) handlerDeps(up *websocket.Upgrader) handlers.Deps {
	return handlers.Deps{
		Recommender:   s.recommend,
		Profiles:      s.profiles,
		Requests:      s.requests,
		Conversations: s.requests.Conversations,
		Messages:      s.messages,
		Idempotency:   s.idem,
		Upgrader:      up,
	}
}

func mountAPI(r *gin.Engine, cfg config.Config, svc serviceSet, h *handlers.Handlers) {
	base := cfg.APIBasePath
	api := groupWithPrefix(r, base)

	// Token identities are mirrored into the users table on first sight.
	api.Use(middleware.Authenticate(middleware.AuthOptions{
		Secret: cfg.JWTSecret,
		Provision: func(ctx context.Context, id middleware.Identity) error {
			return svc.profiles.Sync(ctx, id.UserID, id.Username, id.Email)
		},
	}))
	api.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			Scopes: map[string]string{
				http.MethodPost + " " + joinPath(base, "/requests"): services.ScopeCreateRequest,
			},
		},
		svc.idem.Exists,
	))
	api.Use(middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.ByUserOrIP).Handler())

	api.GET("/recommendations", h.Recommendations)
	api.GET("/skills", h.ListSkills)
	api.GET("/users/:id", h.GetUser)

	me := api.Group("/me/skills")
	me.GET("", h.MySkills)
	me.PUT("/have", h.SetHave)
	me.DELETE("/have/:skill_id", h.RemoveHave)
	me.PUT("/want", h.SetWant)
	me.DELETE("/want/:skill_id", h.RemoveWant)

	reqs := api.Group("/requests")
	reqs.POST("", h.CreateRequest)
	reqs.GET("/incoming", h.IncomingRequests)
	reqs.GET("/outgoing", h.OutgoingRequests)
	reqs.GET("/:id", h.GetRequest)
	reqs.POST("/:id/action", h.ActOnRequest)

	api.GET("/connections", h.Connections)
	api.GET("/conversations/:id", h.GetConversation)

	api.GET("/chat/:room_id/messages", h.ListMessages)
	api.GET("/ws/chat/:room_id", h.ChatSocket)
	api.GET("/ws/video/:room_id", h.VideoSocket)
}

// limitBody caps request bodies; reads past maxBytes fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// joinPath builds the registered full path of a route under prefix.
func joinPath(prefix, route string) string {
	if prefix == "" || prefix == "/" {
		return route
	}
	return prefix + route
}
