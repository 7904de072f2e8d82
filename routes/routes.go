package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"activityhub/authz"
	"activityhub/middlewares"
	"activityhub/models"
	"activityhub/utils"
)

// Deps is everything the handlers need. Invalidator may be nil.
type Deps struct {
	Users       models.UserRepository
	Attendees   models.AttendanceRepository
	Activities  models.ActivityRepository
	Redis       *redis.Client
	Invalidator *utils.CacheInvalidator
	Tokens      *utils.TokenManager
	Log         *slog.Logger
	DailyQuota  int
}

type deps struct {
	Deps
	policies *authz.Policies
}

// NewPolicies registers the policies used by the activity routes.
func NewPolicies(attendees models.AttendanceLookup, log *slog.Logger) *authz.Policies {
	return authz.NewPolicies().
		Add(authz.IsActivityHost, authz.Authenticated, authz.NewIsHost(attendees, log))
}

// RegisterRoutes mounts every endpoint on server. ctx bounds the background
// goroutines of the rate limiters.
func RegisterRoutes(ctx context.Context, server *gin.Engine, in Deps) {
	if in.Log == nil {
		in.Log = slog.Default()
	}
	if in.DailyQuota <= 0 {
		in.DailyQuota = 2000
	}
	d := &deps{Deps: in, policies: NewPolicies(in.Attendees, in.Log)}

	// ===== global per-IP limit =====
	globalLimiter := middlewares.NewRateLimiter(ctx, middlewares.LimiterConfig{
		RPS:     20,
		Burst:   40,
		IdleTTL: 3 * time.Minute,
	})
	server.Use(globalLimiter.Middleware(func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}))

	server.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// ===== stricter limit on credential endpoints =====
	authLimiter := middlewares.NewRateLimiter(ctx, middlewares.LimiterConfig{
		RPS:     0.5,
		Burst:   2,
		IdleTTL: 10 * time.Minute,
	})
	server.POST("/signup",
		authLimiter.Middleware(func(c *gin.Context) string { return "signup:" + c.ClientIP() }),
		d.signup,
	)
	server.POST("/login",
		authLimiter.Middleware(func(c *gin.Context) string { return "login:" + c.ClientIP() }),
		d.login,
	)

	// ===== public reads =====
	server.GET("/activities", d.getActivities)
	server.GET("/activities/:id", middlewares.ValidateActivityID, d.getActivity)
	server.GET("/activities/:id/attendees", middlewares.ValidateActivityID, d.getAttendees)

	// ===== authenticated: per-user limit + daily quota =====
	auth := server.Group("/")
	auth.Use(middlewares.Authenticate(d.Tokens))

	userLimiter := middlewares.NewRateLimiter(ctx, middlewares.LimiterConfig{
		RPS:     5,
		Burst:   10,
		IdleTTL: 10 * time.Minute,
	})
	auth.Use(userLimiter.Middleware(func(c *gin.Context) string {
		return "u:" + c.GetString(middlewares.UserIDKey)
	}))

	if d.Redis != nil {
		auth.Use(middlewares.Quota(d.Redis, middlewares.QuotaRule{
			Limit:  d.DailyQuota,
			Window: 24 * time.Hour,
			KeyFn: func(c *gin.Context) string {
				uid := c.GetString(middlewares.UserIDKey)
				if uid == "" {
					return ""
				}
				return fmt.Sprintf("quota:user:%s:day", uid)
			},
		}))
	}

	isHost := middlewares.RequirePolicy(d.policies, authz.IsActivityHost, d.Log)

	auth.POST("/activities", d.createActivity)
	auth.PUT("/activities/:id", middlewares.ValidateActivityID, isHost, d.updateActivity)
	auth.DELETE("/activities/:id", middlewares.ValidateActivityID, isHost, d.deleteActivity)
	auth.POST("/activities/:id/attend", middlewares.ValidateActivityID, d.attend)
	auth.DELETE("/activities/:id/attend", middlewares.ValidateActivityID, d.leave)
}

// purge drops cached responses touching id; failures only cost freshness.
func (d *deps) purge(c *gin.Context, id string, list bool) {
	if d.Invalidator == nil {
		return
	}
	ctx := c.Request.Context()
	var err error
	if list {
		err = d.Invalidator.PurgeAll(ctx, id)
	} else {
		err = d.Invalidator.PurgeActivity(ctx, id)
	}
	if err != nil {
		d.Log.WarnContext(ctx, "cache invalidation failed", "activity_id", id, "err", err)
	}
}

func (d *deps) internalError(c *gin.Context, msg string, err error, attrs ...any) {
	attrs = append(attrs, "method", c.Request.Method, "path", c.FullPath(), "err", err)
	d.Log.ErrorContext(c.Request.Context(), msg, attrs...)
	c.JSON(http.StatusInternalServerError, gin.H{"message": msg + " Try again later."})
}
