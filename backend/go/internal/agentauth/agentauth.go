package agentauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"Hokage/backend/go/internal/models"
	"Hokage/backend/go/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// HeaderAPIKey is the header collectors authenticate with. Each data source
// has its own key, so the key identifies both the tenant and the source.
const HeaderAPIKey = "x-agent-api-key"

// Context keys set by the middleware.
const (
	ContextDataSourceID = "dataSourceID"
	ContextTenantID     = "agentTenantID"
)

const presenceTTL = 90 * time.Second

// Presence tracks collector liveness in Redis: every authenticated agent
// call refreshes a TTL key, and a data source counts as online while the
// key exists.
type Presence struct {
	rdb *redis.Client
}

// NewPresence creates a Presence tracker. rdb may be nil, in which case
// tracking is disabled and Online always reports false.
func NewPresence(rdb *redis.Client) *Presence {
	return &Presence{rdb: rdb}
}

func presenceKey(dataSourceID uint) string {
	return fmt.Sprintf("agent:presence:%d", dataSourceID)
}

// Touch refreshes the liveness key for a data source.
func (p *Presence) Touch(ctx context.Context, dataSourceID uint) {
	if p.rdb == nil {
		return
	}
	p.rdb.Set(ctx, presenceKey(dataSourceID), time.Now().Unix(), presenceTTL)
}

// Online reports whether the data source's collector has been seen recently.
func (p *Presence) Online(ctx context.Context, dataSourceID uint) bool {
	if p.rdb == nil {
		return false
	}
	n, err := p.rdb.Exists(ctx, presenceKey(dataSourceID)).Result()
	return err == nil && n > 0
}

// keyCacheTTL bounds how long a revoked key keeps authenticating.
const keyCacheTTL = time.Minute

// Middleware authenticates a collector agent by its API key, resolves the
// owning data source and stores its identity in the gin context. Every
// authenticated call also refreshes the agent's presence key.
//
// A long-polling collector hits this middleware on every reconnect, so
// resolved keys are held in a small TTL cache to keep the per-poll database
// lookups off the hot path. Only successful lookups are cached.
func Middleware(db *gorm.DB, presence *Presence) gin.HandlerFunc {
	keyCache, _ := util.NewWithConfig(util.CacheConfig[string, models.DataSource]{
		Capacity: 1024,
		TTL:      keyCacheTTL,
	})

	return func(c *gin.Context) {
		apiKey := c.GetHeader(HeaderAPIKey)
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid Agent API Key"})
			return
		}

		source, ok := keyCache.Get(apiKey)
		if !ok {
			err := db.WithContext(c.Request.Context()).
				Where("api_key = ?", apiKey).
				First(&source).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid Agent API Key"})
				return
			}
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to authenticate agent"})
				return
			}
			keyCache.Put(apiKey, source)
		}

		presence.Touch(c.Request.Context(), source.ID)

		c.Set(ContextDataSourceID, source.ID)
		c.Set(ContextTenantID, source.TenantID)
		c.Next()
	}
}
