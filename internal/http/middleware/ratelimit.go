package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"clue_backend/internal/logger"
)

const rateKeyPrefix = "clue:ratelimit:"

// RateLimiter - фиксированное окно на клиента в Redis, общее для всех инстансов.
// Без Redis или при его недоступности работает локальный token bucket на клиента.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time

	mu    sync.Mutex
	local map[string]*localLimiter
}

type localLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// limit <= 0 отключает ограничение
func NewRateLimiter(rdb *redis.Client, limit int, per time.Duration) *RateLimiter {
	return &RateLimiter{
		rdb:    rdb,
		limit:  limit,
		window: per,
		now:    time.Now,
		local:  make(map[string]*localLimiter),
	}
}

// Allow учитывает запрос клиента key и сообщает, укладывается ли он в лимит
func (l *RateLimiter) Allow(ctx context.Context, key string) bool {
	if l.limit <= 0 {
		return true
	}
	if l.rdb != nil {
		n, err := l.incr(ctx, rateKeyPrefix+key)
		if err == nil {
			return n <= int64(l.limit)
		}
		logger.Warn("rate limit: redis недоступен, считаем локально", "error", err)
	}
	return l.allowLocal(key)
}

func (l *RateLimiter) incr(ctx context.Context, key string) (int64, error) {
	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// первый запрос в окне открывает окно
	if n == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return 0, err
		}
	}
	return n, nil
}

func (l *RateLimiter) allowLocal(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	// клиенты, молчавшие дольше окна, снова начинают с полного bucket
	if len(l.local) > 4096 {
		for k, e := range l.local {
			if now.Sub(e.seen) >= l.window {
				delete(l.local, k)
			}
		}
	}

	e, ok := l.local[key]
	if !ok {
		e = &localLimiter{lim: rate.NewLimiter(rate.Every(l.window/time.Duration(l.limit)), l.limit)}
		l.local[key] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}

// Middleware ограничивает запросы по IP клиента
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.Request.Context(), c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests", "code": "RATE_LIMITED"})
			return
		}
		c.Next()
	}
}
