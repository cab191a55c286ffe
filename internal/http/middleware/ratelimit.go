package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"vipclub_backend/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter - фиксированное окно на пользователя (или IP до авторизации).
// Счетчики живут в redis, при недоступности redis считаем в памяти процесса
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time

	mu     sync.Mutex
	local  map[string]*windowCounter
	lastGC time.Time
}

type windowCounter struct {
	start time.Time
	count int
}

// NewRedisClient возвращает nil, если адрес не задан
func NewRedisClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
}

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		now:    time.Now,
		local:  make(map[string]*windowCounter),
	}
}

// Allow увеличивает счетчик ключа и сообщает, уложились ли в лимит
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	if rl.rdb != nil {
		count, err := rl.incrRedis(ctx, key)
		if err == nil {
			return count <= int64(rl.limit)
		}
		logger.Warn("rate limit: redis недоступен, считаем в памяти", "error", err)
	}
	return rl.allowLocal(key)
}

func (rl *RateLimiter) incrRedis(ctx context.Context, key string) (int64, error) {
	windowID := rl.now().UnixNano() / int64(rl.window)
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, windowID)

	pipe := rl.rdb.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (rl *RateLimiter) allowLocal(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastGC) > rl.window {
		for k, wc := range rl.local {
			if now.Sub(wc.start) >= rl.window {
				delete(rl.local, k)
			}
		}
		rl.lastGC = now
	}

	wc, ok := rl.local[key]
	if !ok || now.Sub(wc.start) >= rl.window {
		rl.local[key] = &windowCounter{start: now, count: 1}
		return true
	}
	wc.count++
	return wc.count <= rl.limit
}

// Middleware ограничивает запросы, ключ - пользователь из Auth или IP
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if id, ok := UserID(c); ok {
			key = "user:" + strconv.FormatInt(id, 10)
		}

		if !rl.Allow(c.Request.Context(), key) {
			c.Header("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "too many requests",
			})
			return
		}
		c.Next()
	}
}
