package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter はクライアントIPごとにトークンバケットでリクエスト数を制限する。
type RateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	perIP     map[string]*ipLimiter
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter は1秒あたりrequestsPerSecond件、最大burst件まで許可するRateLimiterを生成する。
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(requestsPerSecond),
		burst:   burst,
		perIP:   make(map[string]*ipLimiter),
		idleTTL: 10 * time.Minute,
		now:     time.Now,
	}
}

// allow はキーに対するリクエストを許可するかを判定する。
// 許可しない場合は次に許可されるまでの待ち時間を返す。
func (l *RateLimiter) allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	entry, ok := l.perIP[key]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.perIP[key] = entry
	}
	entry.lastSeen = now

	r := entry.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// sweep は一定時間アクセスのないIPのリミッターを破棄する。
func (l *RateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	for key, entry := range l.perIP {
		if now.Sub(entry.lastSeen) > l.idleTTL {
			delete(l.perIP, key)
		}
	}
	l.lastSweep = now
}

// Middleware はレート制限を行うGinミドルウェアを返す。
// 上限を超えたリクエストには429とRetry-Afterヘッダーを返す。
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := l.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "リクエストが多すぎます。しばらくしてから再試行してください",
			})
			return
		}
		c.Next()
	}
}
