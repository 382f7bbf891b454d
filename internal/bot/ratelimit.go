package bot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// Rate limiting
	MaxRequestsPerMinute = 30 // Максимум запросов в минуту на пользователя
	RateLimitWindow      = time.Minute
)

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter ограничивает частоту запросов каждого пользователя.
// Пользователь получает запас в MaxRequestsPerMinute запросов, который
// восстанавливается равномерно за RateLimitWindow.
type RateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	users map[int64]*userLimiter
	mutex sync.Mutex
}

// NewRateLimiter создает новый rate limiter
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limit: rate.Every(RateLimitWindow / MaxRequestsPerMinute),
		burst: MaxRequestsPerMinute,
		now:   time.Now,
		users: make(map[int64]*userLimiter),
	}
}

// IsAllowed проверяет, разрешен ли запрос для пользователя
func (rl *RateLimiter) IsAllowed(userID int64) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	u, ok := rl.users[userID]
	if !ok {
		u = &userLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.users[userID] = u
	}
	u.lastSeen = now

	return u.limiter.AllowN(now, 1)
}

// Cleanup удаляет лимитеры пользователей, неактивных дольше maxIdle
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	removed := 0
	for id, u := range rl.users {
		if now.Sub(u.lastSeen) > maxIdle {
			delete(rl.users, id)
			removed++
		}
	}
	return removed
}
