package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/youthbridge/youthbridge/internal/config"
	"go.uber.org/zap"
)

const keyCheckoutClient = "checkout:client:%s"

// Session-creation limits per client address. Checkout hits paid provider
// APIs, so a runaway client gets throttled before Stripe or PayPal sees it.
const (
	checkoutClientRate  = 0.5
	checkoutClientBurst = 5
)

// CheckoutLimiter throttles checkout-session creation per client address. A
// nil limiter (no redis configured) allows everything.
type CheckoutLimiter struct {
	bucket *TokenBucket
	log    *zap.Logger
}

func NewCheckoutLimiter(cfg config.Config, log *zap.Logger) *CheckoutLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &CheckoutLimiter{
		bucket: NewTokenBucket(client),
		log:    log.Named("ratelimit.checkout"),
	}
}

// Allow reports whether the client address may create another session. Redis
// errors degrade open so a cache outage never blocks payments.
func (l *CheckoutLimiter) Allow(ctx context.Context, clientAddr string) (bool, time.Duration) {
	if l == nil || l.bucket == nil {
		return true, 0
	}
	clientAddr = strings.TrimSpace(clientAddr)
	if clientAddr == "" {
		return true, 0
	}

	result, err := l.bucket.Allow(ctx, fmt.Sprintf(keyCheckoutClient, clientAddr), checkoutClientRate, checkoutClientBurst)
	if err != nil {
		l.log.Warn("checkout rate limiter unavailable", zap.Error(err))
		return true, 0
	}
	return result.Allowed, result.RetryAfter
}
