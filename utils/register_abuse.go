package utils

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Registration abuse guards. All checks fail open when Redis is unavailable:
// losing the guard is preferable to blocking every signup.

func regKey(parts ...string) string {
	return "reg:" + strings.Join(parts, ":")
}

// RegistrationCooldownTry enforces a short cooldown between attempts per IP.
func RegistrationCooldownTry(ip string, cooldownSec int) bool {
	if cooldownSec <= 0 {
		return true
	}
	cli := GetRedis()
	if cli == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	ok, err := cli.SetNX(ctx, regKey("cooldown", ip), "1", time.Duration(cooldownSec)*time.Second).Result()
	if err != nil {
		return true
	}
	return ok
}

// RegistrationDailyLimitCheck allows up to limit successful registrations per
// day per IP.
func RegistrationDailyLimitCheck(ip string, limit int) bool {
	if limit <= 0 {
		return true
	}
	cli := GetRedis()
	if cli == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	key := regKey("succday", ip, time.Now().Format("20060102"))
	n, err := cli.Get(ctx, key).Int()
	if err == redis.Nil {
		n = 0
	} else if err != nil {
		return true
	}
	return n < limit
}

// RegistrationDailyIncrement increments the success counter for today.
func RegistrationDailyIncrement(ip string) {
	cli := GetRedis()
	if cli == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	key := regKey("succday", ip, time.Now().Format("20060102"))
	if err := cli.Incr(ctx, key).Err(); err == nil {
		// expire at end of day
		ttl := time.Until(time.Now().Truncate(24 * time.Hour).Add(24 * time.Hour))
		_ = cli.Expire(ctx, key, ttl).Err()
	}
}
