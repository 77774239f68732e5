package utils

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/diceraja/config"
)

func regDayKey(ip string, now time.Time) string {
	return "reg:succday:" + ip + ":" + now.Format("20060102")
}

// RegistrationDailyLimitCheck allows up to N successful registrations per day per IP.
// Without Redis, or on Redis errors, it fails open.
func RegistrationDailyLimitCheck(ip string) bool {
	limit := config.Get().RegisterMaxPerIPPerDay
	if limit <= 0 {
		return true
	}
	cli := GetRedis()
	if cli == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	n, err := cli.Get(ctx, regDayKey(ip, time.Now())).Int()
	if errors.Is(err, redis.Nil) {
		return true
	}
	if err != nil {
		return true
	}
	return n < limit
}

// RegistrationDailyIncrement counts a successful registration for today.
func RegistrationDailyIncrement(ip string) {
	cli := GetRedis()
	if cli == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	now := time.Now()
	key := regDayKey(ip, now)
	if err := cli.Incr(ctx, key).Err(); err == nil {
		// expire at the end of the local day
		midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
		_ = cli.Expire(ctx, key, time.Until(midnight)).Err()
	}
}
