package utils

import (
	"context"
	"time"

	"github.com/mojocn/base64Captcha"
)

var captchaStore base64Captcha.Store = base64Captcha.DefaultMemStore

// InitCaptchaStore switches the captcha store to Redis when available so
// captcha verification works behind load balancers. Call after InitRedis.
func InitCaptchaStore() {
	if GetRedis() != nil {
		captchaStore = &redisCaptchaStore{ttl: 10 * time.Minute}
	}
}

// GenerateCaptcha creates a captcha and returns (id, dataURI) for the
// frontend to display.
func GenerateCaptcha() (string, string, error) {
	driver := base64Captcha.NewDriverDigit(40, 120, 5, 0.7, 80)
	c := base64Captcha.NewCaptcha(driver, captchaStore)
	id, b64, _, err := c.Generate()
	return id, b64, err
}

// VerifyCaptcha verifies the provided answer; it consumes the captcha on success.
func VerifyCaptcha(id, answer string) bool {
	if id == "" || answer == "" {
		return false
	}
	return captchaStore.Verify(id, answer, true)
}

// redisCaptchaStore implements base64Captcha.Store backed by Redis.
type redisCaptchaStore struct {
	ttl time.Duration
}

func (s *redisCaptchaStore) key(id string) string {
	return "captcha:" + id
}

// Set stores the captcha value with TTL.
func (s *redisCaptchaStore) Set(id string, value string) error {
	rc := GetRedis()
	if rc == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return rc.Set(ctx, s.key(id), value, s.ttl).Err()
}

// Get retrieves the value and optionally clears it.
func (s *redisCaptchaStore) Get(id string, clear bool) string {
	rc := GetRedis()
	if rc == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if clear {
		v, err := rc.GetDel(ctx, s.key(id)).Result()
		if err != nil {
			return ""
		}
		return v
	}
	v, err := rc.Get(ctx, s.key(id)).Result()
	if err != nil {
		return ""
	}
	return v
}

// Verify compares the answer and optionally clears it.
func (s *redisCaptchaStore) Verify(id, answer string, clear bool) bool {
	v := s.Get(id, clear)
	return v != "" && v == answer
}
