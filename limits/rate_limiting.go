package limits

import (
	"encoding/json"
	"time"

	"github.com/didip/tollbooth"
	"github.com/didip/tollbooth/limiter"
	"github.com/t2bot/media-converter/api"
	"github.com/t2bot/media-converter/common/config"
)

// NewRequestLimiter builds a per client IP token bucket. A new limiter is made for every server
// (re)start so config changes take effect.
func NewRequestLimiter(cfg config.RateLimitConfig) *limiter.Limiter {
	lmt := tollbooth.NewLimiter(0, nil)
	lmt.SetIPLookups([]string{"X-Forwarded-For", "X-Real-IP", "RemoteAddr"})
	lmt.SetTokenBucketExpirationTTL(time.Hour)
	lmt.SetBurst(cfg.BurstCount)
	lmt.SetMax(cfg.RequestsPerSecond)

	b, _ := json.Marshal(api.RateLimitReached())
	lmt.SetMessage(string(b))
	lmt.SetMessageContentType("application/json")
	return lmt
}
