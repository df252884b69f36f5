package authcore

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/authcore/totp"
	"github.com/redis/go-redis/v9"
)

// markStepScript stores ARGV[1] as the last accepted step unless an equal or
// later step is already recorded. Returns 1 when the step is fresh.
const markStepScript = `
local last = redis.call("GET", KEYS[1])
if last and tonumber(last) >= tonumber(ARGV[1]) then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return 1
`

var markStepLua = redis.NewScript(markStepScript)

// factorReplayGuard remembers the last accepted TOTP step per account so a
// code cannot be used twice within its validity window.
type factorReplayGuard struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func newFactorReplayGuard(rdb redis.UniversalClient, prefix string, window uint) *factorReplayGuard {
	steps := time.Duration(2*window + 2)
	return &factorReplayGuard{
		redis:  rdb,
		prefix: prefix,
		ttl:    steps * totp.DefaultPeriod * time.Second,
	}
}

func (g *factorReplayGuard) key(accountID string) string {
	return g.prefix + ":totp:last:" + accountID
}

// mark records step for accountID and reports whether it was unused.
func (g *factorReplayGuard) mark(ctx context.Context, accountID string, step int64) (bool, error) {
	res, err := markStepLua.Run(ctx, g.redis, []string{g.key(accountID)}, step, g.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res == 1, nil
}
