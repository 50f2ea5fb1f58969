package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// BallotCache collects votes for the current voting window in Redis.
// One hash holds target -> count, one set holds who already voted.
// Stage scopes the keys so a day vote, a campaign vote and a PK vote in
// the same round never mix. The cast itself is the duplicate gate: the
// count only moves when the voter enters the set, in one script, so two
// racing submissions from the same seat can never both land.
type BallotCache interface {
	// Cast records one ballot. False means this voter already cast in
	// the window and nothing was counted.
	Cast(ctx context.Context, matchID string, round int, stage string, voter, target int) (bool, error)
	// Retract undoes a cast, freeing the voter to cast again. A voter
	// who never cast is a no-op.
	Retract(ctx context.Context, matchID string, round int, stage string, voter, target int) error
	Tally(ctx context.Context, matchID string, round int, stage string) (map[int]int, error)
	Clear(ctx context.Context, matchID string, round int, stage string) error
}

// castScript counts the ballot only when SADD actually admitted the
// voter, so the membership check and the increment cannot interleave
var castScript = redis.NewScript(`
if redis.call("sadd", KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call("hincrby", KEYS[2], ARGV[2], 1)
redis.call("expire", KEYS[1], ARGV[3])
redis.call("expire", KEYS[2], ARGV[3])
return 1
`)

var retractScript = redis.NewScript(`
if redis.call("srem", KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call("hincrby", KEYS[2], ARGV[2], -1)
return 1
`)

type ballotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBallotCache creates a new ballot cache
func NewBallotCache(client *redis.Client) BallotCache {
	return &ballotCache{
		client: client,
		ttl:    2 * time.Hour, // stale windows expire with the match
	}
}

func (c *ballotCache) tallyKey(matchID string, round int, stage string) string {
	return fmt.Sprintf("match:%s:r%d:%s:tally", matchID, round, stage)
}

func (c *ballotCache) votersKey(matchID string, round int, stage string) string {
	return fmt.Sprintf("match:%s:r%d:%s:voters", matchID, round, stage)
}

func (c *ballotCache) Cast(ctx context.Context, matchID string, round int, stage string, voter, target int) (bool, error) {
	keys := []string{
		c.votersKey(matchID, round, stage),
		c.tallyKey(matchID, round, stage),
	}
	res, err := castScript.Run(ctx, c.client, keys,
		voter, strconv.Itoa(target), int(c.ttl/time.Second),
	).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (c *ballotCache) Retract(ctx context.Context, matchID string, round int, stage string, voter, target int) error {
	keys := []string{
		c.votersKey(matchID, round, stage),
		c.tallyKey(matchID, round, stage),
	}
	return retractScript.Run(ctx, c.client, keys, voter, strconv.Itoa(target)).Err()
}

func (c *ballotCache) Tally(ctx context.Context, matchID string, round int, stage string) (map[int]int, error) {
	data, err := c.client.HGetAll(ctx, c.tallyKey(matchID, round, stage)).Result()
	if err != nil {
		return nil, err
	}
	tally := make(map[int]int)
	for targetStr, countStr := range data {
		target, err := strconv.Atoi(targetStr)
		if err != nil {
			continue
		}
		count, err := strconv.Atoi(countStr)
		if err != nil {
			continue
		}
		tally[target] = count
	}
	return tally, nil
}

func (c *ballotCache) Clear(ctx context.Context, matchID string, round int, stage string) error {
	return c.client.Del(ctx,
		c.tallyKey(matchID, round, stage),
		c.votersKey(matchID, round, stage),
	).Err()
}
