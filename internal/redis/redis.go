package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client keeps running counters of classified hand types.
type Client struct {
	rdb    *redis.Client
	prefix string
}

func New(addr, prefix string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}

	return &Client{rdb: rdb, prefix: prefix}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) key(name string) string {
	if c.prefix == "" {
		return name
	}
	return c.prefix + ":" + name
}

// Hand type counters
func (c *Client) IncrHandType(ctx context.Context, handType string) error {
	pipe := c.rdb.TxPipeline()
	pipe.HIncrBy(ctx, c.key("hand_types"), handType, 1)
	pipe.Incr(ctx, c.key("hands_total"))
	_, err := pipe.Exec(ctx)
	return err
}

func (c *Client) HandTypeCounts(ctx context.Context) (map[string]int64, error) {
	raw, err := c.rdb.HGetAll(ctx, c.key("hand_types")).Result()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(raw))
	for handType, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", handType, err)
		}
		counts[handType] = n
	}
	return counts, nil
}

func (c *Client) Total(ctx context.Context) (int64, error) {
	n, err := c.rdb.Get(ctx, c.key("hands_total")).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

func (c *Client) Reset(ctx context.Context) error {
	return c.rdb.Del(ctx, c.key("hand_types"), c.key("hands_total")).Err()
}
