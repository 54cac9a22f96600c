package cache

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Options LocalSize<=0 时不启用进程内一级缓存
type Options struct {
	Prefix    string
	LocalSize int
	LocalTTL  time.Duration
}

// Cache 两级缓存：进程内 LRU -> redis -> 回源
type Cache struct {
	RDB    *redis.Client
	prefix string
	local  *expirable.LRU[string, []byte]
	sf     singleflight.Group
}

func NewRedis(addr, pass string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}

func New(rdb *redis.Client, o Options) *Cache {
	c := &Cache{RDB: rdb, prefix: o.Prefix}
	if o.LocalSize > 0 {
		c.local = expirable.NewLRU[string, []byte](o.LocalSize, nil, o.LocalTTL)
	}
	return c
}

func (c *Cache) key(k string) string { return c.prefix + k }

// 多个进程共用 redis 时，一级缓存靠这个频道互相失效
func (c *Cache) channel() string { return c.prefix + "cache:invalidate" }

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	key = c.key(key)
	if c.local != nil {
		if b, ok := c.local.Get(key); ok {
			return b, nil
		}
	}
	// 先读 redis
	if b, err := c.RDB.Get(ctx, key).Bytes(); err == nil {
		c.setLocal(key, b)
		return b, nil
	}
	// single flight 合并回源
	v, err, _ := c.sf.Do(key, func() (any, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		_ = c.RDB.Set(ctx, key, b, ttl).Err()
		c.setLocal(key, b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cache) setLocal(key string, b []byte) {
	if c.local != nil {
		c.local.Add(key, b)
	}
}

// Delete 两级一起失效
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		k = c.key(k)
		full = append(full, k)
		if c.local != nil {
			c.local.Remove(k)
		}
	}
	if err := c.RDB.Del(ctx, full...).Err(); err != nil {
		return err
	}
	return c.RDB.Publish(ctx, c.channel(), strings.Join(full, "\n")).Err()
}

// Listen 订阅其他进程的失效通知，清掉本地一级缓存；阻塞到 ctx 结束
func (c *Cache) Listen(ctx context.Context) error {
	if c.local == nil {
		return nil
	}
	sub := c.RDB.Subscribe(ctx, c.channel())
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			for _, k := range strings.Split(m.Payload, "\n") {
				c.local.Remove(k)
			}
		}
	}
}
