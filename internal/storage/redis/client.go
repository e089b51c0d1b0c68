package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix отделяет ключи конфигуратора от прочих данных в общей базе Redis.
const KeyPrefix = "coffee:"

const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

// Client — KV-кеш ссылок Seafile и ответов Ozon
type Client struct {
	*redis.Client
	prefix string
}

func New(opts Options) *Client {
	return FromClient(redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}))
}

// FromClient оборачивает готовый клиент, например из redismock.
func FromClient(rdb *redis.Client) *Client {
	return &Client{Client: rdb, prefix: KeyPrefix}
}

func (c *Client) Key(key string) string {
	return c.prefix + key
}

func (c *Client) Keys(keys ...string) []string {
	prefixed := make([]string, 0, len(keys))
	for _, k := range keys {
		prefixed = append(prefixed, c.Key(k))
	}

	return prefixed
}

func (c *Client) HealthCheck(ctx context.Context) error {
	const op = "storage.redis.HealthCheck"

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *Client) Close() error {
	const op = "storage.redis.Close"

	if err := c.Client.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
