package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/adolfdaniel/browser-genai-eval/pkg/logger"
)

type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetArticles(ctx context.Context, key string, articles interface{}, ttl time.Duration) error {
	data, err := json.Marshal(articles)
	if err != nil {
		return fmt.Errorf("failed to marshal articles: %w", err)
	}

	err = c.client.Set(ctx, fmt.Sprintf("articles:%s", key), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set article cache: %w", err)
	}

	logger.Debug("Article set cached", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetArticles(ctx context.Context, key string, articles interface{}) (bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("articles:%s", key)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get article cache: %w", err)
	}

	err = json.Unmarshal(data, articles)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal articles: %w", err)
	}

	logger.Debug("Article cache hit", zap.String("key", key))
	return true, nil
}

func (c *Client) InvalidateArticles(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "articles:*", 0).Iterator()
	for iter.Next(ctx) {
		err := c.client.Del(ctx, iter.Val()).Err()
		if err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Article cache invalidated")
	return nil
}
