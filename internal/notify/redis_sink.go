// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuGH/topod/internal/domain/session/ports"
	"github.com/ManuGH/topod/internal/log"
)

// DefaultRedisChannel is used when RedisConfig.Channel is empty.
const DefaultRedisChannel = "topod.topology"

// RedisConfig configures the pub/sub sink.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// RedisSink PUBLISHes each event as JSON on a channel.
type RedisSink struct {
	client  *redis.Client
	channel string
}

// NewRedisSink connects lazily; an unreachable server at startup is only logged.
func NewRedisSink(cfg RedisConfig) (*RedisSink, error) {
	if cfg.Addr == "" {
		return nil, errors.New("notify redis sink: addr is required")
	}
	channel := cfg.Channel
	if channel == "" {
		channel = DefaultRedisChannel
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger := log.WithComponent("notify.redis")
		logger.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis not reachable yet, will retry on publish")
	}

	return &RedisSink{client: client, channel: channel}, nil
}

func (s *RedisSink) Name() string { return SinkRedis }

func (s *RedisSink) Send(ctx context.Context, ev ports.ControllerEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel, payload).Err()
}

func (s *RedisSink) Close() error { return s.client.Close() }
