package presence

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

var _ redisClient = (*MockRedisClient)(nil)

type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) SAdd(ctx context.Context, key string, members ...any) *redis.IntCmd {
	args := m.Called(key, members)
	return redis.NewIntResult(1, args.Error(0))
}

func (m *MockRedisClient) SRem(ctx context.Context, key string, members ...any) *redis.IntCmd {
	args := m.Called(key, members)
	return redis.NewIntResult(1, args.Error(0))
}

func (m *MockRedisClient) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	args := m.Called(channel, message)
	return redis.NewIntResult(1, args.Error(0))
}

func (m *MockRedisClient) Close() error {
	args := m.Called()
	return args.Error(0)
}
