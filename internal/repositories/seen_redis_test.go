package repositories

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRedis struct {
	mock.Mock
}

func (m *mockRedis) SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	args := m.Called(key, len(members))
	return redis.NewIntResult(int64(len(members)), args.Error(0))
}

func (m *mockRedis) SMembers(ctx context.Context, key string) *redis.StringSliceCmd {
	args := m.Called(key)
	return redis.NewStringSliceResult(args.Get(0).([]string), args.Error(1))
}

func (m *mockRedis) Close() error {
	return nil
}

func Test_SeenRedis_Save_ShouldChunkMembers(t *testing.T) {
	client := &mockRedis{}
	client.On("SAdd", "seen", redisChunkSize).Return(nil).Once()
	client.On("SAdd", "seen", 5).Return(nil).Once()

	ids := make([]string, redisChunkSize+5)
	for i := range ids {
		ids[i] = fmt.Sprint(i)
	}

	store := &SeenRedis{client: client, key: "seen"}
	require.NoError(t, store.Save(context.Background(), ids))

	client.AssertExpectations(t)
}

func Test_SeenRedis_Save_WhenEmpty_ShouldNotCallRedis(t *testing.T) {
	client := &mockRedis{}

	store := &SeenRedis{client: client, key: "seen"}
	require.NoError(t, store.Save(context.Background(), nil))

	client.AssertNotCalled(t, "SAdd", mock.Anything, mock.Anything)
}

func Test_SeenRedis_Load(t *testing.T) {
	client := &mockRedis{}
	client.On("SMembers", "seen").Return([]string{"1", "2"}, nil)

	store := &SeenRedis{client: client, key: "seen"}
	ids, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2"}, ids)
}

func Test_SeenRedis_Load_WhenRedisFails_ShouldWrapError(t *testing.T) {
	client := &mockRedis{}
	client.On("SMembers", "seen").Return([]string(nil), errors.New("connection reset"))

	store := &SeenRedis{client: client, key: "seen"}
	_, err := store.Load(context.Background())

	assert.ErrorContains(t, err, "connection reset")
}
