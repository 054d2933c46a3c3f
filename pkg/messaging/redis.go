package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisClient Redis 리스트 기반 작업 큐 클라이언트 인터페이스.
// 메시지는 꺼내는 소비자 하나에게만 전달되고, 소비자가 없어도 큐에 남습니다
type RedisClient interface {
	Enqueue(ctx context.Context, queue string, message interface{}) error
	// Dequeue 최대 timeout 동안 대기합니다. 큐가 비어 있으면 (nil, nil)
	Dequeue(ctx context.Context, queue string, timeout time.Duration) (*Message, error)
	Len(ctx context.Context, queue string) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Message 수신 메시지
type Message struct {
	Queue   string
	Payload []byte
	Time    time.Time
}

type redisClient struct {
	client *redis.Client
}

// Options Redis 연결 설정
type Options struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// NewRedisClient Redis에 연결하고 Ping으로 연결을 확인합니다
func NewRedisClient(opts Options) (RedisClient, error) {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("Redis 연결 실패: %w", err)
	}

	return &redisClient{client: client}, nil
}

// Enqueue 메시지를 JSON으로 직렬화하여 큐 왼쪽에 넣습니다 (LPUSH)
func (r *redisClient) Enqueue(ctx context.Context, queue string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("메시지 직렬화 실패: %w", err)
	}

	return r.client.LPush(ctx, queue, payload).Err()
}

// Dequeue 큐 오른쪽에서 하나를 꺼냅니다 (BRPOP). 1초 미만의 timeout은 1초로 올림됩니다
func (r *redisClient) Dequeue(ctx context.Context, queue string, timeout time.Duration) (*Message, error) {
	if timeout < time.Second {
		timeout = time.Second
	}

	res, err := r.client.BRPop(ctx, timeout, queue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("큐 읽기 실패: %w", err)
	}
	// BRPOP 응답은 [key, value]
	if len(res) != 2 {
		return nil, fmt.Errorf("예상하지 못한 BRPOP 응답: %v", res)
	}

	return &Message{Queue: res[0], Payload: []byte(res[1]), Time: time.Now()}, nil
}

// Len 큐에 남은 메시지 수
func (r *redisClient) Len(ctx context.Context, queue string) (int64, error) {
	return r.client.LLen(ctx, queue).Result()
}

func (r *redisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close Redis 연결 종료
func (r *redisClient) Close() error {
	return r.client.Close()
}
