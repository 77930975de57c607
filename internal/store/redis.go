package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultTTL = 30 * 24 * time.Hour

	keyPrefix = "hh-assessor:"
)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// TTL of every record; zero means DefaultTTL, negative means no expiry.
	TTL time.Duration
}

// Redis stores records as JSON values under prefixed keys.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, opts RedisOptions, logger *zap.Logger) (*Redis, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}

	return newRedis(client, opts.TTL, logger), nil
}

func newRedis(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	switch {
	case ttl == 0:
		ttl = DefaultTTL
	case ttl < 0:
		ttl = 0
	}

	return &Redis{client: client, ttl: ttl, now: time.Now, logger: logger}
}

func (r *Redis) SaveJob(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}

	prepareJob(job, r.now())
	return r.put(ctx, jobKey(job.ID), job)
}

func (r *Redis) GetJob(ctx context.Context, id string) (*Job, error) {
	var job Job
	if err := r.get(ctx, jobKey(id), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *Redis) SaveSubmission(ctx context.Context, submission *Submission) error {
	if submission == nil {
		return errors.New("submission is nil")
	}

	exists, err := r.client.Exists(ctx, jobKey(submission.JobID)).Result()
	if err != nil {
		return fmt.Errorf("redis exists: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}

	prepareSubmission(submission, r.now())
	return r.put(ctx, submissionKey(submission.ID), submission)
}

func (r *Redis) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	var submission Submission
	if err := r.get(ctx, submissionKey(id), &submission); err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) put(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	r.logger.Debug("record stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

func (r *Redis) get(ctx context.Context, key string, out any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func jobKey(id string) string {
	return keyPrefix + "job:" + id
}

func submissionKey(id string) string {
	return keyPrefix + "submission:" + id
}
