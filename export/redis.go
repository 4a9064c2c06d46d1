package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSink stores the episodes as a list, the summary text as a string
// and indexes the run in a hash keyed by run id
type RedisSink struct {
	client *redis.Client
	prefix string
}

var _ Sink = &RedisSink{}

func NewRedisSink(addr, prefix string) *RedisSink {
	return NewRedisSinkWithClient(redis.NewClient(&redis.Options{
		Addr: addr,
	}), prefix)
}

func NewRedisSinkWithClient(client *redis.Client, prefix string) *RedisSink {
	if prefix == "" {
		prefix = "keygrid"
	}
	return &RedisSink{client: client, prefix: prefix}
}

func (s *RedisSink) RunsKey() string {
	return s.prefix + ":runs"
}

func (s *RedisSink) EpisodesKey(runID string) string {
	return fmt.Sprintf("%s:run:%s:episodes", s.prefix, runID)
}

func (s *RedisSink) SummaryKey(runID string) string {
	return fmt.Sprintf("%s:run:%s:summary", s.prefix, runID)
}

func (s *RedisSink) Export(ctx context.Context, r *Report) error {
	episodes := make([]interface{}, len(r.Episodes))
	for i, e := range r.Episodes {
		bs, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encoding episode %d: %w", e.Episode, err)
		}
		episodes[i] = string(bs)
	}
	index, err := json.Marshal(struct {
		Mode      string      `json:"mode"`
		CreatedAt string      `json:"created_at"`
		Summary   interface{} `json:"summary"`
	}{r.Mode, r.CreatedAt.UTC().Format(time.RFC3339), r.Summary})
	if err != nil {
		return fmt.Errorf("encoding run index: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		episodesKey := s.EpisodesKey(r.RunID)
		pipe.Del(ctx, episodesKey)
		if len(episodes) > 0 {
			pipe.RPush(ctx, episodesKey, episodes...)
		}
		pipe.Set(ctx, s.SummaryKey(r.RunID), r.Summary.Text(), 0)
		pipe.HSet(ctx, s.RunsKey(), r.RunID, string(index))
		return nil
	})
	if err != nil {
		return fmt.Errorf("exporting run %s to redis: %w", r.RunID, err)
	}
	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
