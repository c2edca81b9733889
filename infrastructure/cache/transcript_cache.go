package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/naoterumaker/youtube-transcriber/domain/model"
	"github.com/naoterumaker/youtube-transcriber/domain/repository"

	"github.com/redis/go-redis/v9"
)

// Store is the part of *redis.Client the transcript cache uses.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// TranscriptCache keeps fetched transcripts in redis as JSON. A nil store disables it.
type TranscriptCache struct {
	rdb Store
	ttl time.Duration
}

// NewTranscriptCache creates a transcript cache with the given TTL; zero keeps entries forever.
func NewTranscriptCache(rdb Store, ttl time.Duration) repository.ITranscriptCache {
	return &TranscriptCache{rdb: rdb, ttl: ttl}
}

func transcriptKey(videoID string) string {
	return "transcript:" + videoID
}

func (c *TranscriptCache) GetTranscript(ctx context.Context, videoID string) (*model.TranscriptArtifact, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, transcriptKey(videoID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transcript %s: %w", videoID, err)
	}

	var artifact model.TranscriptArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("decode cached transcript %s: %w", videoID, err)
	}
	return &artifact, nil
}

func (c *TranscriptCache) SetTranscript(ctx context.Context, artifact *model.TranscriptArtifact) error {
	if c.rdb == nil || artifact == nil {
		return nil
	}
	b, err := json.Marshal(artifact)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, transcriptKey(artifact.VideoID), b, c.ttl).Err()
}
