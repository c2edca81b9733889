package repository

import (
	"context"

	"github.com/naoterumaker/youtube-transcriber/domain/model"
)

// ITranscriptCache defines a cache for fetched transcripts
type ITranscriptCache interface {
	// GetTranscript returns nil, nil on a miss.
	GetTranscript(ctx context.Context, videoID string) (*model.TranscriptArtifact, error)
	SetTranscript(ctx context.Context, artifact *model.TranscriptArtifact) error
}

// IHarvestSink consumes a finished harvest, e.g. CSV export or a database
type IHarvestSink interface {
	Name() string
	Write(ctx context.Context, result *model.HarvestResult) error
}

// IHarvestStore persists harvested rows for later lookup
type IHarvestStore interface {
	IHarvestSink
	ListRunVideos(ctx context.Context, runID string) ([]model.VideoRecord, error)
}
