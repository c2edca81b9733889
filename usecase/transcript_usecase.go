package usecase

import (
	"context"

	"github.com/naoterumaker/youtube-transcriber/domain/model"
)

// ITranscriptUseCase defines single-video transcript extraction
type ITranscriptUseCase interface {
	Extract(ctx context.Context, urlOrID string) (*model.TranscriptArtifact, error)
}

// TranscriptUseCase extracts the transcript of one video without an API key
type TranscriptUseCase struct {
	fetcher *TranscriptFetcher
}

// NewTranscriptUseCase creates a new transcript use case
func NewTranscriptUseCase(fetcher *TranscriptFetcher) ITranscriptUseCase {
	return &TranscriptUseCase{fetcher: fetcher}
}

// Extract accepts a watch, short, embed or /v/ URL or a bare 11 character id.
// Malformed input fails fast with model.ErrInvalidIdentifier.
func (u *TranscriptUseCase) Extract(ctx context.Context, urlOrID string) (*model.TranscriptArtifact, error) {
	videoID, err := model.ExtractVideoID(urlOrID)
	if err != nil {
		return nil, err
	}
	return u.fetcher.Fetch(ctx, videoID)
}
