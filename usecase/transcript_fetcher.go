package usecase

import (
	"context"
	"errors"

	"github.com/naoterumaker/youtube-transcriber/domain/model"
	"github.com/naoterumaker/youtube-transcriber/domain/repository"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/logger"
)

// TranscriptFetcher tries each preferred language, then the provider default
type TranscriptFetcher struct {
	provider  repository.ITranscript
	cache     repository.ITranscriptCache // optional
	languages []string
}

// NewTranscriptFetcher creates a new transcript fetcher
func NewTranscriptFetcher(provider repository.ITranscript, languages []string) *TranscriptFetcher {
	return &TranscriptFetcher{provider: provider, languages: languages}
}

// WithCache enables the read-through transcript cache (fluent)
func (f *TranscriptFetcher) WithCache(cache repository.ITranscriptCache) *TranscriptFetcher {
	f.cache = cache
	return f
}

// Fetch returns the full transcript of videoID or a *model.TranscriptError
// carrying the last cause. It never returns partial text.
func (f *TranscriptFetcher) Fetch(ctx context.Context, videoID string) (*model.TranscriptArtifact, error) {
	if cached := f.fromCache(ctx, videoID); cached != nil {
		return cached, nil
	}

	var (
		last     error
		lastLang string
	)
	for _, lang := range append(append([]string{}, f.languages...), "") {
		text, used, err := f.provider.GetTranscript(ctx, videoID, lang)
		if err == nil {
			artifact := &model.TranscriptArtifact{
				VideoID:   videoID,
				Text:      text,
				Language:  used,
				SourceURL: model.WatchURL(videoID),
			}
			f.toCache(ctx, artifact)
			return artifact, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		last, lastLang = err, lang
		// A video without captions has none in any language.
		if errors.Is(err, model.ErrTranscriptsDisabled) {
			break
		}
	}
	return nil, &model.TranscriptError{VideoID: videoID, Language: lastLang, Err: last}
}

func (f *TranscriptFetcher) fromCache(ctx context.Context, videoID string) *model.TranscriptArtifact {
	if f.cache == nil {
		return nil
	}
	artifact, err := f.cache.GetTranscript(ctx, videoID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Transcript cache read failed")
		return nil
	}
	return artifact
}

func (f *TranscriptFetcher) toCache(ctx context.Context, artifact *model.TranscriptArtifact) {
	if f.cache == nil {
		return
	}
	if err := f.cache.SetTranscript(ctx, artifact); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Transcript cache write failed")
	}
}
