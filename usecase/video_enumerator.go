package usecase

import (
	"context"
	"time"

	"github.com/naoterumaker/youtube-transcriber/domain/dto"
	"github.com/naoterumaker/youtube-transcriber/domain/model"
	"github.com/naoterumaker/youtube-transcriber/domain/repository"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/credential"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/logger"
)

// VideoEnumerator pages through a channel's videos, newest first
type VideoEnumerator struct {
	youtubeRepo repository.IYouTube
	invoker     *credential.Invoker
	pageDelay   time.Duration
}

// NewVideoEnumerator creates a new enumerator that waits pageDelay between pages
func NewVideoEnumerator(youtubeRepo repository.IYouTube, invoker *credential.Invoker, pageDelay time.Duration) *VideoEnumerator {
	return &VideoEnumerator{youtubeRepo: youtubeRepo, invoker: invoker, pageDelay: pageDelay}
}

// Enumerate collects video ids published inside window, stopping at limit when limit > 0.
//
// On error the ids of every completed page are returned along with it: a
// canceled context yields ctx.Err(), exhausted credentials a *model.ExhaustedError.
func (e *VideoEnumerator) Enumerate(ctx context.Context, channelID string, window model.Window, limit int) ([]string, error) {
	var (
		ids   []string
		seen  = make(map[string]bool)
		token string
		page  int
	)
	for {
		req := &dto.YouTubeVideoSearchRequest{
			ChannelID:       channelID,
			MaxResults:      dto.MaxResultsPerPage,
			PageToken:       token,
			PublishedAfter:  window.Start,
			PublishedBefore: window.End,
		}
		res, err := credential.Invoke(ctx, e.invoker, e.invoker.Pool().Size(), func(ctx context.Context, cred model.Credential) (*dto.YouTubeVideoSearchPage, error) {
			return e.youtubeRepo.SearchVideosByChannel(ctx, cred, req)
		})
		if err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"channelId": channelID,
				"page":      page + 1,
				"collected": len(ids),
				"error":     err.Error(),
			}).Warn("Video enumeration stopped early")
			return ids, err
		}
		page++

		for _, id := range res.VideoIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
		logger.GetLogger().WithFields(map[string]interface{}{
			"channelId": channelID,
			"page":      page,
			"collected": len(ids),
		}).Debug("Fetched video page")

		if limit > 0 && len(ids) >= limit {
			return ids[:limit], nil
		}
		if res.NextPageToken == "" || res.NextPageToken == token {
			return ids, nil
		}
		token = res.NextPageToken

		if err := sleep(ctx, e.pageDelay); err != nil {
			return ids, err
		}
	}
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
