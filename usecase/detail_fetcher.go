package usecase

import (
	"context"

	"github.com/naoterumaker/youtube-transcriber/domain/dto"
	"github.com/naoterumaker/youtube-transcriber/domain/model"
	"github.com/naoterumaker/youtube-transcriber/domain/repository"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/credential"
)

// DetailFetcher builds a VideoRecord from videos.list
type DetailFetcher struct {
	youtubeRepo repository.IYouTube
	invoker     *credential.Invoker
}

// NewDetailFetcher creates a new detail fetcher
func NewDetailFetcher(youtubeRepo repository.IYouTube, invoker *credential.Invoker) *DetailFetcher {
	return &DetailFetcher{youtubeRepo: youtubeRepo, invoker: invoker}
}

// Fetch returns the record of videoID with metrics computed against subscribers.
// Deleted or private videos fail with model.ErrVideoNotFound.
func (f *DetailFetcher) Fetch(ctx context.Context, videoID string, subscribers int64) (*model.VideoRecord, error) {
	d, err := credential.Invoke(ctx, f.invoker, f.invoker.Pool().Size(), func(ctx context.Context, cred model.Credential) (*dto.YouTubeVideoDetails, error) {
		return f.youtubeRepo.GetVideoDetails(ctx, cred, videoID)
	})
	if err != nil {
		return nil, err
	}
	return &model.VideoRecord{
		ID:              videoID,
		Title:           d.Title,
		PublishedAt:     d.PublishedAt,
		ChannelTitle:    d.ChannelTitle,
		Thumbnail:       d.Thumbnail,
		ViewCount:       d.ViewCount,
		LikeCount:       d.LikeCount,
		CommentCount:    d.CommentCount,
		DurationSeconds: model.ParseDuration(d.Duration),
		SubscriberCount: subscribers,
		Metrics:         model.ComputeMetrics(d.ViewCount, d.LikeCount, d.CommentCount, subscribers),
	}, nil
}
