package repository

import (
	"context"

	"github.com/naoterumaker/youtube-transcriber/domain/dto"
	"github.com/naoterumaker/youtube-transcriber/domain/model"
)

// IYouTube defines the credential-scoped operations of the video-metadata provider
type IYouTube interface {
	SearchChannelByName(ctx context.Context, cred model.Credential, name string) ([]dto.YouTubeChannelHit, error)
	SearchVideosByChannel(ctx context.Context, cred model.Credential, req *dto.YouTubeVideoSearchRequest) (*dto.YouTubeVideoSearchPage, error)
	// GetVideoDetails returns model.ErrVideoNotFound for deleted or private videos.
	GetVideoDetails(ctx context.Context, cred model.Credential, videoID string) (*dto.YouTubeVideoDetails, error)
	GetChannelProfile(ctx context.Context, cred model.Credential, channelID string) (*dto.YouTubeChannelInfo, error)
}

// ITranscript defines the transcript provider
type ITranscript interface {
	// GetTranscript fetches the full text in language, or in the provider default
	// when language is empty. It returns the language actually used.
	GetTranscript(ctx context.Context, videoID, language string) (text string, used string, err error)
}
