package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/naoterumaker/youtube-transcriber/domain/dto"
	"github.com/naoterumaker/youtube-transcriber/domain/model"
	"github.com/naoterumaker/youtube-transcriber/domain/repository"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/credential"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/logger"
)

var channelIDRE = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)

// ChannelResolver maps a channel name, handle or id to its profile
type ChannelResolver struct {
	youtubeRepo repository.IYouTube
	invoker     *credential.Invoker
}

// NewChannelResolver creates a new channel resolver
func NewChannelResolver(youtubeRepo repository.IYouTube, invoker *credential.Invoker) *ChannelResolver {
	return &ChannelResolver{youtubeRepo: youtubeRepo, invoker: invoker}
}

// Resolve takes the first search hit for name and fetches its profile.
// A literal channel id skips the search.
func (r *ChannelResolver) Resolve(ctx context.Context, name string) (*model.ChannelProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty channel name", model.ErrChannelNotFound)
	}
	attempts := r.invoker.Pool().Size()

	channelID := name
	if !channelIDRE.MatchString(name) {
		hits, err := credential.Invoke(ctx, r.invoker, attempts, func(ctx context.Context, cred model.Credential) ([]dto.YouTubeChannelHit, error) {
			return r.youtubeRepo.SearchChannelByName(ctx, cred, name)
		})
		if err != nil {
			return nil, err
		}
		if len(hits) == 0 {
			return nil, fmt.Errorf("%w: %q", model.ErrChannelNotFound, name)
		}
		channelID = hits[0].ID
		logger.GetLogger().WithFields(map[string]interface{}{
			"query":     name,
			"channelId": channelID,
			"title":     hits[0].Title,
			"hits":      len(hits),
		}).Info("Resolved channel")
	}

	info, err := credential.Invoke(ctx, r.invoker, attempts, func(ctx context.Context, cred model.Credential) (*dto.YouTubeChannelInfo, error) {
		return r.youtubeRepo.GetChannelProfile(ctx, cred, channelID)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", model.ErrChannelInfoUnavailable, err)
	}
	return &model.ChannelProfile{ID: info.ID, Title: info.Title, SubscriberCount: info.SubscriberCount}, nil
}
