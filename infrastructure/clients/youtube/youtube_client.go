package youtube

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/naoterumaker/youtube-transcriber/domain/dto"
	"github.com/naoterumaker/youtube-transcriber/domain/model"
	"github.com/naoterumaker/youtube-transcriber/domain/repository"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Client represents YouTube Data API client. Every call runs under the
// credential passed in; one service is kept per credential.
type Client struct {
	mu         sync.Mutex
	services   map[model.Credential]*youtube.Service
	endpoint   string
	httpClient *http.Client
}

// Config represents YouTube API client configuration
type Config struct {
	// Endpoint overrides the API base path; it must end with a slash.
	Endpoint string
	// HTTPClient supplies the transport and timeout; the API key is added on top.
	HTTPClient *http.Client
}

// NewYouTubeClient creates a new YouTube API client
func NewYouTubeClient(config *Config) repository.IYouTube {
	return newClient(config)
}

func newClient(config *Config) *Client {
	if config == nil {
		config = &Config{}
	}
	hc := config.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		services:   make(map[model.Credential]*youtube.Service),
		endpoint:   config.Endpoint,
		httpClient: hc,
	}
}

// apiKeyTransport adds the key query parameter to every request.
type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	q := r.URL.Query()
	q.Set("key", t.key)
	r.URL.RawQuery = q.Encode()
	return t.base.RoundTrip(r)
}

func (c *Client) service(ctx context.Context, cred model.Credential) (*youtube.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if svc, ok := c.services[cred]; ok {
		return svc, nil
	}

	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc := &http.Client{
		Transport: &apiKeyTransport{key: string(cred), base: base},
		Timeout:   c.httpClient.Timeout,
	}
	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service with API key: %w", err)
	}
	c.services[cred] = svc
	return svc, nil
}

// SearchChannelByName returns channel search hits in relevance order
func (c *Client) SearchChannelByName(ctx context.Context, cred model.Credential, name string) ([]dto.YouTubeChannelHit, error) {
	svc, err := c.service(ctx, cred)
	if err != nil {
		return nil, err
	}
	response, err := svc.Search.List([]string{"snippet"}).
		Q(name).
		Type("channel").
		MaxResults(5).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search channel %q: %w", name, err)
	}

	hits := make([]dto.YouTubeChannelHit, 0, len(response.Items))
	for _, item := range response.Items {
		if item.Id == nil || item.Id.ChannelId == "" {
			continue
		}
		hit := dto.YouTubeChannelHit{ID: item.Id.ChannelId}
		if item.Snippet != nil {
			hit.Title = item.Snippet.Title
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// SearchVideosByChannel returns one page of the channel's videos, newest first
func (c *Client) SearchVideosByChannel(ctx context.Context, cred model.Credential, req *dto.YouTubeVideoSearchRequest) (*dto.YouTubeVideoSearchPage, error) {
	svc, err := c.service(ctx, cred)
	if err != nil {
		return nil, err
	}

	maxResults := req.MaxResults
	if maxResults <= 0 || maxResults > dto.MaxResultsPerPage {
		maxResults = dto.MaxResultsPerPage
	}
	call := svc.Search.List([]string{"id"}).
		ChannelId(req.ChannelID).
		Type("video").
		Order("date").
		MaxResults(maxResults)
	if req.PageToken != "" {
		call = call.PageToken(req.PageToken)
	}
	if req.PublishedAfter != nil {
		call = call.PublishedAfter(req.PublishedAfter.UTC().Format(time.RFC3339))
	}
	if req.PublishedBefore != nil {
		call = call.PublishedBefore(req.PublishedBefore.UTC().Format(time.RFC3339))
	}

	response, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search videos: %w", err)
	}

	page := &dto.YouTubeVideoSearchPage{NextPageToken: response.NextPageToken}
	if response.PageInfo != nil {
		page.TotalResults = response.PageInfo.TotalResults
	}
	for _, item := range response.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			page.VideoIDs = append(page.VideoIDs, item.Id.VideoId)
		}
	}
	return page, nil
}

// GetVideoDetails retrieves statistics, duration and snippet for a specific video
func (c *Client) GetVideoDetails(ctx context.Context, cred model.Credential, videoID string) (*dto.YouTubeVideoDetails, error) {
	svc, err := c.service(ctx, cred)
	if err != nil {
		return nil, err
	}
	response, err := svc.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get video details: %w", err)
	}
	if len(response.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrVideoNotFound, videoID)
	}
	return convertVideoDetails(response.Items[0]), nil
}

// convertVideoDetails converts YouTube API video to our model
func convertVideoDetails(video *youtube.Video) *dto.YouTubeVideoDetails {
	details := &dto.YouTubeVideoDetails{ID: video.Id}
	if video.Snippet != nil {
		details.Title = video.Snippet.Title
		details.ChannelTitle = video.Snippet.ChannelTitle
		details.PublishedAt, _ = time.Parse(time.RFC3339, video.Snippet.PublishedAt)
		details.Thumbnail = bestThumbnail(video.Snippet.Thumbnails)
	}
	if video.Statistics != nil {
		details.ViewCount = int64(video.Statistics.ViewCount)
		details.LikeCount = int64(video.Statistics.LikeCount)
		details.CommentCount = int64(video.Statistics.CommentCount)
	}
	if video.ContentDetails != nil {
		details.Duration = video.ContentDetails.Duration
	}
	return details
}

func bestThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*youtube.Thumbnail{t.Maxres, t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

// GetChannelProfile retrieves the title and subscriber count of a channel
func (c *Client) GetChannelProfile(ctx context.Context, cred model.Credential, channelID string) (*dto.YouTubeChannelInfo, error) {
	svc, err := c.service(ctx, cred)
	if err != nil {
		return nil, err
	}
	response, err := svc.Channels.List([]string{"snippet", "statistics"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	if len(response.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrChannelNotFound, channelID)
	}

	channel := response.Items[0]
	info := &dto.YouTubeChannelInfo{ID: channel.Id}
	if channel.Snippet != nil {
		info.Title = channel.Snippet.Title
	}
	if channel.Statistics != nil && !channel.Statistics.HiddenSubscriberCount {
		info.SubscriberCount = int64(channel.Statistics.SubscriberCount)
	}
	return info, nil
}
