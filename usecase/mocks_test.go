package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/naoterumaker/youtube-transcriber/domain/dto"
	"github.com/naoterumaker/youtube-transcriber/domain/model"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/credential"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errQuota = errors.New("quotaExceeded")

func classify(err error) credential.Class {
	if errors.Is(err, errQuota) {
		return credential.ClassQuota
	}
	return credential.ClassFatal
}

func newInvoker(t *testing.T, keys ...model.Credential) *credential.Invoker {
	t.Helper()
	if len(keys) == 0 {
		keys = []model.Credential{"key-a", "key-b"}
	}
	pool, err := credential.NewPool(keys)
	require.NoError(t, err)
	return credential.NewInvoker(pool, classify)
}

// Mock implementations
type MockYouTube struct {
	mock.Mock
}

func (m *MockYouTube) SearchChannelByName(ctx context.Context, cred model.Credential, name string) ([]dto.YouTubeChannelHit, error) {
	args := m.Called(ctx, cred, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.YouTubeChannelHit), args.Error(1)
}

func (m *MockYouTube) SearchVideosByChannel(ctx context.Context, cred model.Credential, req *dto.YouTubeVideoSearchRequest) (*dto.YouTubeVideoSearchPage, error) {
	args := m.Called(ctx, cred, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.YouTubeVideoSearchPage), args.Error(1)
}

func (m *MockYouTube) GetVideoDetails(ctx context.Context, cred model.Credential, videoID string) (*dto.YouTubeVideoDetails, error) {
	args := m.Called(ctx, cred, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.YouTubeVideoDetails), args.Error(1)
}

func (m *MockYouTube) GetChannelProfile(ctx context.Context, cred model.Credential, channelID string) (*dto.YouTubeChannelInfo, error) {
	args := m.Called(ctx, cred, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.YouTubeChannelInfo), args.Error(1)
}

type MockTranscript struct {
	mock.Mock
}

func (m *MockTranscript) GetTranscript(ctx context.Context, videoID, language string) (string, string, error) {
	args := m.Called(ctx, videoID, language)
	return args.String(0), args.String(1), args.Error(2)
}

type MockTranscriptCache struct {
	mock.Mock
}

func (m *MockTranscriptCache) GetTranscript(ctx context.Context, videoID string) (*model.TranscriptArtifact, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TranscriptArtifact), args.Error(1)
}

func (m *MockTranscriptCache) SetTranscript(ctx context.Context, artifact *model.TranscriptArtifact) error {
	args := m.Called(ctx, artifact)
	return args.Error(0)
}

type MockSink struct {
	mock.Mock
	name string
}

func (m *MockSink) Name() string { return m.name }

func (m *MockSink) Write(ctx context.Context, result *model.HarvestResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

// token matches a search request by its page token.
func token(tok string) interface{} {
	return mock.MatchedBy(func(req *dto.YouTubeVideoSearchRequest) bool {
		return req.PageToken == tok
	})
}

func page(next string, ids ...string) *dto.YouTubeVideoSearchPage {
	return &dto.YouTubeVideoSearchPage{VideoIDs: ids, NextPageToken: next}
}
