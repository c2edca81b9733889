package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/naoterumaker/youtube-transcriber/domain/dto"
	"github.com/naoterumaker/youtube-transcriber/domain/model"
	"github.com/naoterumaker/youtube-transcriber/domain/repository"
	"github.com/naoterumaker/youtube-transcriber/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

type harvestFixture struct {
	yt    *MockYouTube
	tr    *MockTranscript
	sink  *MockSink
	clock time.Time
}

func newHarvestFixture(t *testing.T) *harvestFixture {
	f := &harvestFixture{
		yt:    new(MockYouTube),
		tr:    new(MockTranscript),
		sink:  &MockSink{name: "csv"},
		clock: mustTime(t, "2026-05-01T09:30:00Z"),
	}
	f.yt.On("SearchChannelByName", mock.Anything, mock.Anything, "Go").
		Return([]dto.YouTubeChannelHit{{ID: "UC1", Title: "Go"}}, nil).Maybe()
	f.yt.On("GetChannelProfile", mock.Anything, mock.Anything, "UC1").
		Return(&dto.YouTubeChannelInfo{ID: "UC1", Title: "Go", SubscriberCount: 1000}, nil).Maybe()
	return f
}

func (f *harvestFixture) details(ids ...string) {
	for _, id := range ids {
		f.yt.On("GetVideoDetails", mock.Anything, mock.Anything, id).
			Return(&dto.YouTubeVideoDetails{ID: id, Title: "title " + id, ViewCount: 100, LikeCount: 10, CommentCount: 5, Duration: "PT1M"}, nil)
	}
}

func (f *harvestFixture) useCase(t *testing.T, config usecase.HarvestConfig, sinks ...*MockSink) *usecase.HarvestUseCase {
	fetcher := usecase.NewTranscriptFetcher(f.tr, []string{"ja"})
	uc := usecase.NewHarvestUseCase(f.yt, fetcher, newInvoker(t), config).
		WithClock(func() time.Time { return f.clock })
	if len(sinks) == 0 {
		sinks = []*MockSink{f.sink}
	}
	wired := make([]repository.IHarvestSink, 0, len(sinks))
	for _, s := range sinks {
		wired = append(wired, s)
	}
	return uc.WithSinks(wired...)
}

func TestHarvestEndToEnd(t *testing.T) {
	f := newHarvestFixture(t)
	f.yt.On("SearchVideosByChannel", mock.Anything, mock.Anything, token("")).Return(page("", "v1", "v2", "v3"), nil).Once()
	f.details("v1", "v2", "v3")
	f.tr.On("GetTranscript", mock.Anything, "v1", "ja").Return("こんにちは", "ja", nil).Once()
	f.tr.On("GetTranscript", mock.Anything, "v2", "ja").Return("", "", model.ErrLanguageNotAvailable).Once()
	f.tr.On("GetTranscript", mock.Anything, "v2", "").Return("hello", "en", nil).Once()
	f.tr.On("GetTranscript", mock.Anything, "v3", "ja").Return("", "", model.ErrTranscriptsDisabled).Once()
	f.sink.On("Write", mock.Anything, mock.AnythingOfType("*model.HarvestResult")).Return(nil).Once()

	result, err := f.useCase(t, usecase.HarvestConfig{}).Harvest(context.Background(), usecase.HarvestRequest{Channel: "Go"})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, model.StateDone, result.State)
	assert.Equal(t, model.PeriodAllTime, result.Period)
	assert.True(t, result.Window.IsZero())
	assert.Equal(t, model.ChannelProfile{ID: "UC1", Title: "Go", SubscriberCount: 1000}, result.Channel)
	assert.Equal(t, 3, result.Found)
	assert.Equal(t, 3, result.Processed)
	assert.Zero(t, result.Recommended)
	assert.False(t, result.Partial)
	assert.Equal(t, f.clock, result.StartedAt)
	assert.Equal(t, f.clock, result.FinishedAt)

	require.Len(t, result.Records, 3)
	for i, id := range []string{"v1", "v2", "v3"} {
		assert.Equal(t, id, result.Records[i].ID)
		assert.EqualValues(t, 60, result.Records[i].DurationSeconds)
		assert.Equal(t, 10.0, result.Records[i].Metrics.SpreadRate)
	}

	require.Len(t, result.Transcripts, 2)
	assert.Equal(t, "v1", result.Transcripts[0].VideoID)
	assert.Equal(t, "title v1", result.Transcripts[0].Title)
	assert.Equal(t, "en", result.Transcripts[1].Language)
	assert.Equal(t, 2, result.TranscriptSuccess)
	assert.Equal(t, 1, result.TranscriptFailed)
	assert.Zero(t, result.DetailFailed)

	require.Len(t, result.Skips, 1)
	assert.Equal(t, "v3", result.Skips[0].VideoID)
	assert.Equal(t, model.StageTranscript, result.Skips[0].Stage)
	assert.Equal(t, model.SkipTranscriptUnavailable, result.Skips[0].Kind)
	assert.ErrorIs(t, result.Skips[0].Err, model.ErrTranscriptsDisabled)

	f.yt.AssertExpectations(t)
	f.tr.AssertExpectations(t)
	f.sink.AssertExpectations(t)
}

func TestHarvestDeletedVideoIsSkipped(t *testing.T) {
	f := newHarvestFixture(t)
	f.yt.On("SearchVideosByChannel", mock.Anything, mock.Anything, token("")).Return(page("", "v1", "v2", "v3"), nil)
	f.details("v1", "v3")
	f.yt.On("GetVideoDetails", mock.Anything, mock.Anything, "v2").Return(nil, fmt.Errorf("%w: v2", model.ErrVideoNotFound))
	f.tr.On("GetTranscript", mock.Anything, mock.Anything, "ja").Return("text", "ja", nil)
	f.sink.On("Write", mock.Anything, mock.Anything).Return(nil)

	result, err := f.useCase(t, usecase.HarvestConfig{}).Harvest(context.Background(), usecase.HarvestRequest{Channel: "Go"})
	require.NoError(t, err)

	assert.Equal(t, []string{"v1", "v3"}, recordIDs(result))
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 1, result.DetailFailed)
	assert.Equal(t, 2, result.TranscriptSuccess)
	require.Len(t, result.Skips, 1)
	assert.Equal(t, model.SkipReason{
		VideoID: "v2",
		Stage:   model.StageDetail,
		Kind:    model.SkipNotFound,
		Err:     result.Skips[0].Err,
		Message: "video not found: v2",
	}, result.Skips[0])
	f.tr.AssertNotCalled(t, "GetTranscript", mock.Anything, "v2", mock.Anything)
}

func TestHarvestKeepsOrderUnderConcurrency(t *testing.T) {
	f := newHarvestFixture(t)
	ids := []string{"v1", "v2", "v3", "v4", "v5"}
	f.yt.On("SearchVideosByChannel", mock.Anything, mock.Anything, token("")).Return(page("", ids...), nil)
	for i, id := range ids {
		f.yt.On("GetVideoDetails", mock.Anything, mock.Anything, id).
			After(time.Duration(len(ids)-i)*10*time.Millisecond).
			Return(&dto.YouTubeVideoDetails{ID: id, Title: id}, nil)
	}
	f.sink.On("Write", mock.Anything, mock.Anything).Return(nil)

	result, err := f.useCase(t, usecase.HarvestConfig{Concurrency: 3}).
		Harvest(context.Background(), usecase.HarvestRequest{Channel: "Go", SkipTranscripts: true})
	require.NoError(t, err)
	assert.Equal(t, ids, recordIDs(result))
	assert.Equal(t, 5, result.Processed)
	assert.Zero(t, result.TranscriptFailed)
	assert.Empty(t, result.Transcripts)
	f.tr.AssertNotCalled(t, "GetTranscript", mock.Anything, mock.Anything, mock.Anything)
}

func TestHarvestRecommendedCap(t *testing.T) {
	for _, accept := range []bool{true, false} {
		t.Run(fmt.Sprintf("accept=%v", accept), func(t *testing.T) {
			f := newHarvestFixture(t)
			threePages(f.yt)
			f.yt.On("GetVideoDetails", mock.Anything, mock.Anything, mock.Anything).Return(&dto.YouTubeVideoDetails{Title: "x"}, nil)
			f.sink.On("Write", mock.Anything, mock.Anything).Return(nil)

			var asked [][2]int
			result, err := f.useCase(t, usecase.HarvestConfig{}).Harvest(context.Background(), usecase.HarvestRequest{
				Channel:         "Go",
				Period:          model.PeriodLast3Months,
				SkipTranscripts: true,
				Confirm: func(found, recommended int) bool {
					asked = append(asked, [2]int{found, recommended})
					return accept
				},
			})
			require.NoError(t, err)

			assert.Equal(t, [][2]int{{120, 100}}, asked)
			assert.Equal(t, 120, result.Found)
			assert.Equal(t, 100, result.Recommended)
			want := 120
			if accept {
				want = 100
			}
			assert.Equal(t, want, result.Processed)
			assert.Len(t, result.Records, want)
			require.NotNil(t, result.Window.Start)
			assert.Equal(t, f.clock.AddDate(0, 0, -90), *result.Window.Start)
		})
	}
}

func TestHarvestExplicitCapSkipsConfirm(t *testing.T) {
	f := newHarvestFixture(t)
	threePages(f.yt)
	f.yt.On("GetVideoDetails", mock.Anything, mock.Anything, mock.Anything).Return(&dto.YouTubeVideoDetails{}, nil)
	f.sink.On("Write", mock.Anything, mock.Anything).Return(nil)

	result, err := f.useCase(t, usecase.HarvestConfig{}).Harvest(context.Background(), usecase.HarvestRequest{
		Channel:         "Go",
		MaxVideos:       10,
		SkipTranscripts: true,
		Confirm: func(int, int) bool {
			t.Fatal("confirm must not be asked with an explicit cap")
			return false
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 120, result.Found, "found reports the whole channel")
	assert.Equal(t, 10, result.Processed)
	assert.Len(t, result.Records, 10)
	assert.Zero(t, result.Recommended)
	f.yt.AssertNumberOfCalls(t, "SearchVideosByChannel", 3)
}

func TestHarvestChannelNotFound(t *testing.T) {
	f := newHarvestFixture(t)
	f.yt.On("SearchChannelByName", mock.Anything, mock.Anything, "nobody").Return([]dto.YouTubeChannelHit{}, nil)

	result, err := f.useCase(t, usecase.HarvestConfig{}).Harvest(context.Background(), usecase.HarvestRequest{Channel: "nobody"})
	assert.ErrorIs(t, err, model.ErrChannelNotFound)
	require.NotNil(t, result)
	assert.Equal(t, model.StateFailed, result.State)
	f.sink.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
}

func TestHarvestNoVideos(t *testing.T) {
	f := newHarvestFixture(t)
	f.yt.On("SearchVideosByChannel", mock.Anything, mock.Anything, token("")).Return(page(""), nil)

	result, err := f.useCase(t, usecase.HarvestConfig{}).Harvest(context.Background(), usecase.HarvestRequest{Channel: "Go"})
	require.NoError(t, err)
	assert.Equal(t, model.StateFailed, result.State)
	assert.Zero(t, result.Found)
	assert.Empty(t, result.Records)
	f.sink.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
}

func TestHarvestEnumerationExhausted(t *testing.T) {
	t.Run("with completed pages", func(t *testing.T) {
		f := newHarvestFixture(t)
		f.yt.On("SearchVideosByChannel", mock.Anything, mock.Anything, token("")).Return(page("p2", "v1", "v2"), nil).Once()
		f.yt.On("SearchVideosByChannel", mock.Anything, mock.Anything, token("p2")).Return(nil, errQuota)
		f.details("v1", "v2")
		f.sink.On("Write", mock.Anything, mock.Anything).Return(nil).Once()

		result, err := f.useCase(t, usecase.HarvestConfig{}).Harvest(context.Background(), usecase.HarvestRequest{Channel: "Go", SkipTranscripts: true})
		require.NoError(t, err)
		assert.True(t, result.Partial)
		assert.Equal(t, model.StateDone, result.State)
		assert.Equal(t, []string{"v1", "v2"}, recordIDs(result))
		f.sink.AssertExpectations(t)
	})

	t.Run("without any page", func(t *testing.T) {
		f := newHarvestFixture(t)
		f.yt.On("SearchVideosByChannel", mock.Anything, mock.Anything, mock.Anything).Return(nil, errQuota)

		result, err := f.useCase(t, usecase.HarvestConfig{}).Harvest(context.Background(), usecase.HarvestRequest{Channel: "Go"})
		assert.ErrorIs(t, err, model.ErrAllCredentialsExhausted)
		assert.Equal(t, model.StateFailed, result.State)
		f.sink.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
	})
}

func TestHarvestReportFailure(t *testing.T) {
	f := newHarvestFixture(t)
	f.yt.On("SearchVideosByChannel", mock.Anything, mock.Anything, token("")).Return(page("", "v1"), nil)
	f.details("v1")
	broken := &MockSink{name: "postgres"}
	broken.On("Write", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()
	f.sink.On("Write", mock.Anything, mock.Anything).Return(nil).Once()

	result, err := f.useCase(t, usecase.HarvestConfig{}, broken, f.sink).
		Harvest(context.Background(), usecase.HarvestRequest{Channel: "Go", SkipTranscripts: true})
	assert.ErrorIs(t, err, model.ErrReportFailed)
	assert.ErrorContains(t, err, "postgres: connection refused")
	assert.Equal(t, model.StateDone, result.State)
	assert.Len(t, result.Records, 1)
	broken.AssertExpectations(t)
	f.sink.AssertExpectations(t)
}

func TestHarvestCanceledDuringProcessing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newHarvestFixture(t)
	f.yt.On("SearchVideosByChannel", mock.Anything, mock.Anything, token("")).Return(page("", "v1", "v2", "v3"), nil)
	f.details("v1")
	f.yt.On("GetVideoDetails", mock.Anything, mock.Anything, "v2").
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, errors.New("request canceled"))
	f.sink.On("Write", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), mock.Anything).
		Return(nil).Once()

	result, err := f.useCase(t, usecase.HarvestConfig{Concurrency: 1}).
		Harvest(ctx, usecase.HarvestRequest{Channel: "Go", SkipTranscripts: true})
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, result.Partial)
	assert.Equal(t, model.StateDone, result.State)
	assert.Equal(t, []string{"v1"}, recordIDs(result))
	assert.Equal(t, 1, result.Processed)
	require.NotEmpty(t, result.Skips)
	for _, s := range result.Skips {
		assert.Equal(t, model.SkipCanceled, s.Kind)
	}
	f.yt.AssertNotCalled(t, "GetVideoDetails", mock.Anything, mock.Anything, "v3")
	f.sink.AssertExpectations(t)
}

func recordIDs(result *model.HarvestResult) []string {
	var ids []string
	for _, r := range result.Records {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestHarvestBroadcastsProgress(t *testing.T) {
	f := newHarvestFixture(t)
	f.yt.On("SearchVideosByChannel", mock.Anything, mock.Anything, token("")).Return(page("", "v1", "v2"), nil)
	f.details("v1", "v2")
	f.sink.On("Write", mock.Anything, mock.Anything).Return(nil)

	var events []model.HarvestEvent
	result, err := f.useCase(t, usecase.HarvestConfig{}).
		WithBroadcaster(func(evt model.HarvestEvent) { events = append(events, evt) }).
		Harvest(context.Background(), usecase.HarvestRequest{Channel: "Go", SkipTranscripts: true})
	require.NoError(t, err)

	var states []model.HarvestState
	for _, evt := range events {
		assert.Equal(t, result.RunID, evt.RunID)
		states = append(states, evt.State)
	}
	assert.Equal(t, []model.HarvestState{
		model.StateResolvingChannel,
		model.StateSelectingPeriod,
		model.StateEnumerating,
		model.StateApplyingLimit,
		model.StateProcessing,
		model.StateProcessing,
		model.StateProcessing,
		model.StateFinalizing,
		model.StateDone,
	}, states)
	assert.Equal(t, model.HarvestEvent{RunID: result.RunID, State: model.StateProcessing, VideoID: "v2", Done: 2, Total: 2}, events[6])
	assert.Equal(t, "Go", events[8].Channel)
}

func TestHarvestUsesRequestedRunID(t *testing.T) {
	f := newHarvestFixture(t)
	f.yt.On("SearchVideosByChannel", mock.Anything, mock.Anything, token("")).Return(page("", "v1"), nil)
	f.details("v1")
	f.sink.On("Write", mock.Anything, mock.Anything).Return(nil)

	var runIDs []string
	result, err := f.useCase(t, usecase.HarvestConfig{}).
		WithBroadcaster(func(evt model.HarvestEvent) { runIDs = append(runIDs, evt.RunID) }).
		Harvest(context.Background(), usecase.HarvestRequest{Channel: "Go", RunID: "run-from-client", SkipTranscripts: true})
	require.NoError(t, err)

	assert.Equal(t, "run-from-client", result.RunID)
	require.NotEmpty(t, runIDs)
	for _, id := range runIDs {
		assert.Equal(t, "run-from-client", id)
	}
}

func TestHarvestWithoutTranscriptFetcher(t *testing.T) {
	f := newHarvestFixture(t)
	f.yt.On("SearchVideosByChannel", mock.Anything, mock.Anything, token("")).Return(page("", "v1", "v2"), nil)
	f.details("v1", "v2")
	f.sink.On("Write", mock.Anything, mock.Anything).Return(nil)

	uc := usecase.NewHarvestUseCase(f.yt, nil, newInvoker(t), usecase.HarvestConfig{}).WithSinks(f.sink)
	result, err := uc.Harvest(context.Background(), usecase.HarvestRequest{Channel: "Go"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Len(t, result.Records, 2)
	assert.Zero(t, result.TranscriptSuccess)
	assert.Zero(t, result.TranscriptFailed, "no fetcher means no transcript attempts")
	assert.Empty(t, result.Skips)
}
