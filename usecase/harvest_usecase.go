package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/naoterumaker/youtube-transcriber/domain/model"
	"github.com/naoterumaker/youtube-transcriber/domain/repository"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/credential"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ConfirmFunc decides whether the recommended cap is applied to found videos.
type ConfirmFunc func(found, recommended int) bool

// HarvestRequest is a pre-resolved harvest run request
type HarvestRequest struct {
	Channel         string
	Period          model.Period
	MaxVideos       int // explicit cap; 0 means none
	SkipTranscripts bool
	RunID           string // generated when empty

	// Confirm is asked only when a recommended cap applies; nil accepts it.
	Confirm ConfirmFunc
}

// HarvestConfig holds politeness and parallelism settings
type HarvestConfig struct {
	PageDelay   time.Duration
	VideoDelay  time.Duration
	Concurrency int
}

// IHarvestUseCase defines the channel harvest operation
type IHarvestUseCase interface {
	// Harvest always returns a result, even on error, describing how far the run got.
	Harvest(ctx context.Context, req HarvestRequest) (*model.HarvestResult, error)
}

// HarvestUseCase drives resolve, enumerate, limit, process and finalize
type HarvestUseCase struct {
	resolver    *ChannelResolver
	enumerator  *VideoEnumerator
	details     *DetailFetcher
	transcripts *TranscriptFetcher
	sinks       []repository.IHarvestSink
	broadcast   func(model.HarvestEvent)
	config      HarvestConfig
	now         func() time.Time
	newRunID    func() string
}

// NewHarvestUseCase creates a new harvest use case
func NewHarvestUseCase(youtubeRepo repository.IYouTube, transcripts *TranscriptFetcher, invoker *credential.Invoker, config HarvestConfig) *HarvestUseCase {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &HarvestUseCase{
		resolver:    NewChannelResolver(youtubeRepo, invoker),
		enumerator:  NewVideoEnumerator(youtubeRepo, invoker, config.PageDelay),
		details:     NewDetailFetcher(youtubeRepo, invoker),
		transcripts: transcripts,
		config:      config,
		now:         time.Now,
		newRunID:    uuid.NewString,
	}
}

// WithSinks sets the reporting collaborators run in Finalizing (fluent)
func (u *HarvestUseCase) WithSinks(sinks ...repository.IHarvestSink) *HarvestUseCase {
	u.sinks = sinks
	return u
}

// WithBroadcaster publishes progress events to fn (fluent). fn must not block.
func (u *HarvestUseCase) WithBroadcaster(fn func(model.HarvestEvent)) *HarvestUseCase {
	u.broadcast = fn
	return u
}

// WithClock replaces time.Now (fluent)
func (u *HarvestUseCase) WithClock(now func() time.Time) *HarvestUseCase {
	u.now = now
	return u
}

// Harvest runs the pipeline for one channel.
//
// Per-video failures become Skips and never abort the run. Cancellation
// stops at the next remote call or delay; the work done so far is still
// handed to the sinks and returned as a partial result with ctx.Err().
func (u *HarvestUseCase) Harvest(ctx context.Context, req HarvestRequest) (*model.HarvestResult, error) {
	runID := req.RunID
	if runID == "" {
		runID = u.newRunID()
	}
	result := &model.HarvestResult{
		RunID:     runID,
		Period:    req.Period,
		StartedAt: u.now(),
	}
	log := logger.GetLogger().WithField("runId", result.RunID)
	u.enter(result, model.StateResolvingChannel)

	profile, err := u.resolver.Resolve(ctx, req.Channel)
	if err != nil {
		return u.fail(result, err)
	}
	result.Channel = *profile

	u.enter(result, model.StateSelectingPeriod)
	if result.Period == "" {
		result.Period = model.PeriodAllTime
	}
	result.Window = result.Period.Window(result.StartedAt)

	u.enter(result, model.StateEnumerating)
	// Enumerate everything so Found is the true total; the cap is applied below.
	ids, err := u.enumerator.Enumerate(ctx, profile.ID, result.Window, 0)
	result.Found = len(ids)
	if err != nil {
		if ctx.Err() != nil {
			result.Partial = true
			return u.finalize(ctx, result, ctx.Err())
		}
		if len(ids) == 0 {
			return u.fail(result, err)
		}
		log.WithField("error", err.Error()).Warn("Continuing with the videos enumerated before the failure")
		result.Partial = true
	}
	if len(ids) == 0 {
		log.WithField("channel", profile.Title).Info("No videos found")
		return u.fail(result, nil)
	}

	u.enter(result, model.StateApplyingLimit)
	accept := true
	if rec := RecommendFor(len(ids), req.MaxVideos, result.Period); rec > 0 && req.Confirm != nil {
		accept = req.Confirm(len(ids), rec)
	}
	decision := DecideLimit(len(ids), req.MaxVideos, result.Period, accept)
	result.Recommended = decision.Recommended
	ids = ids[:decision.Limit]
	log.WithFields(map[string]interface{}{
		"found":       decision.Found,
		"recommended": decision.Recommended,
		"applied":     decision.Applied,
		"processing":  len(ids),
	}).Info("Applied video limit")

	u.enter(result, model.StateProcessing)
	u.process(ctx, result, ids, req.SkipTranscripts)
	if ctx.Err() != nil {
		result.Partial = true
		return u.finalize(ctx, result, ctx.Err())
	}
	return u.finalize(ctx, result, nil)
}

// videoSlot is the outcome of one video, written by exactly one worker.
type videoSlot struct {
	done       bool
	record     *model.VideoRecord
	transcript *model.TranscriptArtifact
	skips      []model.SkipReason
}

func (u *HarvestUseCase) process(ctx context.Context, result *model.HarvestResult, ids []string, skipTranscripts bool) {
	slots := make([]videoSlot, len(ids))
	subscribers := result.Channel.SubscriberCount
	var finished atomic.Int32

	g := new(errgroup.Group)
	g.SetLimit(u.config.Concurrency)
	for i, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			slots[i] = u.processVideo(ctx, id, subscribers, skipTranscripts)
			u.emit(model.HarvestEvent{
				RunID:   result.RunID,
				State:   model.StateProcessing,
				VideoID: id,
				Done:    int(finished.Add(1)),
				Total:   len(ids),
			})
			logger.GetLogger().WithFields(map[string]interface{}{
				"runId":   result.RunID,
				"videoId": id,
				"index":   i + 1,
				"total":   len(ids),
			}).Debug("Processed video")
			if i < len(ids)-1 {
				_ = sleep(ctx, u.config.VideoDelay)
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, s := range slots {
		result.Skips = append(result.Skips, s.skips...)
		if s.record != nil {
			result.Records = append(result.Records, *s.record)
		}
		if s.transcript != nil {
			result.Transcripts = append(result.Transcripts, *s.transcript)
		}
		if !s.done {
			continue
		}
		result.Processed++
		switch {
		case s.record == nil:
			result.DetailFailed++
		case skipTranscripts, u.transcripts == nil:
		case s.transcript != nil:
			result.TranscriptSuccess++
		default:
			result.TranscriptFailed++
		}
	}
}

func (u *HarvestUseCase) processVideo(ctx context.Context, id string, subscribers int64, skipTranscripts bool) videoSlot {
	var s videoSlot
	record, err := u.details.Fetch(ctx, id, subscribers)
	if err != nil {
		s.skips = append(s.skips, skipFor(ctx, id, model.StageDetail, err))
		s.done = ctx.Err() == nil
		return s
	}
	s.record = record

	if skipTranscripts || u.transcripts == nil {
		s.done = true
		return s
	}
	artifact, err := u.transcripts.Fetch(ctx, id)
	if err != nil {
		s.skips = append(s.skips, skipFor(ctx, id, model.StageTranscript, err))
		s.done = ctx.Err() == nil
		return s
	}
	artifact.Title = record.Title
	s.transcript = artifact
	s.done = true
	return s
}

func skipFor(ctx context.Context, id string, stage model.SkipStage, err error) model.SkipReason {
	kind := model.SkipFetchError
	switch {
	case ctx.Err() != nil:
		kind = model.SkipCanceled
	case errors.Is(err, model.ErrVideoNotFound):
		kind = model.SkipNotFound
	case stage == model.StageTranscript:
		kind = model.SkipTranscriptUnavailable
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"videoId": id,
		"stage":   stage,
		"kind":    kind,
		"error":   err.Error(),
	}).Warn("Skipped video step")
	return model.SkipReason{VideoID: id, Stage: stage, Kind: kind, Err: err, Message: err.Error()}
}

// enter moves result to state and announces it.
func (u *HarvestUseCase) enter(result *model.HarvestResult, state model.HarvestState) {
	result.State = state
	u.emit(model.HarvestEvent{
		RunID:   result.RunID,
		Channel: result.Channel.Title,
		State:   state,
		Total:   result.Found,
	})
}

func (u *HarvestUseCase) emit(evt model.HarvestEvent) {
	if u.broadcast != nil {
		u.broadcast(evt)
	}
}

func (u *HarvestUseCase) fail(result *model.HarvestResult, err error) (*model.HarvestResult, error) {
	result.FinishedAt = u.now()
	u.enter(result, model.StateFailed)
	return result, err
}

// finalize hands result to every sink. Sinks run even after cancellation so
// partial work is kept.
func (u *HarvestUseCase) finalize(ctx context.Context, result *model.HarvestResult, runErr error) (*model.HarvestResult, error) {
	result.FinishedAt = u.now()
	u.enter(result, model.StateFinalizing)
	sinkCtx := context.WithoutCancel(ctx)

	var errs []error
	for _, sink := range u.sinks {
		if err := sink.Write(sinkCtx, result); err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"sink":  sink.Name(),
				"error": err.Error(),
			}).Error("Report failed")
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	u.enter(result, model.StateDone)

	logger.GetLogger().WithFields(map[string]interface{}{
		"runId":             result.RunID,
		"channel":           result.Channel.Title,
		"found":             result.Found,
		"processed":         result.Processed,
		"records":           len(result.Records),
		"detailFailed":      result.DetailFailed,
		"transcriptSuccess": result.TranscriptSuccess,
		"transcriptFailed":  result.TranscriptFailed,
		"partial":           result.Partial,
	}).Info("Harvest finished")

	if len(errs) > 0 {
		reportErr := fmt.Errorf("%w: %w", model.ErrReportFailed, errors.Join(errs...))
		return result, errors.Join(runErr, reportErr)
	}
	return result, runErr
}
