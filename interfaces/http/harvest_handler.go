package http

import (
	"errors"
	"net/http"

	"github.com/naoterumaker/youtube-transcriber/domain/dto"
	"github.com/naoterumaker/youtube-transcriber/domain/model"
	"github.com/naoterumaker/youtube-transcriber/domain/repository"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/logger"
	"github.com/naoterumaker/youtube-transcriber/usecase"

	"github.com/gin-gonic/gin"
)

// IHarvestHandler defines the harvest HTTP handlers
type IHarvestHandler interface {
	Harvest(ctx *gin.Context)
	GetTranscript(ctx *gin.Context)
	ListRunVideos(ctx *gin.Context)
}

// HarvestHandler implements the harvest HTTP handlers
type HarvestHandler struct {
	harvestUseCase    usecase.IHarvestUseCase
	transcriptUseCase usecase.ITranscriptUseCase
	store             repository.IHarvestStore // optional
}

// NewHarvestHandler creates a new harvest handler instance. A nil store
// disables run lookups.
func NewHarvestHandler(harvestUseCase usecase.IHarvestUseCase, transcriptUseCase usecase.ITranscriptUseCase, store repository.IHarvestStore) IHarvestHandler {
	return &HarvestHandler{
		harvestUseCase:    harvestUseCase,
		transcriptUseCase: transcriptUseCase,
		store:             store,
	}
}

// Harvest handles POST /api/harvest
func (h *HarvestHandler) Harvest(ctx *gin.Context) {
	var req dto.HarvestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}
	period, err := model.ParsePeriod(req.Period)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid period",
			"message": err.Error(),
		})
		return
	}
	if req.MaxVideos < 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "max_videos must not be negative"})
		return
	}

	harvestReq := usecase.HarvestRequest{
		Channel:         req.Channel,
		Period:          period,
		MaxVideos:       req.MaxVideos,
		SkipTranscripts: req.SkipTranscripts,
		RunID:           req.RunID,
	}
	if req.AcceptRecommended != nil {
		accept := *req.AcceptRecommended
		harvestReq.Confirm = func(int, int) bool { return accept }
	}

	result, err := h.harvestUseCase.Harvest(ctx.Request.Context(), harvestReq)
	summary := toHarvestSummary(result)
	switch {
	case err == nil && result.State == model.StateFailed:
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":   "No videos found",
			"message": model.ErrNoVideosFound.Error(),
			"data":    summary,
		})
	case err == nil:
		ctx.JSON(http.StatusOK, gin.H{"success": true, "data": summary})
	case result != nil && result.State == model.StateDone:
		// Partial or report failure: the harvested data is still valid.
		ctx.JSON(http.StatusOK, gin.H{"success": true, "warning": err.Error(), "data": summary})
	default:
		logger.GetLogger().WithFields(map[string]interface{}{
			"channel": req.Channel,
			"error":   err.Error(),
		}).Error("Harvest failed")
		ctx.JSON(statusFor(err), gin.H{
			"error":   "Harvest failed",
			"message": err.Error(),
			"data":    summary,
		})
	}
}

// GetTranscript handles GET /api/transcripts/:videoId
func (h *HarvestHandler) GetTranscript(ctx *gin.Context) {
	artifact, err := h.transcriptUseCase.Extract(ctx.Request.Context(), ctx.Param("videoId"))
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{
			"error":   "Failed to get transcript",
			"message": err.Error(),
		})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": dto.TranscriptResponse{
			VideoID:   artifact.VideoID,
			Language:  artifact.Language,
			SourceURL: artifact.SourceURL,
			Text:      artifact.Text,
		},
	})
}

// ListRunVideos handles GET /api/harvests/:runId/videos
func (h *HarvestHandler) ListRunVideos(ctx *gin.Context) {
	if h.store == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Harvest store not configured",
			"message": "configure database.psql to keep harvest runs",
		})
		return
	}
	records, err := h.store.ListRunVideos(ctx.Request.Context(), ctx.Param("runId"))
	if errors.Is(err, model.ErrRunNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Run not found", "message": err.Error()})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list videos",
			"message": err.Error(),
		})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": records})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidIdentifier):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrChannelNotFound),
		errors.Is(err, model.ErrVideoNotFound),
		errors.Is(err, model.ErrTranscriptUnavailable):
		return http.StatusNotFound
	case errors.Is(err, model.ErrAllCredentialsExhausted),
		errors.Is(err, model.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, model.ErrChannelInfoUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func toHarvestSummary(r *model.HarvestResult) *dto.HarvestSummary {
	if r == nil {
		return nil
	}
	s := &dto.HarvestSummary{
		RunID:             r.RunID,
		ChannelID:         r.Channel.ID,
		ChannelTitle:      r.Channel.Title,
		SubscriberCount:   r.Channel.SubscriberCount,
		Period:            string(r.Period),
		Found:             r.Found,
		Recommended:       r.Recommended,
		Processed:         r.Processed,
		Records:           len(r.Records),
		DetailFailed:      r.DetailFailed,
		TranscriptSuccess: r.TranscriptSuccess,
		TranscriptFailed:  r.TranscriptFailed,
		Partial:           r.Partial,
		State:             string(r.State),
	}
	if !r.FinishedAt.IsZero() {
		s.ElapsedSeconds = r.FinishedAt.Sub(r.StartedAt).Seconds()
	}
	return s
}
