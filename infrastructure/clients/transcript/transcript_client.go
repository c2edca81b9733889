package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/naoterumaker/youtube-transcriber/domain/model"
	"github.com/naoterumaker/youtube-transcriber/domain/repository"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/logger"

	"github.com/google/go-querystring/query"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://www.youtube.com"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	playerResponseMarker = "ytInitialPlayerResponse = "
	maxWatchPageBytes    = 6 << 20
	maxTimedTextBytes    = 2 << 20

	// Caption tracks are kept for this many recent videos so a language
	// fallback does not download the watch page again.
	maxTrackedVideos = 64
)

// Config represents transcript client configuration
type Config struct {
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
	UserAgent         string
	HTTPClient        *http.Client
}

// Client fetches captions by scraping the watch page player response.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu     sync.Mutex
	tracks map[string][]captionTrack
}

// NewTranscriptClient creates a new transcript client
func NewTranscriptClient(config *Config) repository.ITranscript {
	return newClient(config)
}

func newClient(config *Config) *Client {
	if config == nil {
		config = &Config{}
	}
	c := &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		userAgent:  config.UserAgent,
		httpClient: config.HTTPClient,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		tracks:     make(map[string][]captionTrack),
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if c.httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	if config.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}
	return c
}

type watchParams struct {
	VideoID string `url:"v"`
	Hl      string `url:"hl,omitempty"`
}

type playerResponse struct {
	Captions *struct {
		TrackList struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

// timedText covers both the legacy <transcript><text> and the srv3 <timedtext><body><p> layouts.
type timedText struct {
	Lines []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
	Body struct {
		Paragraphs []struct {
			Text string `xml:",chardata"`
			Segs []struct {
				Text string `xml:",chardata"`
			} `xml:"s"`
		} `xml:"p"`
	} `xml:"body"`
}

// GetTranscript fetches the full caption text of a video.
func (c *Client) GetTranscript(ctx context.Context, videoID, language string) (string, string, error) {
	tracks, err := c.captionTracks(ctx, videoID)
	if err != nil {
		return "", "", err
	}
	track, err := pickTrack(tracks, language)
	if err != nil {
		return "", "", err
	}
	text, err := c.fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return "", "", err
	}
	if text == "" {
		return "", "", fmt.Errorf("%w: empty caption track %s", model.ErrTranscriptUnavailable, track.LanguageCode)
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"videoId":  videoID,
		"language": track.LanguageCode,
		"kind":     track.Kind,
		"chars":    len(text),
	}).Debug("Fetched transcript")
	return text, track.LanguageCode, nil
}

func (c *Client) captionTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	c.mu.Lock()
	tracks, ok := c.tracks[videoID]
	c.mu.Unlock()
	if ok {
		return tracks, nil
	}

	tracks, err := c.loadCaptionTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if len(c.tracks) >= maxTrackedVideos {
		clear(c.tracks)
	}
	c.tracks[videoID] = tracks
	c.mu.Unlock()
	return tracks, nil
}

func (c *Client) loadCaptionTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	params, err := query.Values(watchParams{VideoID: videoID, Hl: "en"})
	if err != nil {
		return nil, err
	}
	body, err := c.get(ctx, c.baseURL+"/watch?"+params.Encode(), maxWatchPageBytes)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}

	idx := bytes.Index(body, []byte(playerResponseMarker))
	if idx < 0 {
		return nil, errors.New("player response not found in watch page")
	}
	raw := extractJSON(body[idx+len(playerResponseMarker):])
	if raw == nil {
		return nil, errors.New("failed to extract player response")
	}
	var player playerResponse
	if err := json.Unmarshal(raw, &player); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}
	if player.Captions == nil || len(player.Captions.TrackList.CaptionTracks) == 0 {
		if player.PlayabilityStatus != nil && player.PlayabilityStatus.Reason != "" {
			return nil, fmt.Errorf("%w: %s", model.ErrTranscriptsDisabled, player.PlayabilityStatus.Reason)
		}
		return nil, model.ErrTranscriptsDisabled
	}
	return player.Captions.TrackList.CaptionTracks, nil
}

// needsPoToken reports whether a track can only be fetched by a browser.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickTrack returns the track for language, manual before auto-generated.
// An empty language picks the first manual track, else the first track.
func pickTrack(tracks []captionTrack, language string) (captionTrack, error) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.BaseURL != "" && !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, fmt.Errorf("%w: no fetchable caption track", model.ErrTranscriptsDisabled)
	}

	var fallback *captionTrack
	for i, t := range usable {
		if language != "" && !strings.EqualFold(t.LanguageCode, language) {
			continue
		}
		if t.Kind != "asr" {
			return t, nil
		}
		if fallback == nil {
			fallback = &usable[i]
		}
	}
	if fallback != nil {
		return *fallback, nil
	}
	return captionTrack{}, fmt.Errorf("%w: %s", model.ErrLanguageNotAvailable, language)
}

func (c *Client) fetchTimedText(ctx context.Context, trackURL string) (string, error) {
	if strings.HasPrefix(trackURL, "/") {
		trackURL = c.baseURL + trackURL
	}
	body, err := c.get(ctx, trackURL, maxTimedTextBytes)
	if err != nil {
		return "", fmt.Errorf("fetch timedtext: %w", err)
	}
	return parseTimedText(body)
}

func parseTimedText(body []byte) (string, error) {
	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("parse timedtext XML: %w", err)
	}

	var parts []string
	add := func(s string) {
		s = strings.Join(strings.Fields(html.UnescapeString(s)), " ")
		if s != "" {
			parts = append(parts, s)
		}
	}
	for _, line := range tt.Lines {
		add(line.Text)
	}
	for _, p := range tt.Body.Paragraphs {
		if len(p.Segs) == 0 {
			add(p.Text)
			continue
		}
		var sb strings.Builder
		for _, s := range p.Segs {
			sb.WriteString(s.Text)
		}
		add(sb.String())
	}
	return strings.Join(parts, " "), nil
}

func (c *Client) get(ctx context.Context, url string, limit int64) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: transcript provider returned 429", model.ErrQuotaExceeded)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: status 404", model.ErrTranscriptUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

// extractJSON returns the JSON object starting at b[0] by tracking brace depth.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}
