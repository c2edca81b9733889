package transcript

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/naoterumaker/youtube-transcriber/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyXML = `<?xml version="1.0" encoding="utf-8" ?><transcript>` +
	`<text start="0" dur="1.5">Hello &amp;amp; welcome</text>` +
	`<text start="1.5" dur="2">it&amp;#39;s
a test</text>` +
	`<text start="3.5" dur="1"> </text>` +
	`</transcript>`

const srv3XML = `<?xml version="1.0" encoding="utf-8" ?><timedtext format="3"><body>` +
	`<p t="0" d="1000"><s>こんにちは</s><s>世界</s></p>` +
	`<p t="1000" d="1000">plain</p>` +
	`</body></timedtext>`

func watchPage(playerJSON string) string {
	return `<html><script>var ytInitialPlayerResponse = ` + playerJSON + `;var meta = {"a":1};</script></html>`
}

func newTestServer(t *testing.T, player string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("v"))
		fmt.Fprint(w, watchPage(strings.ReplaceAll(player, "BASE", srv.URL)))
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fmt") == "srv3" {
			fmt.Fprint(w, srv3XML)
			return
		}
		fmt.Fprint(w, legacyXML)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

const twoTracks = `{"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[` +
	`{"baseUrl":"BASE/api/timedtext?v=x&lang=en","languageCode":"en","kind":"asr"},` +
	`{"baseUrl":"BASE/api/timedtext?v=x&lang=ja&fmt=srv3","languageCode":"ja"}` +
	`]}},"videoDetails":{"title":"with \"quotes\" and {braces}"}}`

func TestGetTranscriptByLanguage(t *testing.T) {
	srv := newTestServer(t, twoTracks)
	c := newClient(&Config{BaseURL: srv.URL, HTTPClient: srv.Client()})

	text, used, err := c.GetTranscript(context.Background(), "dQw4w9WgXcQ", "ja")
	require.NoError(t, err)
	assert.Equal(t, "ja", used)
	assert.Equal(t, "こんにちは世界 plain", text)

	text, used, err = c.GetTranscript(context.Background(), "dQw4w9WgXcQ", "en")
	require.NoError(t, err)
	assert.Equal(t, "en", used)
	assert.Equal(t, "Hello & welcome it's a test", text)
}

func TestGetTranscriptReusesWatchPageAcrossLanguages(t *testing.T) {
	var watchHits atomic.Int32
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		watchHits.Add(1)
		fmt.Fprint(w, watchPage(strings.ReplaceAll(twoTracks, "BASE", srv.URL)))
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, legacyXML)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := newClient(&Config{BaseURL: srv.URL, HTTPClient: srv.Client()})

	for _, lang := range []string{"fr", "ja-JP"} {
		_, _, err := c.GetTranscript(context.Background(), "dQw4w9WgXcQ", lang)
		assert.ErrorIs(t, err, model.ErrLanguageNotAvailable)
	}
	_, used, err := c.GetTranscript(context.Background(), "dQw4w9WgXcQ", "en")
	require.NoError(t, err)
	assert.Equal(t, "en", used)
	assert.Equal(t, int32(1), watchHits.Load())

	_, _, err = c.GetTranscript(context.Background(), "otherVideo1", "en")
	require.NoError(t, err)
	assert.Equal(t, int32(2), watchHits.Load())
}

func TestGetTranscriptDefaultPrefersManualTrack(t *testing.T) {
	srv := newTestServer(t, twoTracks)
	c := newClient(&Config{BaseURL: srv.URL, HTTPClient: srv.Client()})

	_, used, err := c.GetTranscript(context.Background(), "dQw4w9WgXcQ", "")
	require.NoError(t, err)
	assert.Equal(t, "ja", used)
}

func TestGetTranscriptLanguageNotAvailable(t *testing.T) {
	srv := newTestServer(t, twoTracks)
	c := newClient(&Config{BaseURL: srv.URL, HTTPClient: srv.Client()})

	_, _, err := c.GetTranscript(context.Background(), "dQw4w9WgXcQ", "fr")
	assert.ErrorIs(t, err, model.ErrLanguageNotAvailable)
}

func TestGetTranscriptDisabled(t *testing.T) {
	srv := newTestServer(t, `{"playabilityStatus":{"status":"OK"}}`)
	c := newClient(&Config{BaseURL: srv.URL, HTTPClient: srv.Client()})

	_, _, err := c.GetTranscript(context.Background(), "dQw4w9WgXcQ", "")
	assert.ErrorIs(t, err, model.ErrTranscriptsDisabled)
}

func TestGetTranscriptSkipsPoTokenTracks(t *testing.T) {
	srv := newTestServer(t, `{"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[`+
		`{"baseUrl":"BASE/api/timedtext?v=x&exp=xpe","languageCode":"en"}]}}}`)
	c := newClient(&Config{BaseURL: srv.URL, HTTPClient: srv.Client()})

	_, _, err := c.GetTranscript(context.Background(), "dQw4w9WgXcQ", "en")
	assert.ErrorIs(t, err, model.ErrTranscriptsDisabled)
}

func TestGetTranscriptHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	c := newClient(&Config{BaseURL: srv.URL, HTTPClient: srv.Client()})

	_, _, err := c.GetTranscript(context.Background(), "dQw4w9WgXcQ", "en")
	assert.ErrorIs(t, err, model.ErrQuotaExceeded)
}

func TestGetTranscriptMissingPlayerResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>consent</html>")
	}))
	defer srv.Close()
	c := newClient(&Config{BaseURL: srv.URL, HTTPClient: srv.Client()})

	_, _, err := c.GetTranscript(context.Background(), "dQw4w9WgXcQ", "en")
	assert.ErrorContains(t, err, "player response not found")
}

func TestGetTranscriptCanceled(t *testing.T) {
	c := newClient(&Config{BaseURL: "http://127.0.0.1:1", RequestsPerSecond: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := c.GetTranscript(ctx, "dQw4w9WgXcQ", "en")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":"}\"{","b":{"c":1}}`, string(extractJSON([]byte(`{"a":"}\"{","b":{"c":1}};rest`))))
	assert.Nil(t, extractJSON([]byte(`{"a":1`)))
	assert.Nil(t, extractJSON([]byte(`x{}`)))
}

func TestPickTrack(t *testing.T) {
	tracks := []captionTrack{
		{BaseURL: "u1", LanguageCode: "en", Kind: "asr"},
		{BaseURL: "u2", LanguageCode: "en"},
		{BaseURL: "u3", LanguageCode: "ja", Kind: "asr"},
	}
	got, err := pickTrack(tracks, "en")
	require.NoError(t, err)
	assert.Equal(t, "u2", got.BaseURL)

	got, err = pickTrack(tracks, "ja")
	require.NoError(t, err)
	assert.Equal(t, "u3", got.BaseURL)

	got, err = pickTrack(tracks[2:], "")
	require.NoError(t, err)
	assert.Equal(t, "u3", got.BaseURL)
}
