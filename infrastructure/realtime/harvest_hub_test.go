package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/naoterumaker/youtube-transcriber/domain/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subscribe(t *testing.T, srv *httptest.Server, query string) (*bufio.Reader, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events"+query, nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ":ok\n", line)
	_, _ = r.ReadString('\n')
	return r, cancel
}

func readEvent(t *testing.T, r *bufio.Reader) model.HarvestEvent {
	t.Helper()
	name, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: harvest\n", name)
	data, err := r.ReadString('\n')
	require.NoError(t, err)
	_, _ = r.ReadString('\n')

	var evt model.HarvestEvent
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(data), "data: ")), &evt))
	return evt
}

func TestHubStreamsEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHarvestHub()
	router := gin.New()
	router.GET("/events", hub.Serve)
	srv := httptest.NewServer(router)
	defer srv.Close()

	all, cancelAll := subscribe(t, srv, "")
	defer cancelAll()
	only, cancelOnly := subscribe(t, srv, "?run=run-2")
	defer cancelOnly()
	require.Eventually(t, func() bool { return hub.Subscribers() == 2 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(model.HarvestEvent{RunID: "run-1", State: model.StateEnumerating})
	hub.Broadcast(model.HarvestEvent{RunID: "run-2", State: model.StateProcessing, VideoID: "v1", Done: 1, Total: 3})

	assert.Equal(t, "run-1", readEvent(t, all).RunID)
	assert.Equal(t, "run-2", readEvent(t, all).RunID)
	assert.Equal(t, model.HarvestEvent{RunID: "run-2", State: model.StateProcessing, VideoID: "v1", Done: 1, Total: 3}, readEvent(t, only))

	cancelAll()
	cancelOnly()
	assert.Eventually(t, func() bool { return hub.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}

func TestBroadcastNeverBlocks(t *testing.T) {
	hub := NewHarvestHub()
	ch := make(chan model.HarvestEvent, 1)
	hub.addSubscriber(ch, "")

	for i := 0; i < 5; i++ {
		hub.Broadcast(model.HarvestEvent{RunID: "run-1"})
	}
	assert.Len(t, ch, 1)
	hub.removeSubscriber(ch)
	assert.Zero(t, hub.Subscribers())
}
