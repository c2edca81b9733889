package realtime

import (
	"encoding/json"
	"sync"

	"github.com/naoterumaker/youtube-transcriber/domain/model"

	"github.com/gin-gonic/gin"
)

// subscriberBuffer is the number of events a slow client may lag behind before events are dropped.
const subscriberBuffer = 32

// Hub fans harvest progress events out to SSE subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan model.HarvestEvent]string // channel -> run filter, "" for all runs
}

func NewHarvestHub() *Hub {
	return &Hub{subs: make(map[chan model.HarvestEvent]string)}
}

// Serve streams events as text/event-stream. The optional run query
// parameter limits the stream to one run id.
func (h *Hub) Serve(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := make(chan model.HarvestEvent, subscriberBuffer)
	h.addSubscriber(ch, c.Query("run"))
	defer h.removeSubscriber(ch)

	// Initial comment to keep connection open
	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case evt := <-ch:
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: harvest\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

// Subscribers returns the number of open streams.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) addSubscriber(ch chan model.HarvestEvent, runID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[ch] = runID
}

func (h *Hub) removeSubscriber(ch chan model.HarvestEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, ch)
	close(ch)
}

// Broadcast delivers evt to every matching subscriber without blocking.
func (h *Hub) Broadcast(evt model.HarvestEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch, runID := range h.subs {
		if runID != "" && runID != evt.RunID {
			continue
		}
		select { // non-blocking
		case ch <- evt:
		default:
		}
	}
}
