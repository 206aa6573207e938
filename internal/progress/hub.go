package progress

import "sync"

// Hub fans supervisor progress frames out to websocket subscribers, keyed
// by report-run id. Slow subscribers drop frames instead of blocking the
// supervisor's ticker.
type Hub struct {
	mu   sync.Mutex
	subs map[uint]map[chan string]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint]map[chan string]struct{})}
}

// Publish delivers one frame to every subscriber of the run.
func (h *Hub) Publish(runID uint, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[runID] {
		select {
		case ch <- text:
		default:
		}
	}
}

// Subscribe returns a frame channel for the run and a cancel func. The
// channel is closed when the run completes.
func (h *Hub) Subscribe(runID uint) (<-chan string, func()) {
	ch := make(chan string, 16)
	h.mu.Lock()
	if h.subs[runID] == nil {
		h.subs[runID] = make(map[chan string]struct{})
	}
	h.subs[runID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[runID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
				if len(set) == 0 {
					delete(h.subs, runID)
				}
			}
		}
	}
	return ch, cancel
}

// Complete closes every subscriber channel for the run.
func (h *Hub) Complete(runID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[runID] {
		close(ch)
	}
	delete(h.subs, runID)
}
