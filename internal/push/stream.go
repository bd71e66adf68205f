// Package push maintains the live event channel from the Pulse server.
// It exposes deltas as tea.Msg values; everything below the event framing
// (connection management, reconnects) stays inside this package.
package push

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nhle/pulse/internal/logging"
	"github.com/nhle/pulse/internal/model"
)

// reconnectBase is the initial wait before re-establishing a dropped
// stream; the wait doubles per consecutive failure up to reconnectMax.
const (
	reconnectBase = time.Second
	reconnectMax  = 30 * time.Second
)

// Stream is a long-lived subscription to the server's event channel.
// Events are delivered on an internal channel and surfaced to the Bubble
// Tea runtime through WaitForEvent, so completions always land on the
// event loop regardless of which goroutine read them off the wire.
type Stream struct {
	baseURL    string
	token      string
	httpClient *http.Client

	events  chan Event
	stopCh  chan struct{}
	mu      gosync.Mutex
	running bool
	log     zerolog.Logger
}

// NewStream creates a stream client for the server at baseURL.
func NewStream(baseURL, token string) *Stream {
	return &Stream{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		// No overall timeout: the connection is expected to stay open.
		httpClient: &http.Client{},
		events:     make(chan Event, 32),
		stopCh:     make(chan struct{}),
		log:        logging.Component("push"),
	}
}

// Start launches the connection goroutine and returns a command that
// waits for the first event.
func (s *Stream) Start() tea.Cmd {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	go s.run()

	return s.waitForEvent()
}

// Stop tears the stream down.
func (s *Stream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
}

// WaitForEvent returns a tea.Cmd that delivers the next push event.
// Call it again after handling each Event to keep listening.
func (s *Stream) WaitForEvent() tea.Cmd {
	return s.waitForEvent()
}

func (s *Stream) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-s.events
		if !ok {
			return nil
		}
		return ev
	}
}

// run connects, consumes, and reconnects until stopped.
func (s *Stream) run() {
	wait := reconnectBase

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		err := s.consume()
		if err == nil {
			// Clean close; reconnect promptly.
			wait = reconnectBase
			continue
		}

		s.log.Warn().Err(err).Dur("retry_in", wait).Msg("event stream dropped")

		select {
		case <-s.stopCh:
			return
		case <-time.After(wait):
		}

		wait *= 2
		if wait > reconnectMax {
			wait = reconnectMax
		}
	}
}

// consume opens one stream connection and dispatches its events until the
// connection ends.
func (s *Stream) consume() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Unblock the body read when Stop is called.
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/v1/events", nil)
	if err != nil {
		return fmt.Errorf("creating stream request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connecting event stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("event stream returned status %d", resp.StatusCode)
	}

	s.log.Info().Msg("event stream connected")

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventName, data string
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "":
			// Blank line terminates one event.
			if eventName != "" && data != "" {
				s.dispatch(eventName, data)
			}
			eventName, data = "", ""
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("reading event stream: %w", err)
	}
	return nil
}

// dispatch parses one wire event and forwards it without blocking.
func (s *Stream) dispatch(name, data string) {
	switch EventName(name) {
	case EventNewItem:
		var item model.Notification
		if err := json.Unmarshal([]byte(data), &item); err != nil {
			s.log.Error().Err(err).Msg("malformed notification event")
			return
		}
		s.send(Event{Name: EventNewItem, Item: &item})

	case EventItemRemoved:
		var removal Removal
		if err := json.Unmarshal([]byte(data), &removal); err != nil {
			s.log.Error().Err(err).Msg("malformed removal event")
			return
		}
		s.send(Event{Name: EventItemRemoved, Removal: &removal})

	default:
		s.log.Debug().Str("event", name).Msg("ignoring unknown event")
	}
}

// send delivers an event without blocking the read loop.
func (s *Stream) send(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.log.Warn().Str("event", string(ev.Name)).Msg("event buffer full, dropping")
	}
}
