package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nhle/pulse/internal/api"
	"github.com/nhle/pulse/internal/logging"
)

// State represents the current state of the pull cycle.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateError
)

// Status holds the pull cycle's state for display in the header.
type Status struct {
	State    State
	LastPull time.Time
	Error    error
}

// PullResultMsg is a tea.Msg sent when a pull completes. A successful pull
// carries an authoritative snapshot of the first notification page.
type PullResultMsg struct {
	Page      *api.NotificationPage
	Error     error
	AuthError bool
}

// fetchTimeout is the maximum time allowed for a single pull.
const fetchTimeout = 30 * time.Second

// Poller periodically pulls a full notification snapshot from the server.
// Completions are delivered to the Bubble Tea runtime as PullResultMsg
// values; the poller never touches shared state itself.
type Poller struct {
	client   *api.Client
	pageSize int
	interval time.Duration

	status    Status
	resultCh  chan PullResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
	log       zerolog.Logger
}

// New creates a poller pulling pageSize items every interval.
func New(client *api.Client, pageSize int, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller{
		client:    client,
		pageSize:  pageSize,
		interval:  interval,
		resultCh:  make(chan PullResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		log:       logging.Component("poller"),
	}
}

// Start returns a tea.Cmd that starts the polling goroutine and subscribes
// to results. The returned command waits on the result channel and returns
// PullResultMsg messages to the Bubble Tea runtime.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()

	return p.waitForResult()
}

// Stop halts the polling goroutine.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Refresh triggers an immediate pull.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A refresh is already queued.
	}
}

// Status returns the current pull cycle status.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// WaitForNextResult returns a tea.Cmd that waits for the next pull result.
// This should be called after processing a PullResultMsg to continue
// listening for future results.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}

// loop runs the pull cycle until stopped.
func (p *Poller) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Do an initial pull immediately.
	p.pull()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.pull()
		case <-p.triggerCh:
			p.pull()
		}
	}
}

// pull performs a single snapshot fetch and sends the result.
func (p *Poller) pull() {
	p.setStatus(StateRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	page, err := p.client.ListNotifications(ctx, 0, p.pageSize)
	if err != nil {
		p.setStatus(StateError, err)
		p.log.Warn().Err(err).Msg("pull failed")
		p.sendResult(PullResultMsg{
			Error:     err,
			AuthError: api.IsAuthError(err),
		})
		return
	}

	p.setStatus(StateIdle, nil)
	p.sendResult(PullResultMsg{Page: page})
}

// setStatus updates the displayed pull status.
func (p *Poller) setStatus(state State, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == StateIdle && err == nil {
		p.status.LastPull = time.Now()
	}
}

// sendResult sends a PullResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg PullResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller.
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}
