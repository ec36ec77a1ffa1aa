package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sparkinventory/spark-notify/internal/auth"
	"github.com/sparkinventory/spark-notify/internal/model"
	"github.com/sparkinventory/spark-notify/internal/notification"
)

// State represents the current state of the feed poller.
type State int

const (
	Idle State = iota
	Fetching
	Errored
)

// FeedResultMsg is a tea.Msg sent when a feed fetch completes.
type FeedResultMsg struct {
	Notifications []model.Notification
	Err           error
	AuthExpired   bool
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// defaultInterval is how often the feed refreshes on its own.
const defaultInterval = 120 * time.Second

// Poller orchestrates background refresh of the notification feed: a
// fixed interval tick, plus on-demand triggers after manual refresh or
// a successful execute. Results flow to the Bubble Tea runtime through
// a subscription command.
type Poller struct {
	fetcher   *notification.Fetcher
	authCtx   auth.Context
	pageSize  int
	interval  time.Duration
	resultCh  chan FeedResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}

	mu       gosync.Mutex
	state    State
	lastSync time.Time
	running  bool
}

// New creates a poller over the given fetcher and auth context.
func New(fetcher *notification.Fetcher, authCtx auth.Context, pageSize int) *Poller {
	return &Poller{
		fetcher:   fetcher,
		authCtx:   authCtx,
		pageSize:  pageSize,
		interval:  defaultInterval,
		resultCh:  make(chan FeedResultMsg, 4),
		triggerCh: make(chan struct{}, 4),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the polling goroutine and returns the subscription
// command that delivers the first result.
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

// SetPageSize changes how many notifications the next fetch requests.
func (p *Poller) SetPageSize(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n > 0 {
		p.pageSize = n
	}
}

// Refresh triggers an immediate fetch without waiting for the tick.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A refresh is already queued; one fetch covers both.
	}
}

// Status returns the poller state and the time of the last clean fetch.
func (p *Poller) Status() (State, time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, p.lastSync
}

// loop runs fetches on the interval tick and on explicit triggers.
func (p *Poller) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.fetch()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.fetch()
		case <-p.triggerCh:
			p.fetch()
		}
	}
}

// fetch performs a single feed fetch and publishes the result.
func (p *Poller) fetch() {
	p.setState(Fetching)

	p.mu.Lock()
	pageSize := p.pageSize
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	notifications, err := p.fetcher.Fetch(ctx, p.authCtx, 1, pageSize)
	if err != nil {
		p.setState(Errored)
		p.sendResult(FeedResultMsg{
			Err:         err,
			AuthExpired: notificationAuthError(err),
		})
		return
	}

	p.setState(Idle)
	p.sendResult(FeedResultMsg{Notifications: notifications})
}

// setState updates the poller state, stamping lastSync on a clean fetch.
func (p *Poller) setState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
	if s == Idle {
		p.lastSync = time.Now()
	}
}

// sendResult publishes a result without blocking the polling loop.
func (p *Poller) sendResult(msg FeedResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if the channel is full; the next fetch supersedes it.
	}
}

// waitForResult returns a tea.Cmd that waits for the next fetch result.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next feed
// result. Call it after processing a FeedResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
