// Package recovery keeps a portfolio snapshot available across rate limits.
// The Controller owns the refresh lifecycle: it performs the initial load,
// serves manual refreshes and, while throttled, counts down to the reset
// time and retries on its own.
package recovery

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/thep200/github-portfolio-sync/cfg"
	"github.com/thep200/github-portfolio-sync/internal/apperror"
	"github.com/thep200/github-portfolio-sync/internal/model"
	"github.com/thep200/github-portfolio-sync/pkg/log"
)

type State int

const (
	Idle State = iota
	Loading
	Ready
	BackgroundRefreshing
	RateLimited
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case BackgroundRefreshing:
		return "background_refreshing"
	case RateLimited:
		return "rate_limited"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Fetcher produces snapshots; crawler.Portfolio satisfies it.
type Fetcher interface {
	GetSnapshot(ctx context.Context, forceRefresh bool) (*model.Snapshot, error)
}

// Status is a point-in-time view of the controller.
type Status struct {
	State        State           `json:"-"`
	StateName    string          `json:"state"`
	Busy         bool            `json:"busy"`
	Snapshot     *model.Snapshot `json:"snapshot,omitempty"`
	ResetAt      *time.Time      `json:"reset_at,omitempty"`
	Remaining    time.Duration   `json:"-"`
	RemainingSec int             `json:"remaining_sec"`
	Progress     float64         `json:"progress"`
	Countdown    string          `json:"countdown,omitempty"`
	Err          error           `json:"-"`
	Error        string          `json:"error,omitempty"`
}

type Controller struct {
	Logger        log.Logger
	fetcher       Fetcher
	tickInterval  time.Duration
	retryInterval time.Duration
	now           func() time.Time

	mu          sync.Mutex
	state       State
	snapshot    *model.Snapshot
	limit       *model.RateLimitState
	err         error
	busy        bool
	autoRetried bool
	lastAttempt time.Time
	listeners   []func(Status)
}

func NewController(logger log.Logger, config *cfg.Config, fetcher Fetcher) *Controller {
	return &Controller{
		Logger:        logger,
		fetcher:       fetcher,
		tickInterval:  time.Duration(config.Recovery.TickIntervalMs) * time.Millisecond,
		retryInterval: time.Duration(config.Recovery.RetryIntervalSec) * time.Second,
		now:           time.Now,
		state:         Idle,
	}
}

// OnChange registers fn to receive the status after every transition and
// every countdown tick. fn runs with no controller lock held.
func (c *Controller) OnChange(fn func(Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Start loads the first snapshot and then drives the countdown until ctx
// is cancelled.
func (c *Controller) Start(ctx context.Context) {
	c.Load(ctx)
	c.Run(ctx)
}

// Load performs the initial, cache-friendly fetch.
func (c *Controller) Load(ctx context.Context) bool {
	return c.attempt(ctx, false)
}

// Run ticks until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// Refresh forces a fetch and waits for it. It returns false without doing
// anything when another attempt is in flight.
func (c *Controller) Refresh(ctx context.Context) bool {
	return c.attempt(ctx, true)
}

// RefreshAsync is Refresh without waiting for the result.
func (c *Controller) RefreshAsync(ctx context.Context) bool {
	prev, ok := c.begin()
	if !ok {
		return false
	}
	go c.run(ctx, true, prev)
	return true
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Controller) attempt(ctx context.Context, force bool) bool {
	prev, ok := c.begin()
	if !ok {
		c.Logger.Debug(ctx, "Refresh skipped, another attempt is in flight")
		return false
	}
	c.run(ctx, force, prev)
	return true
}

// begin claims the busy flag and moves to the matching in-flight state.
func (c *Controller) begin() (State, bool) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return c.state, false
	}
	c.busy = true
	c.lastAttempt = c.now()
	prev := c.state
	switch {
	case prev == RateLimited:
		// the countdown stays visible while retrying
	case c.snapshot != nil:
		c.state = BackgroundRefreshing
	default:
		c.state = Loading
	}
	status := c.statusLocked()
	listeners := c.listeners
	c.mu.Unlock()

	notify(listeners, status)
	return prev, true
}

func (c *Controller) run(ctx context.Context, force bool, prev State) {
	snap, err := c.fetcher.GetSnapshot(ctx, force)

	c.mu.Lock()
	c.busy = false
	c.apply(ctx, snap, err, prev)
	status := c.statusLocked()
	listeners := c.listeners
	c.mu.Unlock()

	notify(listeners, status)
}

func (c *Controller) apply(ctx context.Context, snap *model.Snapshot, err error, prev State) {
	if err == nil {
		c.state = Ready
		c.snapshot = snap
		c.limit = nil
		c.err = nil
		c.autoRetried = false
		return
	}

	if resetAt, limited := apperror.IsRateLimited(err); limited {
		c.Logger.Warn(ctx, "Rate limited until %s", resetAt.Format(time.RFC3339))
		now := c.now()
		spent := c.autoRetried && c.limit != nil && !resetAt.After(c.limit.ResetAt)
		c.state = RateLimited
		c.limit = &model.RateLimitState{ResetAt: resetAt, CycleStart: now}
		// a reset that is already due gets no automatic retry; the retry
		// interval paces further attempts
		c.autoRetried = spent || !resetAt.After(now)
		if c.snapshot == nil {
			c.err = err
		} else {
			c.err = nil
		}
		return
	}

	c.Logger.Error(ctx, "Refresh failed: %v", err)
	switch {
	case prev == RateLimited:
		// still throttled as far as we know, keep the countdown
		c.state = RateLimited
	case c.snapshot != nil:
		c.state = Ready
		c.limit = nil
		c.err = nil
	default:
		c.state = Failed
		c.err = err
	}
}

// tick advances the countdown. At reset one forced retry is made per
// rate limit cycle; independently a retry is made every retry interval.
func (c *Controller) tick(ctx context.Context) {
	c.mu.Lock()
	if c.state != RateLimited || c.busy || c.limit == nil {
		c.mu.Unlock()
		return
	}

	now := c.now()
	due := false
	if c.limit.Remaining(now) == 0 && !c.autoRetried {
		c.autoRetried = true
		due = true
	} else if c.retryInterval > 0 && now.Sub(c.lastAttempt) >= c.retryInterval {
		due = true
	}
	status := c.statusLocked()
	listeners := c.listeners
	c.mu.Unlock()

	notify(listeners, status)
	if due {
		c.Logger.Info(ctx, "Retrying after rate limit")
		c.attempt(ctx, true)
	}
}

func (c *Controller) statusLocked() Status {
	s := Status{
		State:     c.state,
		StateName: c.state.String(),
		Busy:      c.busy,
		Snapshot:  c.snapshot,
		Err:       c.err,
	}
	if c.err != nil {
		s.Error = c.err.Error()
	}
	if c.state == RateLimited && c.limit != nil {
		now := c.now()
		resetAt := c.limit.ResetAt
		s.ResetAt = &resetAt
		s.Remaining = c.limit.Remaining(now)
		s.RemainingSec = ceilSeconds(s.Remaining)
		s.Progress = c.limit.Progress(now)
		s.Countdown = Countdown(s.Remaining)
	}
	return s
}

func notify(listeners []func(Status), status Status) {
	for _, fn := range listeners {
		fn(status)
	}
}

// Countdown renders d as "<m>m <s>s remaining" with seconds rounded up.
func Countdown(d time.Duration) string {
	total := ceilSeconds(d)
	return fmt.Sprintf("%dm %ds remaining", total/60, total%60)
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
