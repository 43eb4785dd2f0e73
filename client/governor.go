package client

import (
	"time"
	"unicode/utf8"

	"postpunk.chat/punk/proto"
)

// SendDecision reports the outcome of a send attempt. When the attempt
// is rejected on cooldown, Remaining carries the time left in the
// current window for the countdown indicator.
type SendDecision struct {
	Accepted  bool
	Reason    error
	Remaining time.Duration
}

// SendGovernor is an adaptive rate limiter for outgoing messages. A
// successful send starts a cooldown window during which further sends
// are rejected. Rapid repeated sending doubles the window (up to a
// cap); sustained idleness halves it back down toward the base. No
// server cooperation is required.
//
// State advances lazily against an injectable clock, so the governor
// is testable without timers and needs no goroutine of its own. The
// 1-second presentation tick only reads Remaining().
type SendGovernor struct {
	cfg   SendConfig
	clock func() time.Time
	base  time.Duration
	max   time.Duration

	window       time.Duration // current required gap between sends
	burst        int           // consecutive sends without an intervening decay
	windowExpiry time.Time     // when the blocking countdown ends; zero when idle
	decayExpiry  time.Time     // when the next idle relaxation fires; zero when fully relaxed
}

func NewSendGovernor(cfg SendConfig) *SendGovernor {
	return &SendGovernor{
		cfg:    cfg,
		clock:  time.Now,
		base:   cfg.BaseCooldown.StdDuration(),
		max:    cfg.MaxCooldown.StdDuration(),
		window: cfg.BaseCooldown.StdDuration(),
	}
}

// SetClock replaces the governor's time source. Tests use this to step
// through cooldown cycles deterministically.
func (g *SendGovernor) SetClock(clock func() time.Time) { g.clock = clock }

// advance applies every expiry that has occurred up to now. When the
// blocking countdown ends, an idle decay cycle of the current window
// length is scheduled; each decay cycle that passes without a send
// relaxes the limiter one step (burst counter drops by one, window
// halves toward but never below the base) and schedules the next,
// until there is nothing left to relax. A send that lands exactly at
// countdown expiry therefore still counts toward the burst.
func (g *SendGovernor) advance(now time.Time) {
	if !g.windowExpiry.IsZero() && !now.Before(g.windowExpiry) {
		at := g.windowExpiry
		g.windowExpiry = time.Time{}
		g.scheduleDecay(at)
	}
	for !g.decayExpiry.IsZero() && !now.Before(g.decayExpiry) {
		at := g.decayExpiry
		g.decayExpiry = time.Time{}
		g.relax()
		g.scheduleDecay(at)
	}
}

func (g *SendGovernor) relax() {
	if g.burst > 0 {
		g.burst--
	}
	g.window /= 2
	if g.window < g.base {
		g.window = g.base
	}
}

func (g *SendGovernor) scheduleDecay(from time.Time) {
	if g.window > g.base || g.burst > 0 {
		g.decayExpiry = from.Add(g.window)
	}
}

// CanSendNow reports whether a send would currently be accepted by the
// cooldown (length limits are checked separately at attempt time).
func (g *SendGovernor) CanSendNow() bool {
	now := g.clock()
	g.advance(now)
	return g.windowExpiry.IsZero()
}

// Remaining returns the time left in the blocking countdown, zero when
// idle.
func (g *SendGovernor) Remaining() time.Duration {
	now := g.clock()
	g.advance(now)
	if g.windowExpiry.IsZero() {
		return 0
	}
	return g.windowExpiry.Sub(now)
}

// Window returns the current cooldown window length.
func (g *SendGovernor) Window() time.Duration {
	g.advance(g.clock())
	return g.window
}

// OnSendAttempt validates an outgoing message of the given length (in
// runes) against the length limit and the cooldown, and on acceptance
// starts the next cooldown window. Each accepted send bumps the burst
// counter; once it exceeds the configured threshold the window doubles,
// compounding on the current window so consecutive violations escalate
// exponentially up to the cap.
func (g *SendGovernor) OnSendAttempt(contentLength int) SendDecision {
	now := g.clock()
	g.advance(now)

	if contentLength > g.cfg.MaxMessageLength {
		sendsRejected.WithLabelValues("too_long").Inc()
		return SendDecision{Reason: proto.ErrMessageTooLong}
	}

	if !g.windowExpiry.IsZero() {
		sendsRejected.WithLabelValues("cooldown").Inc()
		return SendDecision{
			Reason:    proto.ErrSendCooldown,
			Remaining: g.windowExpiry.Sub(now),
		}
	}

	g.decayExpiry = time.Time{}
	g.windowExpiry = now.Add(g.window)
	g.burst++
	if g.burst > g.cfg.BurstThreshold {
		g.window *= 2
		if g.window > g.max {
			g.window = g.max
		}
	}
	sendsAccepted.Inc()
	cooldownWindow.Set(g.window.Seconds())
	return SendDecision{Accepted: true}
}

// MessageLength measures content the way the length limit is defined,
// in runes rather than bytes.
func MessageLength(content string) int { return utf8.RuneCountInString(content) }
