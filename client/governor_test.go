package client

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"postpunk.chat/punk/proto"
)

func newTestGovernor() (*SendGovernor, *time.Time) {
	now := time.Unix(1700000000, 0)
	g := NewSendGovernor(SendConfig{
		MaxMessageLength: 512,
		BaseCooldown:     Duration(1000 * time.Millisecond),
		MaxCooldown:      Duration(30000 * time.Millisecond),
		BurstThreshold:   2,
	})
	g.SetClock(func() time.Time { return now })
	return g, &now
}

func TestGovernorAccept(t *testing.T) {
	Convey("An idle governor accepts and starts a cooldown", t, func() {
		g, now := newTestGovernor()

		So(g.CanSendNow(), ShouldBeTrue)
		So(g.OnSendAttempt(5).Accepted, ShouldBeTrue)
		So(g.CanSendNow(), ShouldBeFalse)
		So(g.Remaining(), ShouldEqual, 1000*time.Millisecond)

		*now = now.Add(1000 * time.Millisecond)
		So(g.CanSendNow(), ShouldBeTrue)
		So(g.Remaining(), ShouldEqual, 0)
	})
}

func TestGovernorValidation(t *testing.T) {
	Convey("An oversize message is rejected without starting a cooldown", t, func() {
		g, _ := newTestGovernor()

		decision := g.OnSendAttempt(600)
		So(decision.Accepted, ShouldBeFalse)
		So(decision.Reason, ShouldEqual, proto.ErrMessageTooLong)
		So(g.CanSendNow(), ShouldBeTrue)
		So(g.Window(), ShouldEqual, 1000*time.Millisecond)
	})

	Convey("Message length counts runes, not bytes", t, func() {
		So(MessageLength("héllo"), ShouldEqual, 5)
	})
}

func TestGovernorCooldownRejection(t *testing.T) {
	Convey("Rapid attempts during a window are rejected with the remaining countdown", t, func() {
		g, now := newTestGovernor()

		So(g.OnSendAttempt(5).Accepted, ShouldBeTrue)

		*now = now.Add(100 * time.Millisecond)
		second := g.OnSendAttempt(5)
		So(second.Accepted, ShouldBeFalse)
		So(second.Reason, ShouldEqual, proto.ErrSendCooldown)
		So(second.Remaining, ShouldEqual, 900*time.Millisecond)

		*now = now.Add(100 * time.Millisecond)
		third := g.OnSendAttempt(5)
		So(third.Accepted, ShouldBeFalse)
		So(third.Remaining, ShouldEqual, 800*time.Millisecond)
	})

	Convey("Rejected attempts do not escalate the window", t, func() {
		g, now := newTestGovernor()

		So(g.OnSendAttempt(5).Accepted, ShouldBeTrue)
		for i := 0; i < 5; i++ {
			*now = now.Add(50 * time.Millisecond)
			So(g.OnSendAttempt(5).Accepted, ShouldBeFalse)
		}
		So(g.Window(), ShouldEqual, 1000*time.Millisecond)
	})
}

func TestGovernorEscalation(t *testing.T) {
	Convey("Back-to-back sends double the window once the burst threshold is crossed", t, func() {
		g, now := newTestGovernor()

		So(g.Window(), ShouldEqual, 1000*time.Millisecond)
		So(g.OnSendAttempt(5).Accepted, ShouldBeTrue)

		*now = now.Add(1000 * time.Millisecond)
		So(g.Window(), ShouldEqual, 1000*time.Millisecond)
		So(g.OnSendAttempt(5).Accepted, ShouldBeTrue)

		*now = now.Add(1000 * time.Millisecond)
		So(g.OnSendAttempt(5).Accepted, ShouldBeTrue)
		So(g.Window(), ShouldEqual, 2000*time.Millisecond)

		Convey("and the doubling compounds on the current window", func() {
			*now = now.Add(1000 * time.Millisecond)
			So(g.OnSendAttempt(5).Accepted, ShouldBeTrue)
			So(g.Window(), ShouldEqual, 4000*time.Millisecond)
		})
	})

	Convey("The window never exceeds the cap", t, func() {
		g, now := newTestGovernor()

		for i := 0; i < 12; i++ {
			if g.OnSendAttempt(5).Accepted {
				continue
			}
			*now = now.Add(g.Remaining())
			So(g.OnSendAttempt(5).Accepted, ShouldBeTrue)
		}
		So(g.Window(), ShouldBeLessThanOrEqualTo, 30000*time.Millisecond)
	})
}

func TestGovernorRelaxation(t *testing.T) {
	Convey("Sustained idleness halves the window back toward the base", t, func() {
		g, now := newTestGovernor()

		// escalate to a 4000ms window: four sends, each at the moment
		// the previous countdown ends
		So(g.OnSendAttempt(5).Accepted, ShouldBeTrue)
		*now = now.Add(1000 * time.Millisecond)
		So(g.OnSendAttempt(5).Accepted, ShouldBeTrue)
		*now = now.Add(1000 * time.Millisecond)
		So(g.OnSendAttempt(5).Accepted, ShouldBeTrue)
		*now = now.Add(1000 * time.Millisecond)
		So(g.OnSendAttempt(5).Accepted, ShouldBeTrue)
		So(g.Window(), ShouldEqual, 4000*time.Millisecond)

		// let the final countdown run out
		*now = now.Add(2000 * time.Millisecond)
		So(g.CanSendNow(), ShouldBeTrue)

		// one idle cycle at 4000ms relaxes to 2000ms
		*now = now.Add(4000 * time.Millisecond)
		So(g.Window(), ShouldEqual, 2000*time.Millisecond)

		// a second idle cycle at 2000ms returns to the base
		*now = now.Add(2000 * time.Millisecond)
		So(g.Window(), ShouldEqual, 1000*time.Millisecond)

		Convey("and never dips below it", func() {
			*now = now.Add(time.Hour)
			So(g.Window(), ShouldEqual, 1000*time.Millisecond)
			So(g.CanSendNow(), ShouldBeTrue)
		})
	})
}
