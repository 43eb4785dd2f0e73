package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConfig(t *testing.T) {
	Convey("Defaults validate", t, func() {
		cfg := DefaultConfig()
		So(cfg.Validate(), ShouldBeNil)
	})

	Convey("A config file overlays the defaults", t, func() {
		path := filepath.Join(t.TempDir(), "punk.yml")
		contents := `
room:
  ws-url: wss://example.test/socket
send:
  max-message-length: 280
  base-cooldown: 2s
`
		So(os.WriteFile(path, []byte(contents), 0600), ShouldBeNil)

		cfg := DefaultConfig()
		So(cfg.LoadFromFile(path), ShouldBeNil)
		So(cfg.Room.WSURL, ShouldEqual, "wss://example.test/socket")
		So(cfg.Send.MaxMessageLength, ShouldEqual, 280)
		So(cfg.Send.BaseCooldown, ShouldEqual, Duration(2*time.Second))
		So(cfg.Send.MaxCooldown, ShouldEqual, Duration(30*time.Second))
		So(cfg.Validate(), ShouldBeNil)
	})

	Convey("Out-of-range settings fail validation", t, func() {
		cfg := DefaultConfig()
		cfg.Send.MaxCooldown = Duration(500 * time.Millisecond)
		So(cfg.Validate(), ShouldNotBeNil)

		cfg = DefaultConfig()
		cfg.Zoom.Min = 0
		So(cfg.Validate(), ShouldNotBeNil)

		cfg = DefaultConfig()
		cfg.Send.MaxMessageLength = 0
		So(cfg.Validate(), ShouldNotBeNil)
	})

	Convey("A missing config file is an error", t, func() {
		cfg := DefaultConfig()
		So(cfg.LoadFromFile("/nonexistent/punk.yml"), ShouldNotBeNil)
	})
}
