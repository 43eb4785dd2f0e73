package client

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

var Config ClientConfig = DefaultConfig()

func init() {
	flag.StringVar(&Config.Room.WSURL, "ws", "", "websocket url of the room to join")
	flag.StringVar(&Config.Room.UploadURL, "upload", "", "http endpoint for media uploads")
	flag.StringVar(&Config.HTTP.Listen, "http", ":8084", "address to serve /metrics on")
	flag.IntVar(&Config.Send.MaxMessageLength, "max-message-length", Config.Send.MaxMessageLength, "")
	flag.Var(&Config.Send.BaseCooldown, "base-cooldown", "")
	flag.Var(&Config.Send.MaxCooldown, "max-cooldown", "")
}

// Duration cooperates with both flag and yaml parsing, accepting the
// usual "500ms"/"2s" forms.
type Duration time.Duration

func (d Duration) StdDuration() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) Set(s string) error {
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.Set(s)
}

func (d Duration) MarshalYAML() (interface{}, error) { return d.String(), nil }

type ClientConfig struct {
	Room   RoomConfig   `yaml:"room"`
	HTTP   HTTPConfig   `yaml:"http,omitempty"`
	Send   SendConfig   `yaml:"send"`
	Zoom   ZoomConfig   `yaml:"zoom"`
	Upload UploadConfig `yaml:"upload"`
}

type RoomConfig struct {
	WSURL     string `yaml:"ws-url"`
	UploadURL string `yaml:"upload-url"`
}

type HTTPConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

type SendConfig struct {
	MaxMessageLength int      `yaml:"max-message-length"`
	BaseCooldown     Duration `yaml:"base-cooldown"`
	MaxCooldown      Duration `yaml:"max-cooldown"`
	BurstThreshold   int      `yaml:"burst-threshold"`
}

type ZoomConfig struct {
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Step float64 `yaml:"step"`
}

type UploadConfig struct {
	MaxBytes uint64 `yaml:"max-bytes"`
}

func DefaultConfig() ClientConfig {
	return ClientConfig{
		Send: SendConfig{
			MaxMessageLength: 512,
			BaseCooldown:     Duration(1000 * time.Millisecond),
			MaxCooldown:      Duration(30000 * time.Millisecond),
			BurstThreshold:   2,
		},
		Zoom: ZoomConfig{
			Min:  0.5,
			Max:  5,
			Step: 0.2,
		},
		Upload: UploadConfig{
			MaxBytes: 400 * 1024 * 1024,
		},
	}
}

func (c *ClientConfig) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %s", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%s: %s", path, err)
	}
	return nil
}

func (c *SendConfig) validate() error {
	if c.MaxMessageLength <= 0 {
		return fmt.Errorf("send: max-message-length must be positive")
	}
	if c.BaseCooldown <= 0 || c.MaxCooldown < c.BaseCooldown {
		return fmt.Errorf("send: cooldown window out of range")
	}
	return nil
}

func (c *ZoomConfig) validate() error {
	if c.Min <= 0 || c.Max < c.Min || c.Step <= 0 {
		return fmt.Errorf("zoom: bounds out of range")
	}
	return nil
}

func (c *ClientConfig) Validate() error {
	if err := c.Send.validate(); err != nil {
		return err
	}
	return c.Zoom.validate()
}
