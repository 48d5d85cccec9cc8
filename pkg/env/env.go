// Package env sets up a Link from flags and environment variables.
package env

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/robotalks/srpc/pkg/link"
	"github.com/robotalks/srpc/pkg/protocol"
	"github.com/robotalks/srpc/pkg/rpc"
	"github.com/robotalks/srpc/pkg/transport"
	// link schemes.
	_ "github.com/robotalks/srpc/pkg/transport/mqtt"
	_ "github.com/robotalks/srpc/pkg/transport/websocket"
)

// Config provides common options to setup a Link.
type Config struct {
	// Link specifies the transport, e.g.
	// serial:///dev/ttyUSB0?baud=115200, tcp://host:port,
	// ws://host:port/path, mqtt://host:port/topic-prefix/
	Link string
	// Role overrides the role in Link, host or device.
	Role string
	// DeviceID names the device on shared transports (mqtt).
	DeviceID string

	CallTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// TxRate limits outbound frames per second, 0 is unlimited.
	TxRate  float64
	TxBurst int
}

var defaultConfig = Config{
	Link:         "tcp://localhost:7000",
	CallTimeout:  rpc.DefaultCallTimeout,
	WriteTimeout: protocol.DefaultWriteTimeout,
	IdleTimeout:  link.DefaultIdleTimeout,
	TxBurst:      1,
}

func init() {
	if err := defaultConfig.LoadEnv(os.Getenv); err != nil {
		log.Fatalln(err)
	}
	if defaultConfig.DeviceID == "" {
		defaultConfig.DeviceID = MachineID()
	}
}

// LoadEnv overrides the config with SRPC_* variables.
func (c *Config) LoadEnv(getenv func(string) string) error {
	if val := getenv("SRPC_LINK"); val != "" {
		c.Link = val
	}
	if val := getenv("SRPC_DEVICE_ID"); val != "" {
		c.DeviceID = val
	}
	if val := getenv("SRPC_CALL_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid SRPC_CALL_TIMEOUT: %w", err)
		}
		c.CallTimeout = d
	}
	if val := getenv("SRPC_TX_RATE"); val != "" {
		r, err := strconv.ParseFloat(val, 64)
		if err != nil || r < 0 {
			return fmt.Errorf("invalid SRPC_TX_RATE %q", val)
		}
		c.TxRate = r
	}
	return nil
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Link, "link", defaultConfig.Link, "Link URL.")
	flag.StringVar(&defaultConfig.DeviceID, "device", defaultConfig.DeviceID, "Device ID on shared transports.")
	flag.DurationVar(&defaultConfig.CallTimeout, "call-timeout", defaultConfig.CallTimeout, "Time waiting for a response.")
	flag.DurationVar(&defaultConfig.WriteTimeout, "write-timeout", defaultConfig.WriteTimeout, "Time writing a frame.")
	flag.DurationVar(&defaultConfig.IdleTimeout, "idle-timeout", defaultConfig.IdleTimeout, "Abandon a partial frame after the line is idle for this long.")
	flag.Float64Var(&defaultConfig.TxRate, "tx-rate", defaultConfig.TxRate, "Max outbound frames per second, 0 is unlimited.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// LinkURL gets the link URL with role and device filled in.
func (c *Config) LinkURL() (string, error) {
	u, err := url.Parse(c.Link)
	if err != nil {
		return "", fmt.Errorf("%w: %v", transport.ErrInvalidLink, err)
	}
	if u.Scheme == "" {
		return c.Link, nil
	}
	q := u.Query()
	if c.Role != "" {
		q.Set("role", c.Role)
	}
	if (u.Scheme == "mqtt" || u.Scheme == "mqtts") && q.Get("device") == "" {
		q.Set("device", c.DeviceID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Options gets the link options.
func (c *Config) Options() link.Options {
	opts := link.Options{
		CallTimeout:  c.CallTimeout,
		WriteTimeout: c.WriteTimeout,
		IdleTimeout:  c.IdleTimeout,
	}
	if c.TxRate > 0 {
		burst := c.TxBurst
		if burst <= 0 {
			burst = 1
		}
		opts.Limiter = rate.NewLimiter(rate.Limit(c.TxRate), burst)
	}
	return opts
}

// NewLink opens the transport and creates a Link over it.
func (c *Config) NewLink(ctx context.Context) (*link.Link, error) {
	linkURL, err := c.LinkURL()
	if err != nil {
		return nil, err
	}
	port, err := transport.Open(ctx, linkURL)
	if err != nil {
		return nil, fmt.Errorf("open link %s: %w", linkURL, err)
	}
	return link.New(port, c.Options()), nil
}

// MustNewLink creates a Link and fails on error.
func (c *Config) MustNewLink(ctx context.Context) *link.Link {
	l, err := c.NewLink(ctx)
	if err != nil {
		log.Fatalln(err)
	}
	return l
}
