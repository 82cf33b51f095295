package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	scheduledevent "github.com/roboricindustries/raycon-guild-events/pkg/schemas/scheduledevent/v1"
)

// EnvPrefix is prepended to upper-cased flag names to form the
// environment fallback, e.g. --amqp-url reads RELAY_AMQP_URL.
const EnvPrefix = "RELAY_"

type Config struct {
	AMQP  AMQPConfig
	Relay RelayConfig
	Log   LogConfig
}

type AMQPConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	VHost    string

	DialAttempts int
	DialDelay    time.Duration
}

type RelayConfig struct {
	DispatchExchange string
	Queue            string
	EventsExchange   string
	Producer         string

	Workers        int
	Prefetch       int
	Buffer         int
	HandlerTimeout time.Duration
	StoreTTL       time.Duration

	RetryTTL    time.Duration
	MaxAttempts int

	// PublishOptional starts the relay with a dropping publisher when the
	// events exchange cannot be set up.
	PublishOptional bool
}

type LogConfig struct {
	Level  string
	Format string
}

func Default() Config {
	return Config{
		AMQP: AMQPConfig{
			Port:         "5672",
			VHost:        "/",
			DialAttempts: 5,
			DialDelay:    time.Second,
		},
		Relay: RelayConfig{
			DispatchExchange: scheduledevent.DispatchExchange,
			Queue:            "scheduled_events.relay",
			EventsExchange:   scheduledevent.Exchange,
			Workers:          4,
			Prefetch:         10,
			Buffer:           64,
			HandlerTimeout:   10 * time.Second,
			StoreTTL:         24 * time.Hour,
			RetryTTL:         5 * time.Second,
			MaxAttempts:      5,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// RegisterFlags binds c to fs. Current values of c become the defaults.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.AMQP.URL, "amqp-url", c.AMQP.URL, "full AMQP URL; overrides the host/port/user settings")
	fs.StringVar(&c.AMQP.Host, "amqp-host", c.AMQP.Host, "AMQP host")
	fs.StringVar(&c.AMQP.Port, "amqp-port", c.AMQP.Port, "AMQP port")
	fs.StringVar(&c.AMQP.User, "amqp-user", c.AMQP.User, "AMQP user")
	fs.StringVar(&c.AMQP.Password, "amqp-password", c.AMQP.Password, "AMQP password")
	fs.StringVar(&c.AMQP.VHost, "amqp-vhost", c.AMQP.VHost, "AMQP virtual host")
	fs.IntVar(&c.AMQP.DialAttempts, "amqp-dial-attempts", c.AMQP.DialAttempts, "connection attempts before giving up")
	fs.DurationVar(&c.AMQP.DialDelay, "amqp-dial-delay", c.AMQP.DialDelay, "initial delay between connection attempts")

	fs.StringVar(&c.Relay.DispatchExchange, "dispatch-exchange", c.Relay.DispatchExchange, "exchange gateway dispatches arrive on")
	fs.StringVar(&c.Relay.Queue, "queue", c.Relay.Queue, "queue the relay consumes from")
	fs.StringVar(&c.Relay.EventsExchange, "events-exchange", c.Relay.EventsExchange, "exchange notifications are published to")
	fs.StringVar(&c.Relay.Producer, "producer", c.Relay.Producer, "producer name stamped on published events")
	fs.IntVar(&c.Relay.Workers, "workers", c.Relay.Workers, "concurrent dispatch handlers")
	fs.IntVar(&c.Relay.Prefetch, "prefetch", c.Relay.Prefetch, "unacknowledged deliveries per consumer")
	fs.IntVar(&c.Relay.Buffer, "buffer", c.Relay.Buffer, "deliveries buffered ahead of the workers")
	fs.DurationVar(&c.Relay.HandlerTimeout, "handler-timeout", c.Relay.HandlerTimeout, "timeout for handling one dispatch")
	fs.DurationVar(&c.Relay.StoreTTL, "store-ttl", c.Relay.StoreTTL, "how long a cached event snapshot stays valid; 0 keeps it forever")
	fs.DurationVar(&c.Relay.RetryTTL, "retry-ttl", c.Relay.RetryTTL, "delay before a failed dispatch is redelivered; 0 requeues immediately")
	fs.IntVar(&c.Relay.MaxAttempts, "max-attempts", c.Relay.MaxAttempts, "redeliveries before a dispatch is parked")
	fs.BoolVar(&c.Relay.PublishOptional, "publish-optional", c.Relay.PublishOptional, "keep running without publishing when the events exchange is unavailable")

	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "debug, info, warn or error")
	fs.StringVar(&c.Log.Format, "log-format", c.Log.Format, "json or text")
}

// EnvName is the environment variable backing flag name.
func EnvName(flag string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// ApplyEnv fills every flag not set on the command line from its
// environment variable. lookup defaults to os.LookupEnv.
func ApplyEnv(fs *pflag.FlagSet, lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		val, ok := lookup(EnvName(f.Name))
		if !ok {
			return
		}
		if err := fs.Set(f.Name, val); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvName(f.Name), err))
		}
	})
	return errors.Join(errs...)
}

// Validate reports every missing or malformed value at once.
func (c *Config) Validate() error {
	var missing []string
	need := func(name, val string) {
		if val == "" {
			missing = append(missing, name)
		}
	}

	if c.AMQP.URL == "" {
		need("amqp-host", c.AMQP.Host)
		need("amqp-port", c.AMQP.Port)
		need("amqp-user", c.AMQP.User)
		need("amqp-password", c.AMQP.Password)
	}
	need("dispatch-exchange", c.Relay.DispatchExchange)
	need("queue", c.Relay.Queue)
	need("events-exchange", c.Relay.EventsExchange)

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required settings: %v", missing))
	}
	if c.Relay.Workers < 1 {
		errs = append(errs, errors.New("workers must be at least 1"))
	}
	if c.AMQP.DialAttempts < 1 {
		errs = append(errs, errors.New("amqp-dial-attempts must be at least 1"))
	}
	if c.Relay.RetryTTL < 0 || c.Relay.StoreTTL < 0 {
		errs = append(errs, errors.New("ttl settings must not be negative"))
	}
	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ConnectionURL is URL when set, otherwise it is assembled from the parts.
// The default vhost "/" is left out of the path.
func (c *AMQPConfig) ConnectionURL() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, c.Port),
	}
	if vhost := strings.TrimPrefix(c.VHost, "/"); vhost != "" {
		u.Path = "/" + vhost
	}
	return u.String()
}

func (l LogConfig) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log-level: %w", err)
	}
	return lvl, nil
}

// Logger builds the process logger described by l. Validate first.
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	lvl, _ := l.level()
	opts := &slog.HandlerOptions{Level: lvl}
	if l.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
