package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/gstoney/mcclient"
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Client  ClientConfig  `toml:"client"`
	Resolve ResolveConfig `toml:"resolve"`
	Metrics MetricsConfig `toml:"metrics"`
	Logging LoggingConfig `toml:"logging"`
}

type ServerConfig struct {
	Address string `toml:"address"` // host[:port]; the port defaults to 25565
}

type ClientConfig struct {
	Version      int32         `toml:"version"` // protocol version number
	Username     string        `toml:"username"`
	PlayerUUID   string        `toml:"player_uuid"` // empty lets the server pick
	StatusPing   bool          `toml:"status_ping"`
	MaxFrameLen  int32         `toml:"max_frame_len"`
	DialTimeout  time.Duration `toml:"dial_timeout"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

type ResolveConfig struct {
	Mode      string `toml:"mode"` // "direct", "srv" or "ec2"
	EC2Region string `toml:"ec2_region"`
	EC2TagKey string `toml:"ec2_tag_key"`
	EC2TagVal string `toml:"ec2_tag_value"`
	EC2Port   int    `toml:"ec2_port"`
}

type MetricsConfig struct {
	ListenAddress string `toml:"listen_address"` // empty disables the endpoint
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

const (
	ResolveDirect = "direct"
	ResolveSRV    = "srv"
	ResolveEC2    = "ec2"
)

// Environment variables applied over the file.
const (
	EnvAddress     = "MCCLIENT_ADDRESS"
	EnvUsername    = "MCCLIENT_USERNAME"
	EnvVersion     = "MCCLIENT_VERSION"
	EnvResolveMode = "MCCLIENT_RESOLVE_MODE"
	EnvMetricsAddr = "MCCLIENT_METRICS_ADDR"
	EnvLogLevel    = "MCCLIENT_LOG_LEVEL"
)

// Load reads the TOML file at path over the defaults. An empty path skips
// the file. envFiles are read with godotenv; missing ones are ignored.
// Variables set in the process environment win over the env files.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	env := map[string]string{}
	for _, f := range envFiles {
		vals, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read env %s: %w", f, err)
		}
		for k, v := range vals {
			env[k] = v
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := env[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAddress); ok {
		c.Server.Address = v
	}
	if v, ok := lookup(EnvUsername); ok {
		c.Client.Username = v
	}
	if v, ok := lookup(EnvVersion); ok {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvVersion, err)
		}
		c.Client.Version = int32(n)
	}
	if v, ok := lookup(EnvResolveMode); ok {
		c.Resolve.Mode = v
	}
	if v, ok := lookup(EnvMetricsAddr); ok {
		c.Metrics.ListenAddress = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.Logging.Level = v
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Client.Version <= 0 {
		return fmt.Errorf("client.version must be positive, got %d", c.Client.Version)
	}
	if _, err := c.Client.UUID(); err != nil {
		return err
	}
	switch c.Resolve.Mode {
	case ResolveDirect, ResolveSRV:
	case ResolveEC2:
		if c.Resolve.EC2TagKey == "" {
			return errors.New("resolve.ec2_tag_key is required in ec2 mode")
		}
	default:
		return fmt.Errorf("unknown resolve.mode %q", c.Resolve.Mode)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown logging.format %q", c.Logging.Format)
	}
	return nil
}

// UUID parses PlayerUUID. An empty value is uuid.Nil.
func (c ClientConfig) UUID() (uuid.UUID, error) {
	if c.PlayerUUID == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(c.PlayerUUID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("client.player_uuid: %w", err)
	}
	return id, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "localhost",
		},
		Client: ClientConfig{
			Version:      int32(mcclient.DefaultVersion),
			Username:     "mcping",
			MaxFrameLen:  mcclient.DefaultMaxFrameLen,
			DialTimeout:  mcclient.DefaultDialTimeout,
			ReadTimeout:  mcclient.DefaultReadTimeout,
			WriteTimeout: mcclient.DefaultWriteTimeout,
		},
		Resolve: ResolveConfig{
			Mode:      ResolveSRV,
			EC2TagKey: "Name",
			EC2Port:   mcclient.DefaultPort,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
