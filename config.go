package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Roasbeef/btcutil"
	"github.com/jessevdk/go-flags"
)

var (
	// app settings
	defaultAppDataDir        = btcutil.AppDataDir("counter", false)
	defaultListen            = ":8180"
	defaultLogLevel          = "info"
	defaultLogDirname        = "logs"
	defaultLogFilename       = "counter.log"
	defaultMaxLogFiles       = 3
	defaultMaxLogFileSize    = 10
	defaultSnapshotFilename  = "count.txt"
	defaultSnapshotInterval  = 30 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultReadTimeout       = 10 * time.Second
	defaultWriteTimeout      = 10 * time.Second
	defaultIdleTimeout       = 60 * time.Second
	defaultShutdownTimeout   = 5 * time.Second

	// any origin may read the count unless restricted
	defaultAllowedOrigins = []string{"*"}
)

// Config holds every setting of the counter service. Each option may be
// given on the command line or through its environment variable.
type Config struct {
	Listen  string `long:"listen" env:"COUNTER_LISTEN" description:"host:port to accept HTTP connections on"`
	DataDir string `long:"datadir" env:"COUNTER_DATADIR" description:"directory for logs and the count snapshot"`

	DebugLevel     string `long:"debuglevel" env:"COUNTER_DEBUGLEVEL" description:"log level for all subsystems, or <subsystem>=<level>,... pairs"`
	MaxLogFiles    int    `long:"maxlogfiles" description:"maximum number of rotated log files to keep (0 keeps all)"`
	MaxLogFileSize int    `long:"maxlogfilesize" description:"maximum log file size in MB"`

	AllowedOrigins []string `long:"alloworigin" description:"origin allowed by CORS, may be repeated (default: *)"`

	SnapshotFile     string        `long:"snapshotfile" env:"COUNTER_SNAPSHOTFILE" description:"file the current count is written to (default: <datadir>/count.txt)"`
	SnapshotInterval time.Duration `long:"snapshotinterval" env:"COUNTER_SNAPSHOTINTERVAL" description:"how often to write the count snapshot, 0 disables it"`

	ReadHeaderTimeout time.Duration `long:"readheadertimeout" description:"time allowed to read request headers"`
	ReadTimeout       time.Duration `long:"readtimeout" description:"time allowed to read a whole request"`
	WriteTimeout      time.Duration `long:"writetimeout" description:"time allowed to write a response"`
	IdleTimeout       time.Duration `long:"idletimeout" description:"how long an idle keep-alive connection is kept open"`
	ShutdownTimeout   time.Duration `long:"shutdowntimeout" description:"how long to wait for in-flight requests on shutdown"`
}

// DefaultConfig returns a config with every option set to its default.
func DefaultConfig() *Config {
	return &Config{
		Listen:            defaultListen,
		DataDir:           defaultAppDataDir,
		DebugLevel:        defaultLogLevel,
		MaxLogFiles:       defaultMaxLogFiles,
		MaxLogFileSize:    defaultMaxLogFileSize,
		SnapshotInterval:  defaultSnapshotInterval,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ShutdownTimeout:   defaultShutdownTimeout,
	}
}

// LoadConfig parses args and the environment on top of the defaults and
// validates the result. A request for help is returned as a *flags.Error
// of type flags.ErrHelp, wrapped once.
func LoadConfig(args []string) (*Config, error) {
	cfg := DefaultConfig()

	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, fmt.Errorf("unable to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = defaultAllowedOrigins
	}
	if cfg.SnapshotFile == "" {
		cfg.SnapshotFile = filepath.Join(cfg.DataDir, defaultSnapshotFilename)
	}

	return cfg, nil
}

// LogFile is the path of the active rotated log file.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, defaultLogDirname, defaultLogFilename)
}

func (c *Config) validate() error {
	if c.Listen == "" {
		return errors.New("listen address must be set")
	}
	if c.DataDir == "" {
		return errors.New("datadir must be set")
	}
	if c.MaxLogFiles < 0 || c.MaxLogFileSize < 0 {
		return errors.New("log rotation limits must not be negative")
	}

	durations := map[string]time.Duration{
		"snapshotinterval":  c.SnapshotInterval,
		"readheadertimeout": c.ReadHeaderTimeout,
		"readtimeout":       c.ReadTimeout,
		"writetimeout":      c.WriteTimeout,
		"idletimeout":       c.IdleTimeout,
		"shutdowntimeout":   c.ShutdownTimeout,
	}
	for name, d := range durations {
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %v", name, d)
		}
	}

	return nil
}
