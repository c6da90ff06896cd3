package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
)

// Config holds everything needed to start the server. Values come from the
// environment first and command-line flags override them.
type Config struct {
	Host        string `env:"CHESS_HOST" envDefault:"localhost"`
	Port        int    `env:"CHESS_PORT" envDefault:"8080"`
	GRPCPort    int    `env:"CHESS_GRPC_PORT" envDefault:"9090"`
	PresetDir   string `env:"PRESET_DIR" envDefault:"presets"`
	Store       string `env:"CHESS_STORE" envDefault:"memory"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisPrefix string `env:"CHESS_REDIS_PREFIX" envDefault:"chess"`
	SnapshotDir string `env:"SNAPSHOT_DIR"`
	NATSURL     string `env:"NATS_URL"`
	NATSPrefix  string `env:"NATS_SUBJECT_PREFIX" envDefault:"chess.games"`
	Debug       bool   `env:"DEBUG"`

	NgrokEnabled bool   `env:"NGROK_ENABLED"`
	NgrokAuth    string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain  string `env:"NGROK_DOMAIN"`

	ShowVersion bool
	Mode        string
}

const (
	storeMemory = "memory"
	storeRedis  = "redis"
)

// loadConfig parses the environment, then args. The first positional
// argument selects the mode.
func loadConfig(args []string, usage io.Writer) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	// NGROK_AUTH_TOKEN is accepted as well as the official spelling.
	if cfg.NgrokAuth == "" {
		cfg.NgrokAuth = os.Getenv("NGROK_AUTH_TOKEN")
	}

	fs := flag.NewFlagSet("chess-server", flag.ContinueOnError)
	fs.SetOutput(usage)
	fs.StringVar(&cfg.Host, "host", cfg.Host, "HTTP server host")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	fs.IntVar(&cfg.GRPCPort, "grpc-port", cfg.GRPCPort, "gRPC server port (0 disables gRPC)")
	fs.StringVar(&cfg.PresetDir, "preset-dir", cfg.PresetDir, "Directory containing start-position presets")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "Game store: memory or redis")
	fs.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL used when -store=redis")
	fs.StringVar(&cfg.SnapshotDir, "snapshot-dir", cfg.SnapshotDir, "Directory for game snapshots (memory store only)")
	fs.StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "NATS server URL for publishing game events (optional)")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.NgrokEnabled, "ngrok", cfg.NgrokEnabled, "Enable ngrok tunnel")
	fs.StringVar(&cfg.NgrokAuth, "ngrok-auth", cfg.NgrokAuth, "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	fs.StringVar(&cfg.NgrokDomain, "ngrok-domain", cfg.NgrokDomain, "Custom ngrok domain (optional)")
	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.Mode = "server"
	if fs.NArg() > 0 {
		cfg.Mode = fs.Arg(0)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid grpc port %d", c.GRPCPort))
	}
	if c.Store != storeMemory && c.Store != storeRedis {
		errs = append(errs, fmt.Errorf("unknown store %q (want memory or redis)", c.Store))
	}
	if c.Store == storeRedis && c.RedisURL == "" {
		errs = append(errs, errors.New("redis store needs a redis url"))
	}
	return errors.Join(errs...)
}

func (c Config) httpAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) grpcAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort)
}

func printUsage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintf(out, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
	fmt.Fprintf(out, "%s v%s\n\n", AppName, Version)
	fmt.Fprintf(out, "Available modes:\n")
	fmt.Fprintf(out, "  server, http     Run HTTP, WebSocket, MCP and gRPC endpoints (default)\n")
	fmt.Fprintf(out, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
	fmt.Fprintf(out, "  mcp-stdio        Alias for stdio-mcp\n")
	fmt.Fprintf(out, "  mcp              Alias for stdio-mcp\n")
	fmt.Fprintf(out, "\nOptions:\n")
	fs.PrintDefaults()
	fmt.Fprintf(out, "\nExamples:\n")
	fmt.Fprintf(out, "  %s                          # HTTP on 8080, gRPC on 9090\n", os.Args[0])
	fmt.Fprintf(out, "  %s -store redis             # Share games through Redis\n", os.Args[0])
	fmt.Fprintf(out, "  %s -nats-url nats://:4222   # Publish game events to NATS\n", os.Args[0])
	fmt.Fprintf(out, "  %s stdio-mcp                # Run MCP stdio server\n", os.Args[0])
}
