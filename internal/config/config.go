package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "TRIPLAY"

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Bind           string
	Port           int
	Store          string
	DatabaseURL    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	AllowedOrigins []string
	PublicURL      string
	Verbose        bool
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("--database-url is required with --store=postgres")
		}
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StorePostgres, StoreMemory)
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("invalid redis db: %d", c.RedisDB)
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// JoinURL is the link encoded in a room's QR code.
func (c *Config) JoinURL(roomID string) string {
	base := strings.TrimRight(c.PublicURL, "/")
	if base == "" {
		base = "http://" + c.Addr()
	}
	return base + "/join-room?roomId=" + roomID
}

// RegisterFlags declares every setting on fs.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&c.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: TRIPLAY_BIND)")
	fs.IntVarP(&c.Port, "port", "p", 8080, "port to listen on (env: TRIPLAY_PORT)")
	fs.StringVar(&c.Store, "store", StorePostgres, "record store, postgres or memory (env: TRIPLAY_STORE)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "postgres connection string (env: TRIPLAY_DATABASE_URL)")
	fs.StringVar(&c.RedisAddr, "redis-addr", "", "redis host:port for cross-instance notifications, empty to disable (env: TRIPLAY_REDIS_ADDR)")
	fs.StringVar(&c.RedisPassword, "redis-password", "", "redis password (env: TRIPLAY_REDIS_PASSWORD)")
	fs.IntVar(&c.RedisDB, "redis-db", 0, "redis database number (env: TRIPLAY_REDIS_DB)")
	fs.StringSliceVar(&c.AllowedOrigins, "allowed-origins", []string{"*"}, "comma-separated origins allowed for CORS and websockets (env: TRIPLAY_ALLOWED_ORIGINS)")
	fs.StringVar(&c.PublicURL, "public-url", "", "public base URL of the web client, used in join links (env: TRIPLAY_PUBLIC_URL)")
	fs.BoolVarP(&c.Verbose, "verbose", "v", false, "log every request (env: TRIPLAY_VERBOSE)")
}

// BindEnv lets TRIPLAY_* environment variables fill every flag that was not
// set on the command line.
func BindEnv(fs *pflag.FlagSet) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

// LoadDotEnv reads .env files into the environment. Missing files are fine.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}
