package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	HashBcrypt   = "bcrypt"
	HashArgon2id = "argon2id"

	defaultBcryptCost  = 12
	defaultArgon2Time  = 3
	maxArgon2Time      = 10
	defaultTokenTTL    = 24 * time.Hour
	defaultServerPort  = "8080"
	defaultStorageKind = StoragePostgres
)

type Config struct {
	ServerPort    string        `koanf:"server_port"`
	DBHost        string        `koanf:"db_host"`
	DBPort        string        `koanf:"db_port"`
	DBUser        string        `koanf:"db_user"`
	DBPassword    string        `koanf:"db_password"`
	DBName        string        `koanf:"db_name"`
	JWTSecret     string        `koanf:"jwt_secret"`
	TokenTTL      time.Duration `koanf:"token_ttl"`
	HashAlgorithm string        `koanf:"hash_algorithm"`
	HashCost      int           `koanf:"hash_cost"`
	Storage       string        `koanf:"storage"`
	LogFormat     string        `koanf:"log_format"`
	CORSOrigins   []string      `koanf:"cors_origins"`
}

// Load builds the configuration in three layers: environment variables (with
// built-in defaults), then the YAML file at path if one is given, then any
// flag the user set explicitly. flags may be nil. The result is not
// validated; commands that serve traffic call Validate.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
	}

	if cfg.HashCost == 0 {
		cfg.HashCost = defaultCost(cfg.HashAlgorithm)
	}

	return cfg, nil
}

// RegisterFlags adds a flag for every key. Dashes in flag names map to
// underscores in keys.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("server-port", defaultServerPort, "HTTP listen port")
	fs.String("db-host", "localhost", "database host")
	fs.String("db-port", "5432", "database port")
	fs.String("db-user", "messagely", "database user")
	fs.String("db-password", "", "database password")
	fs.String("db-name", "messagely", "database name")
	fs.String("jwt-secret", "", "token signing secret")
	fs.Duration("token-ttl", defaultTokenTTL, "token lifetime, 0 disables expiry")
	fs.String("hash-algorithm", HashBcrypt, "password hash algorithm (bcrypt, argon2id)")
	fs.Int("hash-cost", 0, "hash cost factor, 0 for the algorithm default")
	fs.String("storage", defaultStorageKind, "storage backend (postgres, memory)")
	fs.String("log-format", "json", "log format (json, text)")
	fs.StringSlice("cors-origins", []string{"*"}, "allowed CORS origins")
}

func (c *Config) Validate() error {
	invalid := oops.Code("CONFIG_INVALID")

	if c.JWTSecret == "" {
		return invalid.Errorf("jwt_secret is required")
	}
	if c.TokenTTL < 0 {
		return invalid.With("token_ttl", c.TokenTTL).Errorf("token_ttl cannot be negative")
	}

	switch c.Storage {
	case StorageMemory, StoragePostgres:
	default:
		return invalid.With("storage", c.Storage).Errorf("unknown storage backend %q", c.Storage)
	}

	switch c.HashAlgorithm {
	case HashBcrypt:
		if c.HashCost < bcrypt.MinCost || c.HashCost > bcrypt.MaxCost {
			return invalid.With("hash_cost", c.HashCost).
				Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
		}
	case HashArgon2id:
		if c.HashCost < 1 || c.HashCost > maxArgon2Time {
			return invalid.With("hash_cost", c.HashCost).
				Errorf("argon2id time cost must be between 1 and %d", maxArgon2Time)
		}
	default:
		return invalid.With("hash_algorithm", c.HashAlgorithm).
			Errorf("unknown hash algorithm %q", c.HashAlgorithm)
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return invalid.With("log_format", c.LogFormat).Errorf("unknown log format %q", c.LogFormat)
	}

	return nil
}

func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		ServerPort:    getEnv("SERVER_PORT", defaultServerPort),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "messagely"),
		DBPassword:    getEnv("DB_PASSWORD", "messagely_dev_password"),
		DBName:        getEnv("DB_NAME", "messagely"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		TokenTTL:      defaultTokenTTL,
		HashAlgorithm: getEnv("HASH_ALGORITHM", HashBcrypt),
		Storage:       getEnv("STORAGE", defaultStorageKind),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "*")),
	}

	if raw, ok := os.LookupEnv("TOKEN_TTL"); ok {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("TOKEN_TTL", raw).Wrap(err)
		}
		cfg.TokenTTL = ttl
	}

	if raw, ok := os.LookupEnv("HASH_COST"); ok {
		cost, err := strconv.Atoi(raw)
		if err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("HASH_COST", raw).Wrap(err)
		}
		cfg.HashCost = cost
	}

	return cfg, nil
}

func defaultCost(algorithm string) int {
	if algorithm == HashArgon2id {
		return defaultArgon2Time
	}
	return defaultBcryptCost
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}
