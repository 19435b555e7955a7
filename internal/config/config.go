package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minSecretLen = 32

var (
	ErrMissingSecret = errors.New("JWT_SECRET is not set in environment")
	ErrWeakSecret    = fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLen)
	ErrMissingDSN    = errors.New("MYSQL_DSN is not set in environment")
)

type Config struct {
	JWTSecret  []byte
	Production bool
	ListenAddr string

	MySQLDSN string

	RedisAddr     string
	RedisPassword string

	LoginMaxAttempts int
	LoginWindow      time.Duration

	TrustedProxies []netip.Prefix
}

// Load reads the dotenv file named by START (or .env when present) into the
// process environment and builds the Config from it.
func Load() (*Config, error) {
	if file := os.Getenv("START"); file != "" {
		if err := godotenv.Load(file); err != nil {
			return nil, fmt.Errorf("env file %s: %w", file, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("env file .env: %w", err)
	}

	return FromEnv(os.Getenv)
}

// FromEnv builds and validates a Config. There is no fallback secret:
// a missing or short JWT_SECRET is a startup error.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Production:       strings.EqualFold(getenv("APP_ENV"), "production"),
		ListenAddr:       getenv("LISTEN_ADDR"),
		MySQLDSN:         getenv("MYSQL_DSN"),
		RedisAddr:        getenv("REDIS_ADDR"),
		RedisPassword:    getenv("REDIS_PASSWORD"),
		LoginMaxAttempts: 5,
		LoginWindow:      15 * time.Minute,
	}

	secret := getenv("JWT_SECRET")
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if len(secret) < minSecretLen {
		return nil, ErrWeakSecret
	}
	cfg.JWTSecret = []byte(secret)

	if cfg.MySQLDSN == "" {
		return nil, ErrMissingDSN
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8082"
	}

	if v := getenv("LOGIN_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("LOGIN_MAX_ATTEMPTS: invalid value %q", v)
		}
		cfg.LoginMaxAttempts = n
	}

	if v := getenv("LOGIN_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("LOGIN_WINDOW: invalid value %q", v)
		}
		cfg.LoginWindow = d
	}

	proxies, err := ParseTrustedProxies(getenv("TRUSTED_PROXIES"))
	if err != nil {
		return nil, err
	}
	cfg.TrustedProxies = proxies

	return cfg, nil
}

// ParseTrustedProxies reads a comma separated list of CIDRs or bare
// addresses. A bare address is a single-host prefix.
func ParseTrustedProxies(v string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid value %q", item)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid value %q", item)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
