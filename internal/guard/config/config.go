package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix marks the environment variables read by Load.
const envPrefix = "GUARD_"

// sections are the top-level keys that nest. GUARD_SCORING_WARN_THRESHOLD
// becomes scoring.warn_threshold, while GUARD_ENV stays env.
var sections = []string{"log", "http", "reference", "blocklist", "cache", "scoring", "wallet"}

// AppConfig holds the daemon configuration.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	Log       LogConfig       `koanf:"log"`
	HTTP      HTTPConfig      `koanf:"http"`
	Reference ReferenceConfig `koanf:"reference"`
	Blocklist BlocklistConfig `koanf:"blocklist"`
	Cache     CacheConfig     `koanf:"cache"`
	Scoring   ScoringConfig   `koanf:"scoring"`
	Wallet    WalletConfig    `koanf:"wallet"`
}

type LogConfig struct {
	// Level controls log verbosity: "debug", "info", "warn", or "error".
	Level string `koanf:"level" validate:"required,oneof=debug info warn error"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr" validate:"required,listen_addr"`
}

type ReferenceConfig struct {
	// File replaces the built-in reference tables when set.
	File string `koanf:"file"`
}

type BlocklistConfig struct {
	// Dir holds extra list files; empty means built-in entries only.
	Dir string `koanf:"dir"`
	// DB is the bbolt file keeping the last loaded snapshot; empty disables it.
	DB     string  `koanf:"db"`
	FPRate float64 `koanf:"fp_rate" validate:"gt=0,lt=1"`
}

type CacheConfig struct {
	// Size is the verdict cache capacity; 0 disables caching.
	Size int `koanf:"size" validate:"gte=0"`
}

type ScoringConfig struct {
	WeightPunycode       int `koanf:"weight_punycode" validate:"gte=0"`
	WeightBrandLookalike int `koanf:"weight_brand_lookalike" validate:"gte=0"`
	WeightSuspiciousTLD  int `koanf:"weight_suspicious_tld" validate:"gte=0"`
	WeightDeepSubdomain  int `koanf:"weight_deep_subdomain" validate:"gte=0"`
	WeightIPLiteral      int `koanf:"weight_ip_literal" validate:"gte=0"`
	WeightHostKeyword    int `koanf:"weight_host_keyword" validate:"gte=0"`
	WeightPathKeyword    int `koanf:"weight_path_keyword" validate:"gte=0"`
	WeightAtSign         int `koanf:"weight_at_sign" validate:"gte=0"`

	WarnThreshold    int `koanf:"warn_threshold" validate:"gte=1"`
	BlockThreshold   int `koanf:"block_threshold" validate:"gtfield=WarnThreshold"`
	MaxBrandDistance int `koanf:"max_brand_distance" validate:"gte=1"`
}

type WalletConfig struct {
	// Upstream lists JSON-RPC endpoints; empty disables the /v1/rpc route.
	Upstream       []string `koanf:"upstream" validate:"dive,url"`
	BlockedMethods []string `koanf:"blocked_methods" validate:"dive,required"`
	TimeoutSeconds int      `koanf:"timeout_seconds" validate:"gte=1"`
}

// DEFAULT_APP_CONFIG holds the defaults applied before the environment.
var DEFAULT_APP_CONFIG = AppConfig{
	Env: "prod",
	Log: LogConfig{Level: "info"},
	HTTP: HTTPConfig{
		Addr: ":8080",
	},
	Blocklist: BlocklistConfig{
		FPRate: 0.001,
	},
	Cache: CacheConfig{Size: 4096},
	Scoring: ScoringConfig{
		WeightPunycode:       4,
		WeightBrandLookalike: 4,
		WeightSuspiciousTLD:  2,
		WeightDeepSubdomain:  1,
		WeightIPLiteral:      2,
		WeightHostKeyword:    3,
		WeightPathKeyword:    3,
		WeightAtSign:         2,
		WarnThreshold:        4,
		BlockThreshold:       8,
		MaxBrandDistance:     2,
	},
	Wallet: WalletConfig{
		BlockedMethods: []string{"eth_sign", "personal_sign"},
		TimeoutSeconds: 10,
	},
}

// validListenAddr accepts "host:port" or ":port" with a port in 0..65535.
func validListenAddr(fl validator.FieldLevel) bool {
	host, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil || port == "" {
		return false
	}
	if strings.ContainsAny(host, " /") {
		return false
	}
	_, err = strconv.ParseUint(port, 10, 16)
	return err == nil
}

// envKey maps GUARD_SCORING_WARN_THRESHOLD to scoring.warn_threshold.
func envKey(raw string) string {
	key := strings.ToLower(strings.TrimPrefix(raw, envPrefix))
	for _, s := range sections {
		if rest, ok := strings.CutPrefix(key, s+"_"); ok && rest != "" {
			return s + "." + rest
		}
	}
	return key
}

// dotenvPath is the optional file read into the environment before loading.
var dotenvPath = ".env"

// dotenvLoader reads dotenvPath without overriding variables already set.
// A missing file is not an error.
var dotenvLoader = func() error {
	err := godotenv.Load(dotenvPath)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// envLoader loads GUARD_ variables, splitting values with spaces or commas
// into lists.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = envKey(key)
			value = strings.TrimSpace(value)

			if value == "" {
				return key, value
			}

			if strings.Contains(value, " ") || strings.Contains(value, ",") {
				parts := strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
				return key, parts
			}

			return key, value
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("listen_addr", validListenAddr)
}

// Load reads .env, applies defaults then GUARD_ environment variables, and
// validates the result.
func Load() (*AppConfig, error) {
	if err := dotenvLoader(); err != nil {
		return nil, fmt.Errorf("error loading %s: %w", dotenvPath, err)
	}

	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
