package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const defaultPath = "."

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port     int `json:"port" yaml:"port"`
		Timeouts struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Mongo *MongoConfig `json:"mongo" yaml:"mongo"`

	SecretKey struct {
		Token string `json:"token" yaml:"token"`
	} `json:"secretKey" yaml:"secretKey"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	Verification *VerificationConfig `json:"verification" yaml:"verification"`

	Mail *MailConfig `json:"mail" yaml:"mail"`

	Cleanup *CleanupConfig `json:"cleanup" yaml:"cleanup"`
}

// MongoConfig defines the document store connection.
type MongoConfig struct {
	URI      string `json:"uri" yaml:"uri"`
	Database string `json:"database" yaml:"database"`
}

// AuthConfig defines authentication and session tunables. These are injected
// into the session manager and client-credentials service at construction so
// tests can override them per instance, never through global state.
type AuthConfig struct {
	BcryptCost           int           `json:"bcryptCost" yaml:"bcryptCost"`
	MaxActiveSessions    int           `json:"maxActiveSessions" yaml:"maxActiveSessions"`
	SessionTTL           time.Duration `json:"sessionTTL" yaml:"sessionTTL"`
	LongSessionTTL       time.Duration `json:"longSessionTTL" yaml:"longSessionTTL"`
	EnforceDeviceBinding bool          `json:"enforceDeviceBinding" yaml:"enforceDeviceBinding"`
}

// DefaultAuthConfig returns the process-wide defaults applied at startup.
func DefaultAuthConfig() *AuthConfig {
	return &AuthConfig{
		BcryptCost:           12,
		MaxActiveSessions:    10,
		SessionTTL:           4 * time.Hour,
		LongSessionTTL:       90 * 24 * time.Hour,
		EnforceDeviceBinding: true,
	}
}

// VerificationConfig defines the email verification code tunables.
type VerificationConfig struct {
	CodeTTL      time.Duration `json:"codeTTL" yaml:"codeTTL"`
	ResendWindow time.Duration `json:"resendWindow" yaml:"resendWindow"`
	MaxAttempts  int           `json:"maxAttempts" yaml:"maxAttempts"`
}

// DefaultVerificationConfig returns the process-wide defaults applied at startup.
func DefaultVerificationConfig() *VerificationConfig {
	return &VerificationConfig{
		CodeTTL:      15 * time.Minute,
		ResendWindow: time.Minute,
		MaxAttempts:  3,
	}
}

// MailConfig selects and configures the verification mailer.
type MailConfig struct {
	// Provider is "smtp" or "log" (development).
	Provider string `json:"provider" yaml:"provider"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	From     string `json:"from" yaml:"from"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// CleanupConfig drives the background sweeper.
type CleanupConfig struct {
	// Schedule is a cron expression; empty disables the sweeper.
	Schedule string `json:"schedule" yaml:"schedule"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: MONGO_URI -> mongo.uri, SECRETKEY_TOKEN -> secretKey.token
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills in the auth/verification tunables left out of the file.
func applyDefaults(cfg *Config) {
	if cfg.Auth == nil {
		cfg.Auth = DefaultAuthConfig()
	}
	defaults := DefaultAuthConfig()
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = defaults.BcryptCost
	}
	if cfg.Auth.MaxActiveSessions == 0 {
		cfg.Auth.MaxActiveSessions = defaults.MaxActiveSessions
	}
	if cfg.Auth.SessionTTL == 0 {
		cfg.Auth.SessionTTL = defaults.SessionTTL
	}
	if cfg.Auth.LongSessionTTL == 0 {
		cfg.Auth.LongSessionTTL = defaults.LongSessionTTL
	}

	if cfg.Verification == nil {
		cfg.Verification = DefaultVerificationConfig()
	}
	verificationDefaults := DefaultVerificationConfig()
	if cfg.Verification.CodeTTL == 0 {
		cfg.Verification.CodeTTL = verificationDefaults.CodeTTL
	}
	if cfg.Verification.ResendWindow == 0 {
		cfg.Verification.ResendWindow = verificationDefaults.ResendWindow
	}
	if cfg.Verification.MaxAttempts == 0 {
		cfg.Verification.MaxAttempts = verificationDefaults.MaxAttempts
	}
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
