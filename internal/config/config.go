// Package config loads the service's configuration from a TOML file with
// environment overrides: decode the file first, then let the environment
// win.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/zeromicro/go-zero/rest"
)

// EnvPrefix is prepended to every environment override:
// MEDHEALTH__PORT, MEDHEALTH__DATABASE__URL, and so on. Nested fields are
// joined with a double underscore; the embedded rest.RestConf fields take
// no section segment.
const EnvPrefix = "MEDHEALTH"

// DatabaseConfig bounds the record store's connection pool.
type DatabaseConfig struct {
	URL             string `toml:"url"`
	MinConns        int    `toml:"min_conns"`
	MaxConns        int    `toml:"max_conns"`
	AcquireTimeoutS int    `toml:"acquire_timeout_seconds"`
	IdleTimeoutS    int    `toml:"idle_timeout_seconds"`
	MaxLifetimeS    int    `toml:"max_lifetime_seconds"`
}

// CacheConfig is the latest-vitals side channel's connection.
type CacheConfig struct {
	Host        string        `toml:"host"`
	Port        int           `toml:"port"`
	Password    string        `toml:"password"`
	DB          int           `toml:"db"`
	SnapshotTTL time.Duration `toml:"-"`
	TTLSeconds  int           `toml:"snapshot_ttl_seconds"`
}

// TokenConfig drives the bearer-token service.
type TokenConfig struct {
	Secret          string `toml:"secret"`
	ExpirationHours int    `toml:"expiration_hours"`
	RefreshDays     int    `toml:"refresh_days"`
}

// OriginList decodes from either a single TOML string or an array of
// strings, so both `allowed_origins = "*"` and a list are accepted.
type OriginList []string

func (o *OriginList) UnmarshalTOML(v interface{}) error {
	switch val := v.(type) {
	case string:
		*o = OriginList{val}
	case []interface{}:
		out := make(OriginList, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("allowed_origins: expected string, got %T", item)
			}
			out = append(out, s)
		}
		*o = out
	default:
		return fmt.Errorf("allowed_origins: expected string or list, got %T", v)
	}
	return nil
}

// CORSConfig carries the allowed-origins list.
type CORSConfig struct {
	AllowedOrigins OriginList `toml:"allowed_origins"`
}

// DeviceConfig is the shared-secret signing configuration for device
// request authentication.
type DeviceConfig struct {
	SharedSecret    string `toml:"shared_secret"`
	ReplayWindowSec int    `toml:"replay_window_seconds"`
}

// AnalyzerConfig mirrors the anomaly analyzer's tunable thresholds.
type AnalyzerConfig struct {
	CriticalHRLow    int     `toml:"critical_hr_low"`
	CriticalHRHigh   int     `toml:"critical_hr_high"`
	CriticalSpO2Low  int     `toml:"critical_spo2_low"`
	AnomalyThreshold float64 `toml:"anomaly_threshold"`
	EnableAlerts     bool    `toml:"enable_alerts"`
}

// FHIRConfig names the organization id stamped into exported bundles.
type FHIRConfig struct {
	BaseURL          string `toml:"base_url"`
	OrganizationID   string `toml:"organization_id"`
	DefaultPageLimit int    `toml:"default_page_limit"`
	MaxPageLimit     int    `toml:"max_page_limit"`
}

// AuditConfig controls the structured audit sink.
type AuditConfig struct {
	LogPath          string `toml:"log_path"`
	PHIEncryption    bool   `toml:"phi_encryption"`
	RevocationSweepS int    `toml:"revocation_sweep_seconds"`
}

// AuthPolicyConfig carries the configurable login lockout policy: the
// threshold at which locked_until is set and how long the lockout window
// lasts.
type AuthPolicyConfig struct {
	MinPasswordLength int `toml:"min_password_length"`
	LockoutThreshold  int `toml:"lockout_threshold"`
	LockoutMinutes    int `toml:"lockout_minutes"`
}

// Config is the complete process configuration. It embeds go-zero's
// rest.RestConf so the bind address and worker count flow straight into
// rest.MustNewServer.
type Config struct {
	rest.RestConf `toml:"-"`

	Database DatabaseConfig   `toml:"database"`
	Cache    CacheConfig      `toml:"cache"`
	Token    TokenConfig      `toml:"token"`
	CORS     CORSConfig       `toml:"cors"`
	Device   DeviceConfig     `toml:"device"`
	Analyzer AnalyzerConfig   `toml:"analyzer"`
	FHIR     FHIRConfig       `toml:"fhir"`
	Audit    AuditConfig      `toml:"audit"`
	Auth     AuthPolicyConfig `toml:"auth"`
}

// restConfShadow exists only so the embedded RestConf can be decoded from
// TOML under a [server] table without exporting go-zero's own struct tags.
type restConfShadow struct {
	Server struct {
		Name         string `toml:"name"`
		Host         string `toml:"host"`
		Port         int    `toml:"port"`
		Mode         string `toml:"mode"`
		CpuThreshold int64  `toml:"cpu_threshold"`
	} `toml:"server"`
	Database DatabaseConfig   `toml:"database"`
	Cache    CacheConfig      `toml:"cache"`
	Token    TokenConfig      `toml:"token"`
	CORS     CORSConfig       `toml:"cors"`
	Device   DeviceConfig     `toml:"device"`
	Analyzer AnalyzerConfig   `toml:"analyzer"`
	FHIR     FHIRConfig       `toml:"fhir"`
	Audit    AuditConfig      `toml:"audit"`
	Auth     AuthPolicyConfig `toml:"auth"`
}

// Load decodes path as TOML and then overlays any MEDHEALTH__-prefixed
// environment variables.
func Load(path string) (Config, error) {
	var shadow restConfShadow
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &shadow); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("stat config %s: %w", path, err)
	}

	cfg := Config{
		Database: shadow.Database,
		Cache:    shadow.Cache,
		Token:    shadow.Token,
		CORS:     shadow.CORS,
		Device:   shadow.Device,
		Analyzer: shadow.Analyzer,
		FHIR:     shadow.FHIR,
		Audit:    shadow.Audit,
		Auth:     shadow.Auth,
	}
	cfg.Name = shadow.Server.Name
	cfg.Host = shadow.Server.Host
	cfg.Port = shadow.Server.Port
	cfg.Mode = shadow.Server.Mode
	cfg.CpuThreshold = shadow.Server.CpuThreshold

	applyDefaults(&cfg)

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Cache.SnapshotTTL = time.Duration(cfg.Cache.TTLSeconds) * time.Second
	return cfg, nil
}

func applyDefaults(c *Config) {
	if c.Name == "" {
		c.Name = "vitalcore"
	}
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8888
	}
	if c.Mode == "" {
		c.Mode = "pro"
	}
	if c.Cache.Host == "" {
		c.Cache.Host = "127.0.0.1"
	}
	if c.Cache.Port == 0 {
		c.Cache.Port = 6379
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 86400
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 20
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = 2
	}
	if c.Database.AcquireTimeoutS == 0 {
		c.Database.AcquireTimeoutS = 10
	}
	if c.Database.IdleTimeoutS == 0 {
		c.Database.IdleTimeoutS = 600
	}
	if c.Database.MaxLifetimeS == 0 {
		c.Database.MaxLifetimeS = 1800
	}
	if c.Token.ExpirationHours == 0 {
		c.Token.ExpirationHours = 24
	}
	if c.Token.RefreshDays == 0 {
		c.Token.RefreshDays = 30
	}
	if c.Device.ReplayWindowSec == 0 {
		c.Device.ReplayWindowSec = 60
	}
	if c.Analyzer.CriticalHRLow == 0 {
		c.Analyzer.CriticalHRLow = 50
	}
	if c.Analyzer.CriticalHRHigh == 0 {
		c.Analyzer.CriticalHRHigh = 120
	}
	if c.Analyzer.CriticalSpO2Low == 0 {
		c.Analyzer.CriticalSpO2Low = 90
	}
	if c.Analyzer.AnomalyThreshold == 0 {
		c.Analyzer.AnomalyThreshold = 0.3
	}
	if c.FHIR.DefaultPageLimit == 0 {
		c.FHIR.DefaultPageLimit = 100
	}
	if c.FHIR.MaxPageLimit == 0 {
		c.FHIR.MaxPageLimit = 1000
	}
	if c.Audit.RevocationSweepS == 0 {
		c.Audit.RevocationSweepS = 300
	}
	if c.Auth.MinPasswordLength == 0 {
		c.Auth.MinPasswordLength = 8
	}
	if c.Auth.LockoutThreshold == 0 {
		c.Auth.LockoutThreshold = 5
	}
	if c.Auth.LockoutMinutes == 0 {
		c.Auth.LockoutMinutes = 15
	}
}

// applyEnvOverrides walks the config struct and, for every leaf field,
// checks whether MEDHEALTH__<PATH> is set in the environment; if so, it
// parses the value into the field's type and overwrites it.
func applyEnvOverrides(c *Config) error {
	v := reflect.ValueOf(c).Elem()
	return walkFields(v, []string{EnvPrefix})
}

func walkFields(v reflect.Value, path []string) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		fv := v.Field(i)
		name := strings.ToUpper(field.Name)

		if field.Anonymous {
			// rest.RestConf itself; its leaf fields are addressed without
			// an extra path segment (MEDHEALTH__HOST, MEDHEALTH__PORT).
			if fv.Kind() == reflect.Struct {
				if err := walkFields(fv, path); err != nil {
					return err
				}
				continue
			}
		}

		switch fv.Kind() {
		case reflect.Struct:
			if err := walkFields(fv, append(path, name)); err != nil {
				return err
			}
		case reflect.Slice:
			if fv.Type().Elem().Kind() != reflect.String {
				continue
			}
			key := strings.Join(append(path, name), "__")
			if raw, ok := os.LookupEnv(key); ok {
				parts := strings.Split(raw, ",")
				out := make([]string, 0, len(parts))
				for _, p := range parts {
					p = strings.TrimSpace(p)
					if p != "" {
						out = append(out, p)
					}
				}
				fv.Set(reflect.ValueOf(out).Convert(fv.Type()))
			}
		default:
			key := strings.Join(append(path, name), "__")
			raw, ok := os.LookupEnv(key)
			if !ok {
				continue
			}
			if err := setScalar(fv, raw); err != nil {
				return fmt.Errorf("env override %s: %w", key, err)
			}
		}
	}
	return nil
}

func setScalar(fv reflect.Value, raw string) error {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	}
	return nil
}
