package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/netip"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abczzz13/ipfilter"
)

// EnvPrefix is prepended to every environment variable read by FromEnv.
const EnvPrefix = "IPFILTER_"

// Config is the declarative form of a filter configuration.
type Config struct {
	// Mode is "allow" or "deny" ("whitelist" and "blacklist" are accepted).
	Mode string `yaml:"mode" env:"MODE" envDefault:"deny"`
	// Match is "exact", "cidr" or "range".
	Match        string      `yaml:"match" env:"MATCH" envDefault:"exact"`
	AllowPrivate bool        `yaml:"allowPrivate" env:"ALLOW_PRIVATE"`
	Rules        []RuleValue `yaml:"rules" env:"RULES"`
	// RulesFile names a YAML document whose rules list is appended to Rules.
	RulesFile string `yaml:"rulesFile" env:"RULES_FILE"`

	Source         string   `yaml:"source" env:"SOURCE" envDefault:"x_forwarded_for"`
	TrustedProxies []string `yaml:"trustedProxies" env:"TRUSTED_PROXIES"`
	MaxChainLength int      `yaml:"maxChainLength" env:"MAX_CHAIN_LENGTH" envDefault:"100"`

	DenyStatus  int    `yaml:"denyStatus" env:"DENY_STATUS" envDefault:"401"`
	DenyMessage string `yaml:"denyMessage" env:"DENY_MESSAGE" envDefault:"Unauthorized"`

	// Log enables grant and deny logging through slog.Default().
	Log        bool `yaml:"log" env:"LOG"`
	LogGranted bool `yaml:"logGranted" env:"LOG_GRANTED" envDefault:"true"`
}

// Default returns the configuration used when nothing is set: deny mode,
// exact matching, no rules.
func Default() *Config {
	return &Config{
		Mode:           ipfilter.ModeDeny.String(),
		Match:          ipfilter.MatchExact.String(),
		Source:         ipfilter.SourceXForwardedFor,
		MaxChainLength: ipfilter.DefaultMaxChainLength,
		DenyStatus:     ipfilter.DefaultDenyStatus,
		DenyMessage:    ipfilter.DefaultDenyMessage,
		LogGranted:     true,
	}
}

// FromEnv loads the configuration from IPFILTER_* environment variables.
//
// The given dotenv files are loaded first; without arguments a ".env" file in
// the working directory is loaded when present. Variables already set in the
// environment take precedence over dotenv values.
func FromEnv(dotenvFiles ...string) (*Config, error) {
	if err := loadDotEnv(dotenvFiles...); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.loadRulesFile(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDotEnv(files ...string) error {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return fmt.Errorf("load dotenv: %w", err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load dotenv: %w", err)
	}
	return nil
}

// ReadFile loads a YAML configuration document. Keys missing from the
// document keep their Default values.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes a YAML configuration document on top of Default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	if err := cfg.loadRulesFile(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadRulesFile() error {
	if c.RulesFile == "" {
		return nil
	}

	data, err := os.ReadFile(c.RulesFile)
	if err != nil {
		return fmt.Errorf("read rules file: %w", err)
	}

	var doc struct {
		Rules []RuleValue `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse rules file %s: %w", c.RulesFile, err)
	}

	c.Rules = append(c.Rules, doc.Rules...)
	c.RulesFile = ""
	return nil
}

// Entries returns the rules as filter entries.
func (c *Config) Entries() []ipfilter.Entry {
	entries := make([]ipfilter.Entry, 0, len(c.Rules))
	for _, rule := range c.Rules {
		entries = append(entries, rule.Entry())
	}
	return entries
}

// Options translates c into filter options. Rule entries are not compiled
// here; New reports malformed entries as ErrInvalidRule.
func (c *Config) Options() ([]ipfilter.Option, error) {
	mode, err := ipfilter.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}

	kind, err := ipfilter.ParseMatchKind(c.Match)
	if err != nil {
		return nil, err
	}

	opts := []ipfilter.Option{
		ipfilter.WithMode(mode),
		ipfilter.WithMatchKind(kind),
		ipfilter.WithEntries(c.Entries()...),
		ipfilter.AllowPrivate(c.AllowPrivate),
		ipfilter.WithDenyResponse(c.DenyStatus, c.DenyMessage),
		ipfilter.LogGranted(c.LogGranted),
	}

	if source := strings.TrimSpace(c.Source); source != "" {
		opts = append(opts, ipfilter.WithSource(source))
	}
	if c.MaxChainLength != 0 {
		opts = append(opts, ipfilter.MaxChainLength(c.MaxChainLength))
	}

	if len(c.TrustedProxies) > 0 {
		prefixes, err := parseTrustedProxies(c.TrustedProxies)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ipfilter.TrustProxyPrefixes(prefixes...))
	}

	if c.Log {
		opts = append(opts, ipfilter.WithLogger(slog.Default()))
	}

	return opts, nil
}

// NewFilter builds a filter from c. extra options are applied after the
// ones derived from c, so they take precedence.
func (c *Config) NewFilter(extra ...ipfilter.Option) (*ipfilter.Filter, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return ipfilter.New(append(opts, extra...)...)
}

// parseTrustedProxies accepts CIDR blocks and bare addresses.
func parseTrustedProxies(values []string) ([]netip.Prefix, error) {
	cidrs := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if !strings.Contains(v, "/") {
			if strings.Contains(v, ":") {
				v += "/128"
			} else {
				v += "/32"
			}
		}
		cidrs = append(cidrs, v)
	}

	prefixes, err := ipfilter.ParseCIDRs(cidrs...)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	return prefixes, nil
}
