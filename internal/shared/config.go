package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config represents the application configuration loaded from a TOML file.
//
// It is built once in main and handed to constructors; components never read the environment themselves.
type Config struct {
	Notion     NotionConfig     `toml:"notion"`
	Generation GenerationConfig `toml:"generation"`
	Lectionary LectionaryConfig `toml:"lectionary"`
	Scripture  ScriptureConfig  `toml:"scripture"`
	Hymnary    HymnaryConfig    `toml:"hymnary"`
	Storage    StorageConfig    `toml:"storage"`
	Planning   PlanningConfig   `toml:"planning"`
}

// NotionConfig holds the API key and database ids for the hymn catalog and the optional archive and usage logs.
type NotionConfig struct {
	APIKey            string         `toml:"api_key"`
	HymnsDatabaseID   string         `toml:"hymns_database_id"`
	ArchiveDatabaseID string         `toml:"archive_database_id"`
	UsageDatabaseID   string         `toml:"usage_database_id"`
	RequestsPerSecond float64        `toml:"requests_per_second"`
	HymnProperties    HymnProperties `toml:"hymn_properties"`
}

// HymnProperties names the Notion properties that hold each hymn field.
type HymnProperties struct {
	Title     string `toml:"title"`
	Number    string `toml:"number"`
	Scripture string `toml:"scripture"`
	Tags      string `toml:"tags"`
	Link      string `toml:"link"`
}

// GenerationConfig selects and configures the liturgy drafting provider.
type GenerationConfig struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	BaseURL        string `toml:"base_url"`
	MaxTokens      int    `toml:"max_tokens"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LectionaryConfig points at the Revised Common Lectionary calendar export.
type LectionaryConfig struct {
	BaseURL        string `toml:"base_url"`
	UserAgent      string `toml:"user_agent"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ScriptureConfig configures the passage text API.
type ScriptureConfig struct {
	BaseURL     string `toml:"base_url"`
	Translation string `toml:"translation"`
}

// HymnaryConfig configures hymnary.org link and audio construction.
type HymnaryConfig struct {
	BaseURL    string `toml:"base_url"`
	Hymnal     string `toml:"hymnal"`
	AudioCDNID string `toml:"audio_cdn_id"`
}

// StorageConfig selects the local backend used when no Notion database id is configured.
type StorageConfig struct {
	Backend      string `toml:"backend"`
	DataDir      string `toml:"data_dir"`
	DatabasePath string `toml:"database_path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// PlanningConfig holds defaults for suggestion and drafting.
type PlanningConfig struct {
	ExclusionWeeks  int      `toml:"exclusion_weeks"`
	SuggestionLimit int      `toml:"suggestion_limit"`
	Sections        []string `toml:"sections"`
}

// LoadConfig reads a TOML configuration file from the specified path on top of [DefaultConfig].
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// SaveConfig encodes the config as TOML and writes it to path, creating parent directories.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides secrets and database ids from the environment.
//
// lookup is usually [os.LookupEnv]. Empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set(&c.Notion.APIKey, "NOTION_API_KEY")
	set(&c.Notion.HymnsDatabaseID, "NOTION_DATABASE_ID")
	set(&c.Notion.ArchiveDatabaseID, "NOTION_ARCHIVE_DATABASE_ID")
	set(&c.Notion.UsageDatabaseID, "NOTION_USAGE_DATABASE_ID")

	switch c.Generation.Provider {
	case ProviderGemini:
		set(&c.Generation.APIKey, "GEMINI_API_KEY")
		set(&c.Generation.Model, "GEMINI_MODEL")
	default:
		set(&c.Generation.APIKey, "OPENAI_API_KEY")
		set(&c.Generation.Model, "OPENAI_MODEL")
	}
}

// Validate reports the first setting that no component could run with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}

	switch c.Generation.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("%w: unknown generation provider %q", ErrInvalidConfig, c.Generation.Provider)
	}

	if c.Planning.ExclusionWeeks < 0 {
		return fmt.Errorf("%w: exclusion_weeks must not be negative", ErrInvalidConfig)
	}
	if c.Planning.SuggestionLimit < 0 {
		return fmt.Errorf("%w: suggestion_limit must not be negative", ErrInvalidConfig)
	}
	if c.Notion.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: requests_per_second must be positive", ErrInvalidConfig)
	}
	return nil
}

// UsesNotionArchive reports whether archived services are stored in Notion.
func (c *Config) UsesNotionArchive() bool {
	return c.Notion.APIKey != "" && c.Notion.ArchiveDatabaseID != ""
}

// UsesNotionUsage reports whether the hymn usage log is stored in Notion.
func (c *Config) UsesNotionUsage() bool {
	return c.Notion.APIKey != "" && c.Notion.UsageDatabaseID != ""
}

// GenerationTimeout returns the drafting request timeout.
func (c *Config) GenerationTimeout() time.Duration {
	return seconds(c.Generation.TimeoutSeconds, 120)
}

// LectionaryTimeout returns the lectionary download timeout.
func (c *Config) LectionaryTimeout() time.Duration {
	return seconds(c.Lectionary.TimeoutSeconds, 30)
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}
