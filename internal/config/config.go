// Package config loads and validates the site configuration.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPermalink is the pattern applied to date-bearing collections that do
// not configure their own.
const DefaultPermalink = "/:collection/:year/:month/:day/:slug/"

// Config represents the full site configuration. It is an explicit value
// passed into every build; there is no process-wide configuration singleton,
// so concurrent builds and tests can use independent configurations.
type Config struct {
	Site        SiteConfig         `yaml:"site"`
	Source      SourceConfig       `yaml:"source"`
	Collections []CollectionConfig `yaml:"collections"`
	Permalink   string             `yaml:"permalink,omitempty"`
	Pagination  PaginationConfig   `yaml:"pagination"`
	Output      OutputConfig       `yaml:"output"`
	Build       BuildConfig        `yaml:"build"`
}

// SiteConfig carries site-wide presentation metadata.
type SiteConfig struct {
	Title       string `yaml:"title"`
	BaseURL     string `yaml:"base_url,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// SourceConfig describes where content comes from.
type SourceConfig struct {
	Root    string           `yaml:"root"`
	Exclude []string         `yaml:"exclude,omitempty"` // glob patterns on root-relative paths
	Git     *GitSourceConfig `yaml:"git,omitempty"`
}

// GitSourceConfig fetches the content root from a git repository before the
// build instead of reading a pre-existing local directory.
type GitSourceConfig struct {
	URL    string `yaml:"url"`
	Branch string `yaml:"branch,omitempty"`
	Dir    string `yaml:"dir,omitempty"` // local checkout directory, defaults to .sitegen/source
}

// CollectionConfig declares one named collection.
type CollectionConfig struct {
	Name       string         `yaml:"name"`
	Prefix     string         `yaml:"prefix"`                 // root-relative path prefix, e.g. "posts"
	Output     *bool          `yaml:"output,omitempty"`       // render members individually, default true
	SortByDate *bool          `yaml:"sort_by_date,omitempty"` // default true
	Paginate   bool           `yaml:"paginate,omitempty"`
	Permalink  string         `yaml:"permalink,omitempty"` // overrides the global pattern
	Defaults   map[string]any `yaml:"defaults,omitempty"`  // merged under each member's front matter
}

// PaginationConfig controls collection pagination.
type PaginationConfig struct {
	PageSize int `yaml:"page_size"`
}

// OutputConfig controls where and how the output tree is written.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // clean output directory before writing
}

// BuildConfig carries pipeline tuning knobs.
type BuildConfig struct {
	ParseConcurrency int    `yaml:"parse_concurrency,omitempty"` // 0 means GOMAXPROCS
	StateDB          string `yaml:"state_db,omitempty"`          // SQLite path for incremental state
}

// Load loads configuration from the specified file.
//
// A .env file alongside the process is loaded first (best effort) and
// environment variables in the YAML are expanded, so secrets and per-machine
// paths stay out of the committed configuration. Malformed configuration is a
// fatal startup error, not a pipeline error.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Note: .env file couldn't be loaded: %v\n", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes, defaults and validates configuration bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a minimal configuration suitable for `sitegen init`.
func Default() *Config {
	cfg := &Config{
		Site:   SiteConfig{Title: "My Site"},
		Source: SourceConfig{Root: "content", Exclude: []string{"drafts/*"}},
		Collections: []CollectionConfig{
			{Name: "posts", Prefix: "posts", Paginate: true},
		},
		Pagination: PaginationConfig{PageSize: 10},
		Output:     OutputConfig{Directory: "public", Clean: true},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Source.Root == "" {
		c.Source.Root = "content"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "public"
	}
	if c.Permalink == "" {
		c.Permalink = DefaultPermalink
	}
	if c.Pagination.PageSize == 0 {
		c.Pagination.PageSize = 10
	}
	if c.Source.Git != nil && c.Source.Git.Dir == "" {
		c.Source.Git.Dir = ".sitegen/source"
	}
	for i := range c.Collections {
		col := &c.Collections[i]
		col.Prefix = strings.Trim(strings.ReplaceAll(col.Prefix, "\\", "/"), "/")
		if col.Name == "" {
			col.Name = col.Prefix
		}
	}
}

// Validate checks structural invariants that would otherwise surface as
// confusing mid-build failures.
func (c *Config) Validate() error {
	if c.Pagination.PageSize < 1 {
		return fmt.Errorf("pagination.page_size must be positive, got %d", c.Pagination.PageSize)
	}
	if c.Source.Git != nil && c.Source.Git.URL == "" {
		return fmt.Errorf("source.git.url is required when source.git is set")
	}

	names := make(map[string]int, len(c.Collections))
	for i, col := range c.Collections {
		if col.Prefix == "" {
			return fmt.Errorf("collection %q: prefix is required", col.Name)
		}
		if prev, dup := names[col.Name]; dup {
			return fmt.Errorf("duplicate collection name %q (entries %d and %d)", col.Name, prev, i)
		}
		names[col.Name] = i
	}
	return nil
}

// CollectionOutput reports whether members of col render individually.
func (col *CollectionConfig) CollectionOutput() bool {
	return col.Output == nil || *col.Output
}

// DateSorted reports whether col is date-ordered.
func (col *CollectionConfig) DateSorted() bool {
	return col.SortByDate == nil || *col.SortByDate
}

// PermalinkFor returns the permalink pattern for col, falling back to the
// site-wide pattern.
func (c *Config) PermalinkFor(col *CollectionConfig) string {
	if col.Permalink != "" {
		return col.Permalink
	}
	return c.Permalink
}

// CollectionNames returns configured collection names, sorted.
func (c *Config) CollectionNames() []string {
	names := make([]string, 0, len(c.Collections))
	for _, col := range c.Collections {
		names = append(names, col.Name)
	}
	sort.Strings(names)
	return names
}

// Marshal serializes the configuration to YAML (used by `sitegen init`).
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
