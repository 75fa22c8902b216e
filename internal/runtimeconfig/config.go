package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	urlkit "github.com/goliatone/go-urlkit"
)

var (
	ErrStorageProviderUnknown   = errors.New("listing config: storage provider is invalid")
	ErrDefaultListTypeRequired  = errors.New("listing config: default list type is required")
	ErrPerPageInvalid           = errors.New("listing config: default per page must be zero or positive")
	ErrMaxDepthInvalid          = errors.New("listing config: max depth must be at least 1")
	ErrPageVarPrefixRequired    = errors.New("listing config: page var prefix is required")
	ErrTemplateExtensionInvalid = errors.New("listing config: template extension must start with a dot")
	ErrTemplateDirectoryInvalid = errors.New("listing config: template directory must be relative")
	ErrNavigationGroupRequired  = errors.New("listing config: navigation default group is required when routes are configured")
	ErrLoggingProviderRequired  = errors.New("listing config: logging provider is required when logging feature is enabled")
	ErrLoggingProviderUnknown   = errors.New("listing config: logging provider is invalid")
	ErrLoggingLevelInvalid      = errors.New("listing config: logging level is invalid")
	ErrLoggingFormatInvalid     = errors.New("listing config: logging format is invalid")
)

// DefaultListingTemplate is applied to new elements without a template.
const DefaultListingTemplate = "{% for item in Items %}\n\t<p>{{ item.Title }}</p>\n{% endfor %}"

// DefaultSamplePagination is shown read-only next to the editable templates.
const DefaultSamplePagination = `{% if Pagination.MoreThanOnePage %}
	<ul>
		{% if Pagination.NotFirstPage %}
			<li><a class="prev" href="{{ Pagination.PrevLink }}">Previous</a></li>
		{% endif %}
		{% for page in Pagination.Summary %}
			<li>
				{% if page.CurrentBool %}
					<span>{{ page.PageNum }}</span>
				{% else %}
					{% if page.Link %}<a href="{{ page.Link }}">{{ page.PageNum }}</a>{% else %}<span>...</span>{% endif %}
				{% endif %}
			</li>
		{% endfor %}
		{% if Pagination.NotLastPage %}
			<li><a class="next" href="{{ Pagination.NextLink }}">Next</a></li>
		{% endif %}
	</ul>
{% endif %}`

// Config aggregates feature flags and adapter settings for the listing module.
type Config struct {
	Storage    StorageConfig
	Cache      CacheConfig
	Listing    ListingConfig
	Templates  TemplatesConfig
	Navigation NavigationConfig
	Markdown   MarkdownConfig
	Fixtures   FixturesConfig
	Features   Features
	Logging    LoggingConfig
}

// StorageConfig selects the repository backend. "bun" requires a *bun.DB option.
type StorageConfig struct {
	Provider string
}

// CacheConfig controls go-repository-cache wrapping of bun repositories.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// ListingConfig holds element defaults.
type ListingConfig struct {
	DefaultListType string
	DefaultPerPage  int
	DefaultTemplate string
	MaxDepth        int
	// TypeSourceMap maps a listed type onto the type its source tree is made of.
	TypeSourceMap map[string]string
	PageVarPrefix string
}

// TemplatesConfig controls editable and file based templates.
type TemplatesConfig struct {
	// FileSources are directories, each holding templates/<Directory>/*<Extension>.
	FileSources          []string
	Directory            string
	Extension            string
	CMSTemplatesDisabled bool
	SamplePagination     string
}

// NavigationConfig configures go-urlkit based record links.
type NavigationConfig struct {
	RouteConfig  *urlkit.Config
	DefaultGroup string
	RecordRoute  string
	SlugParam    string
	TypeParam    string
	// TypeRoutes overrides RecordRoute per record type.
	TypeRoutes map[string]string
}

// MarkdownConfig mirrors interfaces.ParseOptions for the markdown filter.
type MarkdownConfig struct {
	Extensions []string
	SafeMode   bool
	HardWraps  bool
}

// FixturesConfig controls Markdown fixture discovery.
type FixturesConfig struct {
	Dir       string
	Pattern   string
	Recursive bool
}

// Features toggles optional behaviour.
type Features struct {
	Drilldown       bool
	ComponentFilter bool
	Logger          bool
	// Preview lets public requests pass ?preview=1 to include drafts.
	Preview bool
}

// LoggingConfig captures provider specific logging options.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns the defaults used when hosts do not override them.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Provider: "memory",
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: time.Minute,
		},
		Listing: ListingConfig{
			DefaultListType: "Page",
			DefaultPerPage:  10,
			DefaultTemplate: DefaultListingTemplate,
			MaxDepth:        5,
			TypeSourceMap:   map[string]string{},
			PageVarPrefix:   "page",
		},
		Templates: TemplatesConfig{
			Directory:        "listing",
			Extension:        ".html",
			SamplePagination: DefaultSamplePagination,
		},
		Navigation: NavigationConfig{
			RecordRoute: "record",
			SlugParam:   "slug",
		},
		Fixtures: FixturesConfig{
			Pattern:   "*.md",
			Recursive: true,
		},
		Features: Features{
			Drilldown:       true,
			ComponentFilter: true,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs consistency checks.
func (cfg Config) Validate() error {
	switch normalize(cfg.Storage.Provider) {
	case "", "memory", "bun":
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, cfg.Storage.Provider)
	}
	if strings.TrimSpace(cfg.Listing.DefaultListType) == "" {
		return ErrDefaultListTypeRequired
	}
	if cfg.Listing.DefaultPerPage < 0 {
		return ErrPerPageInvalid
	}
	if cfg.Listing.MaxDepth < 1 {
		return ErrMaxDepthInvalid
	}
	if strings.TrimSpace(cfg.Listing.PageVarPrefix) == "" {
		return ErrPageVarPrefixRequired
	}
	if ext := strings.TrimSpace(cfg.Templates.Extension); ext != "" && !strings.HasPrefix(ext, ".") {
		return fmt.Errorf("%w: %s", ErrTemplateExtensionInvalid, ext)
	}
	if dir := strings.TrimSpace(cfg.Templates.Directory); strings.HasPrefix(dir, "/") || strings.Contains(dir, "..") {
		return fmt.Errorf("%w: %s", ErrTemplateDirectoryInvalid, dir)
	}
	if cfg.Navigation.RouteConfig != nil && strings.TrimSpace(cfg.Navigation.DefaultGroup) == "" {
		return ErrNavigationGroupRequired
	}
	if cfg.Features.Logger {
		provider := normalize(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if provider != "console" && provider != "gologger" {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch normalize(format) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
