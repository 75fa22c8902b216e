package listing

import "github.com/goliatone/go-cms-listing/internal/runtimeconfig"

var (
	ErrStorageProviderUnknown   = runtimeconfig.ErrStorageProviderUnknown
	ErrDefaultListTypeRequired  = runtimeconfig.ErrDefaultListTypeRequired
	ErrPerPageInvalid           = runtimeconfig.ErrPerPageInvalid
	ErrMaxDepthInvalid          = runtimeconfig.ErrMaxDepthInvalid
	ErrPageVarPrefixRequired    = runtimeconfig.ErrPageVarPrefixRequired
	ErrTemplateExtensionInvalid = runtimeconfig.ErrTemplateExtensionInvalid
	ErrTemplateDirectoryInvalid = runtimeconfig.ErrTemplateDirectoryInvalid
	ErrNavigationGroupRequired  = runtimeconfig.ErrNavigationGroupRequired
	ErrLoggingProviderRequired  = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown   = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid      = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid     = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config           = runtimeconfig.Config
	StorageConfig    = runtimeconfig.StorageConfig
	CacheConfig      = runtimeconfig.CacheConfig
	ListingConfig    = runtimeconfig.ListingConfig
	TemplatesConfig  = runtimeconfig.TemplatesConfig
	NavigationConfig = runtimeconfig.NavigationConfig
	MarkdownConfig   = runtimeconfig.MarkdownConfig
	FixturesConfig   = runtimeconfig.FixturesConfig
	Features         = runtimeconfig.Features
	LoggingConfig    = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
