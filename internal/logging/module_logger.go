package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-cms-listing/pkg/interfaces"
)

const (
	rootModule      = "listing"
	elementsModule  = "listing.elements"
	recordsModule   = "listing.records"
	templatesModule = "listing.templates"
	httpModule      = "listing.http"
	fixturesModule  = "listing.fixtures"
	commandsModule  = "listing.commands"
)

const (
	fieldElementID  = "element_id"
	fieldElementKey = "element_key"
	fieldAction     = "action"
)

// ModuleLogger returns a module scoped logger. Without a provider the no-op
// logger is returned. The module name is attached as the "module" field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// ListingLogger returns the logger used by the listing element service.
func ListingLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, elementsModule)
}

// RecordsLogger returns the logger used by the record graph service.
func RecordsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, recordsModule)
}

// TemplatesLogger returns the logger used by template rendering.
func TemplatesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, templatesModule)
}

// HTTPLogger returns the logger used by the HTTP adapters.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// FixturesLogger returns the logger used when loading Markdown fixtures.
func FixturesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, fixturesModule)
}

// CommandsLogger returns the logger used by command handlers.
func CommandsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, commandsModule)
}

// WithElementContext adds element identifiers and the request action to the
// logger. Empty values are skipped.
func WithElementContext(logger interfaces.Logger, elementID, key, action string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(elementID); trimmed != "" {
		fields[fieldElementID] = trimmed
	}
	if trimmed := strings.TrimSpace(key); trimmed != "" {
		fields[fieldElementKey] = trimmed
	}
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		fields[fieldAction] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
