package markdown

import (
	"bytes"
	"fmt"
	"maps"

	"github.com/adrg/frontmatter"
)

// FrontMatter is the metadata block of a record document. Keys without a
// dedicated field land in Custom.
type FrontMatter struct {
	Type   string
	Title  string
	Slug   string
	Parent string
	Sort   int
	Status string
	Draft  bool
	Custom map[string]any
}

// Document is a parsed Markdown file.
type Document struct {
	Path        string
	FrontMatter FrontMatter
	Body        []byte
	Checksum    []byte
}

// ParseFrontMatter splits source into metadata and Markdown body.
func ParseFrontMatter(source []byte) (FrontMatter, []byte, error) {
	var meta frontMatterEnvelope

	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	custom := maps.Clone(meta.Custom)
	if custom == nil {
		custom = map[string]any{}
	}
	return FrontMatter{
		Type:   meta.Type,
		Title:  meta.Title,
		Slug:   meta.Slug,
		Parent: meta.Parent,
		Sort:   meta.Sort,
		Status: meta.Status,
		Draft:  meta.Draft,
		Custom: custom,
	}, body, nil
}

type frontMatterEnvelope struct {
	Type   string         `yaml:"type"`
	Title  string         `yaml:"title"`
	Slug   string         `yaml:"slug"`
	Parent string         `yaml:"parent"`
	Sort   int            `yaml:"sort"`
	Status string         `yaml:"status"`
	Draft  bool           `yaml:"draft"`
	Custom map[string]any `yaml:",inline"`
}
