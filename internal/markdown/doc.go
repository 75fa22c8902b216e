// Package markdown renders Markdown through goldmark and reads Markdown
// documents with YAML frontmatter from a filesystem.
package markdown
