// Package vaultmodel defines the File descriptor that the vault-loading
// contract supplies to the core (spec.md §3, §6.2). It holds no
// behavior of its own — scope construction and formatting live in
// internal/scope and internal/mdformat.
package vaultmodel

import (
	"time"

	"github.com/obsidian-tools/materialize-base/internal/value"
)

// Link is a parsed wiki-style reference: `[[target|display]]` or, when
// IsEmbed, `![[target]]` (spec.md §3, GLOSSARY).
type Link struct {
	Raw          string
	Target       string
	Display      string
	HasDisplay   bool
	IsEmbed      bool
	ResolvedPath string
	HasResolved  bool
}

// Stat mirrors a filesystem stat call; each instant is optional since
// not every source (e.g. a synthetic test fixture) supplies all three.
type Stat struct {
	Size      int64
	Birthtime *time.Time
	Mtime     *time.Time
	Ctime     *time.Time
}

// File is one vault note (or non-markdown asset) as the loader hands it
// to the core (spec.md §3, §6.2). RelativePath always uses forward
// slashes; Folder is "." for vault-root files.
type File struct {
	Path         string
	RelativePath string
	Name         string
	Ext          string
	Folder       string
	Stat         Stat
	Frontmatter  map[string]value.Value
	Tags         []string
	Links        []Link
	Embeds       []Link
	Backlinks    []string

	// Properties is the effective merged property map; the loader
	// contract (§6.2) initializes it equal to Frontmatter.
	Properties map[string]value.Value

	// Tasks holds the note's parsed checkbox items, supplementing the
	// spec's file object with a file.tasks() accessor (not present in
	// the distilled spec but part of the original vault tool's feature
	// set).
	Tasks []value.Value
}
