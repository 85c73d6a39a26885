package loader

import (
	"path"
	"sort"
	"strings"

	"github.com/obsidian-tools/materialize-base/internal/vaultmodel"
)

// resolveBacklinks populates each file's Backlinks by resolving every
// other file's links/embeds against the target-resolution rules of
// spec.md §6.2: a target containing "/" resolves against the vault
// root (optional .md suffix); otherwise it resolves against the
// source file's folder (optional .md suffix); otherwise it falls back
// to a bare-filename lookup (optional .md stripping). First hit wins.
// A trailing #anchor or ^block segment is stripped before resolution.
func resolveBacklinks(root string, files []*vaultmodel.File) {
	byRelPath := make(map[string]*vaultmodel.File, len(files))
	byBaseName := make(map[string][]*vaultmodel.File)
	for _, f := range files {
		byRelPath[f.RelativePath] = f
		base := strings.TrimSuffix(path.Base(f.RelativePath), path.Ext(f.RelativePath))
		byBaseName[base] = append(byBaseName[base], f)
	}

	backlinkSets := make(map[string]map[string]bool, len(files))

	for _, src := range files {
		refs := append(append([]vaultmodel.Link{}, src.Links...), src.Embeds...)
		for _, l := range refs {
			target := stripAnchor(l.Target)
			if target == "" {
				continue
			}
			resolved := resolveTarget(target, src.Folder, byRelPath, byBaseName)
			if resolved == nil || resolved == src {
				continue
			}
			set, ok := backlinkSets[resolved.RelativePath]
			if !ok {
				set = make(map[string]bool)
				backlinkSets[resolved.RelativePath] = set
			}
			set[src.RelativePath] = true
		}
	}

	for _, f := range files {
		set := backlinkSets[f.RelativePath]
		if len(set) == 0 {
			continue
		}
		for rel := range set {
			f.Backlinks = append(f.Backlinks, rel)
		}
		sort.Strings(f.Backlinks)
	}
}

func stripAnchor(target string) string {
	if i := strings.IndexAny(target, "#^"); i >= 0 {
		return strings.TrimSpace(target[:i])
	}
	return strings.TrimSpace(target)
}

func resolveTarget(target, sourceFolder string, byRelPath map[string]*vaultmodel.File, byBaseName map[string][]*vaultmodel.File) *vaultmodel.File {
	if strings.Contains(target, "/") {
		if f := lookupWithOptionalMD(path.Clean(target), byRelPath); f != nil {
			return f
		}
	} else {
		candidate := target
		if sourceFolder != "" && sourceFolder != "." {
			candidate = path.Join(sourceFolder, target)
		}
		if f := lookupWithOptionalMD(candidate, byRelPath); f != nil {
			return f
		}
	}

	base := strings.TrimSuffix(target, ".md")
	if matches := byBaseName[base]; len(matches) > 0 {
		return matches[0]
	}
	return nil
}

func lookupWithOptionalMD(relPath string, byRelPath map[string]*vaultmodel.File) *vaultmodel.File {
	if f, ok := byRelPath[relPath]; ok {
		return f
	}
	if !strings.HasSuffix(relPath, ".md") {
		if f, ok := byRelPath[relPath+".md"]; ok {
			return f
		}
	}
	return nil
}
