package scope

import (
	"strings"

	"github.com/obsidian-tools/materialize-base/internal/value"
	"github.com/obsidian-tools/materialize-base/internal/vaultmodel"
)

// fileObject backs the `file` scope binding (spec.md §4.4): it exposes
// the note's metadata fields plus the asLink/hasLink/hasProperty/
// hasTag/inFolder methods. A single instance is shared between the
// scope's `file` key and its own self-reference at key `file`, so
// `file.file === file` holds by pointer identity (spec.md §9's cyclic
// File-object guidance).
type fileObject struct {
	f *vaultmodel.File
}

func newFileObject(f *vaultmodel.File) *fileObject {
	return &fileObject{f: f}
}

func (o *fileObject) Get(name string) (value.Value, bool, error) {
	switch name {
	case "file":
		return value.FileValue(o), true, nil
	case "path":
		return value.String(o.f.Path), true, nil
	case "name":
		return value.String(o.f.Name), true, nil
	case "ext":
		return value.String(o.f.Ext), true, nil
	case "folder":
		return value.String(o.f.Folder), true, nil
	case "size":
		return value.Int(o.f.Stat.Size), true, nil
	case "ctime":
		// birthtime ?? ctime (spec.md §4.4 step 1).
		if o.f.Stat.Birthtime != nil {
			return value.Date(o.f.Stat.Birthtime.UnixMilli()), true, nil
		}
		if o.f.Stat.Ctime != nil {
			return value.Date(o.f.Stat.Ctime.UnixMilli()), true, nil
		}
		return value.Null(), true, nil
	case "mtime":
		if o.f.Stat.Mtime != nil {
			return value.Date(o.f.Stat.Mtime.UnixMilli()), true, nil
		}
		return value.Null(), true, nil
	case "tags":
		return stringList(o.f.Tags), true, nil
	case "backlinks":
		return stringList(o.f.Backlinks), true, nil
	case "links":
		return linkListValue(o.f.Links), true, nil
	case "embeds":
		return linkListValue(o.f.Embeds), true, nil
	case "properties":
		return plainObject(o.f.Properties), true, nil
	}
	return value.Undefined(), false, nil
}

func (o *fileObject) Call(name string, args []value.Value) (value.Value, bool, error) {
	switch name {
	case "asLink":
		l := &value.Link{Path: o.f.RelativePath}
		if len(args) > 0 && !args[0].IsNullish() {
			l.Display = args[0].ToJSString()
			l.HasDisp = true
		}
		return value.LinkValue(l), true, nil

	case "hasLink":
		if len(args) == 0 {
			return value.Bool(false), true, nil
		}
		target := normalizeLinkArg(args[0])
		for _, l := range o.f.Links {
			if linkMatches(l, target) {
				return value.Bool(true), true, nil
			}
		}
		for _, l := range o.f.Embeds {
			if linkMatches(l, target) {
				return value.Bool(true), true, nil
			}
		}
		return value.Bool(false), true, nil

	case "hasProperty":
		if len(args) == 0 {
			return value.Bool(false), true, nil
		}
		_, ok := o.f.Properties[args[0].ToJSString()]
		return value.Bool(ok), true, nil

	case "hasTag":
		if len(args) == 0 {
			return value.Bool(false), true, nil
		}
		for _, a := range args {
			want := strings.ToLower(a.ToJSString())
			for _, t := range o.f.Tags {
				if strings.ToLower(t) == want {
					return value.Bool(true), true, nil
				}
			}
		}
		return value.Bool(false), true, nil

	case "inFolder":
		if len(args) == 0 {
			return value.Bool(false), true, nil
		}
		prefix := args[0].ToJSString()
		ok := o.f.Folder == prefix || strings.HasPrefix(o.f.Folder, prefix+"/")
		return value.Bool(ok), true, nil

	case "tasks":
		return value.List(o.f.Tasks), true, nil
	}
	return value.Value{}, false, nil
}

// normalizeLinkArg implements hasLink's argument normalization (spec.md
// §4.4): `x.path ?? x.target ?? x.relativePath ?? x.name ?? x`, trimmed
// and lowercased for a case-insensitive comparison.
func normalizeLinkArg(x value.Value) string {
	if x.Kind == value.KindString {
		return strings.ToLower(strings.TrimSpace(x.Str))
	}
	for _, key := range []string{"path", "target", "relativePath", "name"} {
		if m, ok := x.GetMember(key); ok && m.Kind == value.KindString {
			return strings.ToLower(strings.TrimSpace(m.Str))
		}
	}
	return strings.ToLower(strings.TrimSpace(x.ToJSString()))
}

func linkMatches(l vaultmodel.Link, target string) bool {
	if strings.ToLower(strings.TrimSpace(l.Target)) == target {
		return true
	}
	return l.HasResolved && strings.ToLower(strings.TrimSpace(l.ResolvedPath)) == target
}

func stringList(xs []string) value.Value {
	out := make([]value.Value, len(xs))
	for i, s := range xs {
		out[i] = value.String(s)
	}
	return value.List(out)
}

func linkListValue(links []vaultmodel.Link) value.Value {
	out := make([]value.Value, len(links))
	for i, l := range links {
		m := map[string]value.Value{
			"raw":     value.String(l.Raw),
			"target":  value.String(l.Target),
			"isEmbed": value.Bool(l.IsEmbed),
		}
		if l.HasDisplay {
			m["display"] = value.String(l.Display)
		}
		if l.HasResolved {
			m["resolvedPath"] = value.String(l.ResolvedPath)
		}
		out[i] = value.Object(m)
	}
	return value.List(out)
}

func plainObject(m map[string]value.Value) value.Value {
	cp := make(map[string]value.Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return value.Object(cp)
}
