package pathfix

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/dendrascience/packrepair/config"
	"go.uber.org/zap"
)

// OutcomeKind tags a resolution result.
type OutcomeKind int

const (
	Unresolved OutcomeKind = iota
	Resolved
	NotAPath
)

func (k OutcomeKind) String() string {
	switch k {
	case Resolved:
		return "resolved"
	case NotAPath:
		return "not-a-path"
	default:
		return "unresolved"
	}
}

// Outcome is the result of resolving one reference.
//
// For Resolved outcomes Value is the representation to write back: a bounded
// relative path or, when Absolute is set, the pack-rooted path, both computed
// from where the referencing file and the target are placed. Reason explains
// Unresolved and NotAPath outcomes and wraps ErrUnresolvable, ErrAmbiguous or
// ErrNotAPath.
type Outcome struct {
	Kind     OutcomeKind
	Entry    Entry
	Value    string
	Absolute bool
	Reason   error
}

// Placement maps the original pack-rooted path of an entry to the path it has
// once renames are done.
type Placement func(packPath string) string

// Resolver turns reference strings found in sidecar files into tree entries.
// Lookups only read the original side of the tree; written values follow the
// placement, which defaults to Canonical.
type Resolver struct {
	tree  *Tree
	rules *config.Rules
	place Placement
	log   *zap.Logger
}

func NewResolver(tree *Tree, rules *config.Rules, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{tree: tree, rules: rules, place: Canonical, log: logger}
}

// SetPlacement changes where entries are assumed to live when values are
// written. A nil placement restores Canonical.
func (r *Resolver) SetPlacement(place Placement) {
	if place == nil {
		place = Canonical
	}
	r.place = place
}

// Resolve resolves raw as written in the sidecar file ref. expected lists the
// extensions to try, in order, when raw has none. The returned error is only
// set for ErrInvalidPrecondition; data problems are reported in the Outcome.
func (r *Resolver) Resolve(raw string, ref Entry, expected []string) (Outcome, error) {
	if !strings.HasPrefix(ref.Path, "/") {
		return Outcome{}, fmt.Errorf("%w: referencing entry %q is not pack-rooted", ErrInvalidPrecondition, ref.Path)
	}
	if _, ok := r.tree.Lookup(ref.Path); !ok {
		return Outcome{}, fmt.Errorf("%w: referencing entry %q: %w", ErrInvalidPrecondition, ref.Path, ErrUnknownEntry)
	}

	hadExt := extOf(strings.ReplaceAll(raw, `\`, "/")) != ""
	if hadExt {
		expected = nil
	}
	value := strings.ReplaceAll(r.substituteRoot(raw), `\`, "/")

	var (
		target Entry
		found  bool
	)
	if strings.HasPrefix(value, "/") {
		target, found = r.validate(path.Clean(value), expected)
		if !found {
			r.log.Debug("absolute path not in tree", zap.String("value", value))
			return unresolved(fmt.Errorf("%w: %q", ErrUnresolvable, raw)), nil
		}
	} else {
		target, found = r.validate(path.Join(ref.Dir(), value), expected)
		if !found {
			var err error
			target, err = r.ambiguous(value, expected)
			if err != nil {
				return unresolved(fmt.Errorf("%w: %q", err, raw)), nil
			}
		}
	}

	from := Entry{Path: r.place(ref.Path), Ext: ref.Ext, IsDir: ref.IsDir}
	to := Entry{Path: r.place(target.Path), Ext: target.Ext, IsDir: target.IsDir}
	chosen, relative := r.Relative(from, to)
	if !hadExt {
		chosen = trimExt(chosen)
	}
	return Outcome{
		Kind:     Resolved,
		Entry:    target,
		Value:    chosen,
		Absolute: !relative,
	}, nil
}

func unresolved(reason error) Outcome {
	return Outcome{Kind: Unresolved, Reason: reason}
}

// substituteRoot applies the first configured root substitution whose prefix
// starts raw.
func (r *Resolver) substituteRoot(raw string) string {
	for _, s := range r.rules.Substitutions {
		if strings.HasPrefix(raw, s.Prefix) {
			replaced := s.Replacement + strings.TrimPrefix(raw, s.Prefix)
			r.log.Debug("root substituted", zap.String("from", raw), zap.String("to", replaced))
			return replaced
		}
	}
	return raw
}

// validate accepts p if it is in the original tree, or, when p has no
// extension, the first p+ext that is.
func (r *Resolver) validate(p string, expected []string) (Entry, bool) {
	if e, ok := r.tree.Lookup(p); ok {
		return e, true
	}
	if extOf(p) != "" {
		return Entry{}, false
	}
	for _, ext := range expected {
		if e, ok := r.tree.Lookup(p + ext); ok {
			return e, true
		}
	}
	return Entry{}, false
}

// ambiguous searches the whole tree for entries containing the reference
// fragment whose stem matches it. Several matches are accepted only when they
// share a parent directory, and then the first in enumeration order wins.
func (r *Resolver) ambiguous(value string, expected []string) (Entry, error) {
	fragment := path.Clean(value)
	for strings.HasPrefix(fragment, "../") {
		fragment = strings.TrimPrefix(fragment, "../")
	}
	if fragment == "." || fragment == ".." || fragment == "" {
		return Entry{}, ErrUnresolvable
	}
	want := stem(fragment)

	var candidates []Entry
	for _, e := range r.tree.entries {
		if !strings.Contains(e.Path, fragment) || e.Stem() != want {
			continue
		}
		if len(expected) > 0 && !slices.Contains(expected, e.Ext) {
			continue
		}
		candidates = append(candidates, e)
	}
	if len(candidates) == 0 {
		return Entry{}, ErrUnresolvable
	}

	parent := path.Dir(candidates[0].Path)
	for _, c := range candidates[1:] {
		if path.Dir(c.Path) != parent {
			r.log.Debug("candidates in different directories",
				zap.String("value", value), zap.Int("candidates", len(candidates)))
			return Entry{}, ErrAmbiguous
		}
	}
	if len(candidates) > 1 {
		r.log.Debug("several candidates share a directory, keeping the first",
			zap.String("value", value), zap.String("chosen", candidates[0].Path))
	}
	return candidates[0], nil
}

// Relative returns the path of to relative to the directory of from when it
// stays within the configured bounds, and to's pack-rooted path otherwise.
// The boolean reports whether the relative form was chosen.
func (r *Resolver) Relative(from, to Entry) (string, bool) {
	rel := relPath(from.Dir(), to.Path)
	parts := strings.Split(rel, "/")
	back := 0
	for _, p := range parts {
		if p == ".." {
			back++
		}
	}
	forward := len(parts) - back
	if len(parts) > r.rules.MaxPathParts || back > r.rules.MaxBackStep || forward > r.rules.MaxForwardStep {
		return to.Path, false
	}
	return rel, true
}

// relPath computes target relative to base; both are clean pack-rooted paths.
func relPath(base, target string) string {
	split := func(p string) []string {
		p = strings.Trim(path.Clean(p), "/")
		if p == "" {
			return nil
		}
		return strings.Split(p, "/")
	}
	b, t := split(base), split(target)
	common := 0
	for common < len(b) && common < len(t) && b[common] == t[common] {
		common++
	}
	parts := make([]string, 0, len(b)-common+len(t)-common)
	for range b[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, t[common:]...)
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}

// extOf returns the extension of the last element of p. Dot files and
// trailing dots have no extension.
func extOf(p string) string {
	base := path.Base(p)
	ext := path.Ext(base)
	if ext == "." || ext == base {
		return ""
	}
	return ext
}

func trimExt(p string) string {
	ext := extOf(p)
	return strings.TrimSuffix(p, ext)
}
