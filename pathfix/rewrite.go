package pathfix

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/dendrascience/packrepair/config"
	"github.com/dendrascience/packrepair/sidecar"
	"go.uber.org/zap"
)

var (
	// pathGrammar accepts an optional drive or root prefix followed by text free
	// of characters no filesystem path may contain.
	pathGrammar = regexp.MustCompile(`^(?:[A-Za-z]:[/\\]|[/\\]?)[^\n\r<>:*"|?]*$`)
	// literalValue matches booleans, numbers and numeric lists or ranges.
	literalValue = regexp.MustCompile(`^(?i:true|false|yes|no|on|off|none|null)$|^[+-]?[0-9][0-9\s.,+-]*$`)
)

type (
	// Change is one rewritten property value.
	Change struct {
		File     string `json:"file" yaml:"file"`
		Key      string `json:"key" yaml:"key"`
		Old      string `json:"old" yaml:"old"`
		New      string `json:"new" yaml:"new"`
		Target   string `json:"target" yaml:"target"`
		Absolute bool   `json:"absolute" yaml:"absolute"`
	}
	// Issue is a property value, or line, that was left untouched.
	Issue struct {
		File    string `json:"file" yaml:"file"`
		Key     string `json:"key,omitempty" yaml:"key,omitempty"`
		Value   string `json:"value,omitempty" yaml:"value,omitempty"`
		Kind    string `json:"kind" yaml:"kind"`
		Message string `json:"message" yaml:"message"`
		Err     error  `json:"-" yaml:"-"`
	}
	// FileResult gathers what rewriting one sidecar file produced.
	FileResult struct {
		Path     string
		Excluded bool
		Changes  []Change
		Issues   []Issue
	}
)

func newIssue(file, key, value string, err error) Issue {
	return Issue{
		File:    file,
		Key:     key,
		Value:   value,
		Kind:    issueKind(err),
		Message: err.Error(),
		Err:     err,
	}
}

// Issue kinds, as reported in Issue.Kind.
const (
	IssueAmbiguous            = "ambiguous"
	IssueUnresolvable         = "unresolvable"
	IssueMissingExtensionRule = "missing-extension-rule"
	IssueNotAPath             = "not-a-path"
	IssueMalformedLine        = "malformed-line"
)

func issueKind(err error) string {
	switch {
	case errors.Is(err, ErrAmbiguous):
		return IssueAmbiguous
	case errors.Is(err, ErrUnresolvable):
		return IssueUnresolvable
	case errors.Is(err, ErrMissingExtensionRule):
		return IssueMissingExtensionRule
	case errors.Is(err, ErrNotAPath):
		return IssueNotAPath
	case errors.Is(err, ErrMalformedLine):
		return IssueMalformedLine
	default:
		return "error"
	}
}

// Rewriter updates the path values of sidecar records so they point at the
// repaired names of their targets.
type Rewriter struct {
	tree     *Tree
	resolver *Resolver
	rules    *config.Rules
	log      *zap.Logger
}

func NewRewriter(tree *Tree, resolver *Resolver, rules *config.Rules, logger *zap.Logger) *Rewriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rewriter{tree: tree, resolver: resolver, rules: rules, log: logger}
}

// Rewrite resolves every path-like value of rec and replaces it in place.
// Keys keep their order and values that cannot be resolved stay as they are.
// The only error returned is ErrInvalidPrecondition.
func (w *Rewriter) Rewrite(rec *sidecar.Record) (FileResult, error) {
	if rec.Entry < 0 || rec.Entry >= w.tree.Len() {
		return FileResult{}, fmt.Errorf("%w: record %q points at entry %d", ErrInvalidPrecondition, rec.Path, rec.Entry)
	}
	ref := w.tree.Entry(rec.Entry)
	res := FileResult{Path: ref.Path}
	log := w.log.With(zap.String("file", ref.Path))

	if w.rules.ExcludedPath(ref.Path) {
		log.Info("file excluded by configuration")
		res.Excluded = true
		return res, nil
	}

	for _, m := range rec.Malformed {
		err := fmt.Errorf("%w: line %d", ErrMalformedLine, m.Line)
		log.Warn("skipping line that is not a property", zap.Int("line", m.Line), zap.String("text", m.Text))
		res.Issues = append(res.Issues, newIssue(ref.Path, "", m.Text, err))
	}
	log.Debug("finding references")

	for _, p := range rec.Pairs() {
		key, value := p.Key, p.Value
		if !w.rules.PathCandidate(key) {
			continue
		}
		klog := log.With(zap.String("key", key), zap.String("value", value))

		if literalValue.MatchString(value) {
			klog.Debug("literal value, not a path")
			continue
		}

		expected, hasRule := w.rules.ExpectedExtensions(key)
		if !hasRule {
			klog.Warn("no expected extensions configured for key, resolution will be less precise")
			res.Issues = append(res.Issues, newIssue(ref.Path, key, value, fmt.Errorf("%w: %q", ErrMissingExtensionRule, key)))
		}
		var out Outcome
		if hasRule && !plausiblePath(value) {
			out = Outcome{Kind: NotAPath, Reason: fmt.Errorf("%w: %q", ErrNotAPath, value)}
		} else {
			var err error
			if out, err = w.resolver.Resolve(value, ref, expected); err != nil {
				return res, err
			}
		}
		switch out.Kind {
		case Resolved:
			if out.Value == value {
				klog.Debug("reference already canonical")
				continue
			}
			rec.Set(key, out.Value)
			klog.Info("reference rewritten", zap.String("to", out.Value), zap.Bool("absolute", out.Absolute))
			res.Changes = append(res.Changes, Change{
				File:     ref.Path,
				Key:      key,
				Old:      value,
				New:      out.Value,
				Target:   out.Entry.Path,
				Absolute: out.Absolute,
			})
		case NotAPath:
			klog.Warn("value is not a path")
			res.Issues = append(res.Issues, newIssue(ref.Path, key, value, out.Reason))
		default:
			if errors.Is(out.Reason, ErrAmbiguous) {
				klog.Warn("ambiguous reference left unchanged, make it more precise if it is a path")
			} else {
				klog.Warn("reference cannot be resolved")
			}
			res.Issues = append(res.Issues, newIssue(ref.Path, key, value, out.Reason))
		}
	}
	return res, nil
}

func plausiblePath(value string) bool {
	if !pathGrammar.MatchString(value) {
		return false
	}
	return strings.IndexFunc(value, func(r rune) bool { return !unicode.IsPrint(r) }) < 0
}
