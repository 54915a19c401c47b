package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dendrascience/packrepair/pathfix"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// ErrUnknownFormat is returned for a --format value other than text, json or yaml.
var ErrUnknownFormat = errors.New("unknown output format")

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// encode writes v as JSON or YAML. Text output is handled by the caller.
func encode(w io.Writer, v any, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func writeReport(w io.Writer, r *pathfix.Report, format string) error {
	if format != formatText {
		return encode(w, r, format)
	}
	writeText(w, r)
	return nil
}

// saveReport writes r to path as YAML when the extension asks for it and as
// JSON otherwise.
func saveReport(fsys afero.Fs, path string, r *pathfix.Report) error {
	format := formatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = formatYAML
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := fsys.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f, r, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var (
	headerColor  = color.New(color.Bold)
	changeColor  = color.New(color.FgGreen)
	planColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
	failureColor = color.New(color.FgRed)
)

func writeText(w io.Writer, r *pathfix.Report) {
	headerColor.Fprintf(w, "%s of %s\n", r.Mode, r.Root)
	fmt.Fprintf(w, "run %s: %d entries, %d sidecar files\n", r.RunID, r.Entries, r.Sidecars)

	if len(r.Changes) > 0 {
		headerColor.Fprintf(w, "\nReferences (%d)\n", len(r.Changes))
		for _, c := range r.Changes {
			changeColor.Fprintf(w, "  %s: %s = %s -> %s\n", c.File, c.Key, c.Old, c.New)
		}
	}
	if len(r.Issues) > 0 {
		headerColor.Fprintf(w, "\nIssues (%d)\n", len(r.Issues))
		for _, i := range r.Issues {
			if i.Key == "" {
				warnColor.Fprintf(w, "  %s [%s] %s\n", i.File, i.Kind, i.Value)
				continue
			}
			warnColor.Fprintf(w, "  %s: %s = %s [%s]\n", i.File, i.Key, i.Value, i.Kind)
		}
	}
	if len(r.Excluded) > 0 {
		headerColor.Fprintf(w, "\nExcluded (%d)\n", len(r.Excluded))
		for _, e := range r.Excluded {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	if len(r.Renames) > 0 {
		headerColor.Fprintf(w, "\nRenames (%d)\n", len(r.Renames))
		for _, rn := range r.Renames {
			c := planColor
			if rn.Applied {
				c = changeColor
			}
			c.Fprintf(w, "  %s -> %s\n", rn.From, rn.To)
		}
	}
	if len(r.Collisions) > 0 {
		headerColor.Fprintf(w, "\nCollisions (%d)\n", len(r.Collisions))
		for _, c := range r.Collisions {
			failureColor.Fprintf(w, "  %s\n", c.Target)
			for _, src := range c.Sources {
				fmt.Fprintf(w, "    %s\n", src)
			}
		}
	}
	if len(r.Failures) > 0 {
		headerColor.Fprintf(w, "\nFailures (%d)\n", len(r.Failures))
		for _, f := range r.Failures {
			failureColor.Fprintf(w, "  %s: %s\n", f.Path, f.Message)
		}
	}

	fmt.Fprintf(w, "\n%d broken names, %d references rewritten, %d left unresolved (%d ambiguous)\n",
		len(r.Broken), len(r.Changes), r.UnresolvedCount(), r.IssueCount(pathfix.IssueAmbiguous))
}
