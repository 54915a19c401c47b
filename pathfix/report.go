package pathfix

import (
	"fmt"

	"go.uber.org/multierr"
)

type (
	// BrokenName is an entry whose last element is not in canonical form.
	BrokenName struct {
		Path      string `json:"path" yaml:"path"`
		Canonical string `json:"canonical" yaml:"canonical"`
	}
	// Rename is a planned or applied physical rename, in pack-rooted paths.
	Rename struct {
		From    string `json:"from" yaml:"from"`
		To      string `json:"to" yaml:"to"`
		Applied bool   `json:"applied" yaml:"applied"`
	}
	// Collision lists entries whose repaired paths coincide.
	Collision struct {
		Target  string   `json:"target" yaml:"target"`
		Sources []string `json:"sources" yaml:"sources"`
	}
	// Failure is a per-file error that did not stop the run.
	Failure struct {
		Path    string `json:"path" yaml:"path"`
		Message string `json:"message" yaml:"message"`
		Err     error  `json:"-" yaml:"-"`
	}
	// Report is the outcome of one analyse or repair run.
	Report struct {
		RunID      string       `json:"run_id" yaml:"run_id"`
		Mode       string       `json:"mode" yaml:"mode"`
		Root       string       `json:"root" yaml:"root"`
		Entries    int          `json:"entries" yaml:"entries"`
		Sidecars   int          `json:"sidecars" yaml:"sidecars"`
		Excluded   []string     `json:"excluded,omitempty" yaml:"excluded,omitempty"`
		Changes    []Change     `json:"changes,omitempty" yaml:"changes,omitempty"`
		Issues     []Issue      `json:"issues,omitempty" yaml:"issues,omitempty"`
		Broken     []BrokenName `json:"broken,omitempty" yaml:"broken,omitempty"`
		Renames    []Rename     `json:"renames,omitempty" yaml:"renames,omitempty"`
		Collisions []Collision  `json:"collisions,omitempty" yaml:"collisions,omitempty"`
		Failures   []Failure    `json:"failures,omitempty" yaml:"failures,omitempty"`
		// Snapshot is the tree overlay at the end of the run, indexed like the
		// tree entries.
		Snapshot []string `json:"-" yaml:"-"`
	}
)

func (r *Report) addFile(res FileResult) {
	if res.Excluded {
		r.Excluded = append(r.Excluded, res.Path)
	}
	r.Changes = append(r.Changes, res.Changes...)
	r.Issues = append(r.Issues, res.Issues...)
}

func (r *Report) fail(packPath string, err error) {
	r.Failures = append(r.Failures, Failure{Path: packPath, Message: err.Error(), Err: err})
}

// Err combines every per-file failure, or returns nil.
func (r *Report) Err() error {
	var err error
	for _, f := range r.Failures {
		err = multierr.Append(err, fmt.Errorf("%s: %w", f.Path, f.Err))
	}
	return err
}

// UnresolvedCount returns how many references were left as they are because
// no single entry matched them.
func (r *Report) UnresolvedCount() int {
	return r.IssueCount(IssueUnresolvable) + r.IssueCount(IssueAmbiguous)
}

// IssueCount returns how many issues of the given kind were recorded.
func (r *Report) IssueCount(kind string) int {
	n := 0
	for _, i := range r.Issues {
		if i.Kind == kind {
			n++
		}
	}
	return n
}
