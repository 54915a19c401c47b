package pathfix

import (
	"context"
	"fmt"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/dendrascience/packrepair/config"
	"github.com/dendrascience/packrepair/sidecar"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	ModeAnalyse = "analyse"
	ModeRepair  = "repair"
)

// RepairContext holds everything one run works with. It is built once per
// pack and passed to every step; nothing is shared between runs.
type RepairContext struct {
	RunID    uuid.UUID
	Tree     *Tree
	Rules    *config.Rules
	Resolver *Resolver
	Rewriter *Rewriter

	log *zap.Logger
}

// NewRepairContext snapshots the tree under root and wires the resolver and
// rewriter around it.
func NewRepairContext(fsys afero.Fs, root string, rules *config.Rules, logger *zap.Logger) (*RepairContext, error) {
	if rules == nil {
		return nil, fmt.Errorf("%w: no rules", ErrInvalidPrecondition)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.New()
	logger = logger.With(zap.String("run", runID.String()))

	tree, err := BuildTree(fsys, root)
	if err != nil {
		return nil, err
	}
	logger.Info("tree built", zap.String("root", tree.Root()), zap.Int("entries", tree.Len()))

	resolver := NewResolver(tree, rules, logger.Named("resolver"))
	return &RepairContext{
		RunID:    runID,
		Tree:     tree,
		Rules:    rules,
		Resolver: resolver,
		Rewriter: NewRewriter(tree, resolver, rules, logger.Named("rewriter")),
		log:      logger,
	}, nil
}

func (rc *RepairContext) newReport(mode string) *Report {
	return &Report{
		RunID:   rc.RunID.String(),
		Mode:    mode,
		Root:    rc.Tree.Root(),
		Entries: rc.Tree.Len(),
	}
}

// Analyse reports what Repair would do without touching the filesystem.
func (rc *RepairContext) Analyse(ctx context.Context) (*Report, error) {
	report := rc.newReport(ModeAnalyse)
	recs := rc.records(report)
	rc.findBroken(report)
	plan := rc.plan()
	report.Collisions = plan.collisions

	rc.Resolver.SetPlacement(plan.finalPath)
	if err := rc.rewriteSidecars(ctx, report, recs, false); err != nil {
		return report, err
	}
	for _, step := range plan.steps {
		if step.moves() {
			report.Renames = append(report.Renames, Rename{From: step.entry.Path, To: step.final})
		}
	}
	report.Snapshot = rc.Tree.Snapshot()
	return report, nil
}

// Repair renames every entry whose name is not canonical, deepest paths
// first, then rewrites the sidecar files so their references match the names
// found on disk afterwards. Per-file failures are recorded in the report and
// the run continues; only ErrInvalidPrecondition and context cancellation end
// it early.
func (rc *RepairContext) Repair(ctx context.Context) (*Report, error) {
	report := rc.newReport(ModeRepair)
	// records are read while every file still has its original path
	recs := rc.records(report)
	rc.findBroken(report)
	plan := rc.plan()
	report.Collisions = plan.collisions
	for _, c := range plan.collisions {
		rc.log.Error("entries repair to the same path, leaving them as they are",
			zap.String("to", c.Target), zap.Strings("sources", c.Sources))
		for _, src := range c.Sources {
			report.fail(src, fmt.Errorf("%w: %s", ErrCollision, c.Target))
		}
	}
	if err := rc.rename(ctx, plan.steps, report); err != nil {
		return report, err
	}

	rc.Resolver.SetPlacement(rc.currentPath)
	if err := rc.rewriteSidecars(ctx, report, recs, true); err != nil {
		return report, err
	}
	report.Snapshot = rc.Tree.Snapshot()
	return report, nil
}

// records decodes every sidecar file of the tree, in enumeration order.
func (rc *RepairContext) records(report *Report) []*sidecar.Record {
	var out []*sidecar.Record
	for i, e := range rc.Tree.Entries() {
		if e.IsDir {
			continue
		}
		kind, ok := sidecar.KindOf(e.Path)
		if !ok {
			continue
		}
		name, err := rc.Tree.SystemPath(e.Path)
		if err == nil {
			var rec *sidecar.Record
			rec, err = sidecar.ReadFile(rc.Tree.Fs(), name, kind, i, e.Path)
			if err == nil {
				out = append(out, rec)
				continue
			}
		}
		rc.log.Error("cannot read sidecar file", zap.String("file", e.Path), zap.Error(err))
		report.fail(e.Path, err)
	}
	report.Sidecars = len(out)
	return out
}

// rewriteSidecars rewrites recs in memory and, when persist is set, writes
// the changed ones back at their current location.
func (rc *RepairContext) rewriteSidecars(ctx context.Context, report *Report, recs []*sidecar.Record, persist bool) error {
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := rc.Rewriter.Rewrite(rec)
		if err != nil {
			return err
		}
		report.addFile(res)
		if !persist || len(res.Changes) == 0 {
			continue
		}
		name, err := rc.Tree.SystemPath(rc.Tree.Current(rec.Entry))
		if err == nil {
			err = sidecar.WriteFile(rc.Tree.Fs(), name, rec)
		}
		if err != nil {
			rc.log.Error("cannot write sidecar file", zap.String("file", rec.Path), zap.Error(err))
			report.fail(rec.Path, err)
			continue
		}
		rc.log.Info("sidecar file rewritten", zap.String("file", rec.Path), zap.Int("changes", len(res.Changes)))
	}
	return nil
}

// currentPath is the placement of an entry according to the overlay.
func (rc *RepairContext) currentPath(packPath string) string {
	i, ok := rc.Tree.Index(packPath)
	if !ok {
		return packPath
	}
	return rc.Tree.Current(i)
}

func (rc *RepairContext) findBroken(report *Report) {
	for _, e := range rc.Tree.Entries() {
		if NeedsRepair(e.Path) {
			report.Broken = append(report.Broken, BrokenName{Path: e.Path, Canonical: Canonical(e.Path)})
		}
	}
}

type renameStep struct {
	entry Entry
	// final is where the entry ends up once every planned rename is done
	final string
}

// moves reports whether the last element changes. Other steps only follow
// a renamed ancestor.
func (s renameStep) moves() bool {
	return path.Base(s.final) != path.Base(s.entry.Path)
}

// renamePlan is the outcome of planning: the steps to run, the collision
// groups left alone, and the final path of every entry.
type renamePlan struct {
	steps      []renameStep
	collisions []Collision
	final      map[string]string
}

// finalPath is the placement of an entry once the plan has run.
func (p *renamePlan) finalPath(packPath string) string {
	if f, ok := p.final[packPath]; ok {
		return f
	}
	return packPath
}

// plan lists the entries to rename, sorted by path length, longest first, and
// the groups of entries whose canonical paths coincide. Colliding entries keep
// their names.
func (rc *RepairContext) plan() *renamePlan {
	entries := rc.Tree.Entries()
	groups := make(map[string][]string)
	var order []string
	for _, e := range entries {
		c := Canonical(e.Path)
		if _, seen := groups[c]; !seen {
			order = append(order, c)
		}
		groups[c] = append(groups[c], e.Path)
	}
	p := &renamePlan{final: make(map[string]string, len(entries))}
	blocked := make(map[string]bool)
	for _, c := range order {
		if len(groups[c]) < 2 {
			continue
		}
		p.collisions = append(p.collisions, Collision{Target: c, Sources: groups[c]})
		for _, src := range groups[c] {
			blocked[src] = true
		}
	}

	var finalOf func(packPath string) string
	finalOf = func(packPath string) string {
		if packPath == "/" {
			return ""
		}
		if f, ok := p.final[packPath]; ok {
			return f
		}
		base := path.Base(packPath)
		if !blocked[packPath] {
			base = Canonical(base)
		}
		f := finalOf(path.Dir(packPath)) + "/" + base
		p.final[packPath] = f
		return f
	}

	for i, e := range entries {
		f := finalOf(e.Path)
		if f == rc.Tree.Current(i) {
			continue
		}
		p.steps = append(p.steps, renameStep{entry: e, final: f})
	}
	slices.SortStableFunc(p.steps, func(a, b renameStep) int {
		return len(b.entry.Path) - len(a.entry.Path)
	})
	return p
}

// rename applies the plan. Each step only renames the last element: the
// parent still carries its original name because descendants come first.
func (rc *RepairContext) rename(ctx context.Context, plan []renameStep, report *Report) error {
	fsys := rc.Tree.Fs()
	for _, step := range plan {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !step.moves() {
			if err := rc.Tree.Update(step.entry, step.final); err != nil {
				return err
			}
			continue
		}
		oldName, err := rc.Tree.SystemPath(step.entry.Path)
		if err != nil {
			return err
		}
		newName, err := rc.Tree.SystemPath(path.Join(path.Dir(step.entry.Path), path.Base(step.final)))
		if err != nil {
			return err
		}
		log := rc.log.With(zap.String("from", step.entry.Path), zap.String("to", step.final))

		if err := renameNoClobber(fsys, oldName, newName); err != nil {
			log.Error("rename failed", zap.Error(err))
			report.fail(step.entry.Path, err)
			report.Renames = append(report.Renames, Rename{From: step.entry.Path, To: step.final})
			// the entry keeps its name under its parent's final location
			kept := path.Join(path.Dir(step.final), path.Base(step.entry.Path))
			if err := rc.Tree.Update(step.entry, kept); err != nil {
				return err
			}
			if err := rc.rebase(step.final, kept); err != nil {
				return err
			}
			continue
		}
		if err := rc.Tree.Update(step.entry, step.final); err != nil {
			return err
		}
		log.Info("renamed")
		report.Renames = append(report.Renames, Rename{From: step.entry.Path, To: step.final, Applied: true})
	}
	return nil
}

// rebase moves overlay paths below from to below to, for descendants
// recorded under a directory name that never came to exist.
func (rc *RepairContext) rebase(from, to string) error {
	prefix := from + "/"
	for i := range rc.Tree.Len() {
		cur := rc.Tree.Current(i)
		if !strings.HasPrefix(cur, prefix) {
			continue
		}
		if err := rc.Tree.Update(rc.Tree.Entry(i), to+"/"+strings.TrimPrefix(cur, prefix)); err != nil {
			return err
		}
	}
	return nil
}

// renameNoClobber renames oldName to newName unless newName is a different,
// existing file. A change of case only is allowed through.
func renameNoClobber(fsys afero.Fs, oldName, newName string) error {
	if _, err := fsys.Stat(newName); err == nil {
		if !strings.EqualFold(oldName, newName) {
			return fmt.Errorf("%w: %s", ErrTargetExists, newName)
		}
	} else if !os.IsNotExist(err) {
		return err
	}
	return fsys.Rename(oldName, newName)
}
