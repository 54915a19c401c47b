// Package pathfix repairs the file names of an extracted resource pack and the
// references sidecar files make to them.
//
// A run works on a RepairContext built once per pack:
//
// Names:
//   - Canonical maps any name to its repaired form: accented letters and
//     brackets are substituted, the result lower cased, and every rune
//     outside [a-z0-9_.-/\] dropped
//   - NeedsRepair tells whether the last element of a path is broken
//
// Tree:
//   - Tree is the set of pack-rooted paths ("/assets/...") taken once at the
//     start of the run, plus an overlay of where each entry lives now
//   - The original side never changes, so references are always resolved
//     against the names the pack author used
//
// References:
//   - Resolver turns a sidecar value into a tree entry: root substitutions,
//     absolute or relative lookup with expected extensions, then a search of
//     the whole tree for partial references
//   - Rewriter applies the resolver to every path-like value of a record
//   - Written values point at where the target ends up, so a target that
//     keeps its name is referenced by that name
//
// Renames:
//   - Entries are renamed deepest first, one path element at a time
//   - Entries whose repaired paths coincide are reported as collisions and
//     keep their names
//   - Sidecar files are read before any rename and written afterwards, at
//     their new location
//
// Problems found in the pack itself are collected in the Report. Only
// ErrInvalidPrecondition and context cancellation end a run early.
package pathfix
