package pathfix

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/dendrascience/packrepair/config"
	"github.com/dendrascience/packrepair/sidecar"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const packRoot = "/pack"

// writePack creates files under root on fsys. Names ending in "/" are
// created as empty directories.
func writePack(t *testing.T, fsys afero.Fs, root string, files map[string]string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(root, 0o755))
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if strings.HasSuffix(name, "/") {
			require.NoError(t, fsys.MkdirAll(p, 0o755))
			continue
		}
		require.NoError(t, fsys.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, afero.WriteFile(fsys, p, []byte(content), 0o644))
	}
}

func memTree(t *testing.T, files map[string]string) *Tree {
	t.Helper()
	fsys := afero.NewMemMapFs()
	writePack(t, fsys, packRoot, files)
	tree, err := BuildTree(fsys, packRoot)
	require.NoError(t, err)
	return tree
}

func defaultRules(t *testing.T) *config.Rules {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	rules, err := cfg.Compile()
	require.NoError(t, err)
	return rules
}

func mustLookup(t *testing.T, tree *Tree, packPath string) Entry {
	t.Helper()
	e, ok := tree.Lookup(packPath)
	require.True(t, ok, "%s not in tree", packPath)
	return e
}

// valueOf returns the value stored under key, or "" when rec has no such key.
func valueOf(rec *sidecar.Record, key string) string {
	for k, v := range rec.All {
		if k == key {
			return v
		}
	}
	return ""
}
