package archive

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeZip(t *testing.T, fsys afero.Fs, name string, entries map[string]string) {
	t.Helper()
	f, err := fsys.Create(name)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	names := make([]string, 0, len(entries))
	for n := range entries {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		dst, err := w.Create(n)
		require.NoError(t, err)
		_, err = io.WriteString(dst, entries[n])
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func readZip(t *testing.T, fsys afero.Fs, name string) map[string]string {
	t.Helper()
	zr, f, err := openZip(fsys, name)
	require.NoError(t, err)
	defer f.Close()
	out := make(map[string]string, len(zr.File))
	for _, zf := range zr.File {
		rc, err := zf.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[zf.Name] = string(b)
	}
	return out
}

func TestIsZip(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"pack.zip", true},
		{"Pack.ZIP", true},
		{"/some/dir/pack.zip", true},
		{"pack.rar", false},
		{"packzip", false},
		{"pack.zip/", false},
	}
	for _, tt := range tests {
		if got := IsZip(tt.name); got != tt.want {
			t.Errorf("IsZip(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestExtract(t *testing.T) {
	defer goleak.VerifyNone(t)

	fsys := afero.NewMemMapFs()
	entries := map[string]string{
		"pack.mcmeta":                      `{"pack":{}}`,
		"assets/":                          "",
		"assets/minecraft/Forêt (été).png": "png",
		`assets\minecraft\sky.properties`:  "source=sky",
	}
	for i := range 40 {
		entries[fmt.Sprintf("assets/blocks/block%02d.png", i)] = fmt.Sprintf("block %d", i)
	}
	writeZip(t, fsys, "/in/pack.zip", entries)
	// stale content is removed
	require.NoError(t, afero.WriteFile(fsys, "/work/pack/stale.txt", []byte("x"), 0o644))

	err := Extract(context.Background(), fsys, "/in/pack.zip", "/work/pack", 4, nil)
	require.NoError(t, err)

	for name, content := range entries {
		if name == "assets/" {
			continue
		}
		clean, err := entryName(name)
		require.NoError(t, err)
		got, err := afero.ReadFile(fsys, filepath.Join("/work/pack", filepath.FromSlash(clean)))
		require.NoError(t, err, name)
		assert.Equal(t, content, string(got), name)
	}
	exists, err := afero.Exists(fsys, "/work/pack/stale.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestExtract_UnsafePath(t *testing.T) {
	defer goleak.VerifyNone(t)

	tests := []string{"../evil.txt", "a/../../evil.txt", "/etc/evil", `..\evil.txt`, "C:/evil.txt"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			writeZip(t, fsys, "/in/pack.zip", map[string]string{"ok.txt": "ok", name: "evil"})

			err := Extract(context.Background(), fsys, "/in/pack.zip", "/work/pack", 2, nil)
			assert.ErrorIs(t, err, ErrUnsafePath)

			exists, _ := afero.Exists(fsys, "/work/pack/ok.txt")
			assert.False(t, exists, "nothing is extracted")
		})
	}
}

func TestExtract_NotZip(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/in/pack.rar", []byte("Rar!"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/in/fake.zip", []byte("not a zip at all"), 0o644))

	err := Extract(context.Background(), fsys, "/in/pack.rar", "/work/pack", 2, nil)
	assert.ErrorIs(t, err, ErrNotZip)

	err = Extract(context.Background(), fsys, "/in/fake.zip", "/work/fake", 2, nil)
	assert.ErrorIs(t, err, ErrNotZip)
}

func TestExtract_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	fsys := afero.NewMemMapFs()
	writeZip(t, fsys, "/in/pack.zip", map[string]string{"a.txt": "a", "b.txt": "b"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Extract(ctx, fsys, "/in/pack.zip", "/work/pack", 2, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBucketOf(t *testing.T) {
	for _, workers := range []int{1, 3, 8} {
		for i := range 100 {
			name := fmt.Sprintf("assets/file%d.png", i)
			b := bucketOf(name, workers)
			assert.GreaterOrEqual(t, b, 0)
			assert.Less(t, b, workers)
			assert.Equal(t, b, bucketOf(name, workers), "stable for %s", name)
		}
	}
}

func TestPack(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/work/pack/assets/dir_a", 0o755))
	require.NoError(t, afero.WriteFile(fsys, "/work/pack/assets/dir_a/foret_ete_.png", []byte("png"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/work/pack/pack.mcmeta", []byte("{}"), 0o644))

	paths := []string{"/assets", "/assets/dir_a", "/assets/dir_a/foret_ete_.png", "/pack.mcmeta"}
	require.NoError(t, Pack(fsys, "/work/pack", paths, "/out/pack.zip"))

	assert.Equal(t, map[string]string{
		"assets/":                     "",
		"assets/dir_a/":               "",
		"assets/dir_a/foret_ete_.png": "png",
		"pack.mcmeta":                 "{}",
	}, readZip(t, fsys, "/out/pack.zip"))
}

func TestPack_RoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	fsys := afero.NewOsFs()
	src := filepath.Join(root, "src.zip")
	entries := map[string]string{
		"a/":      "",
		"a/b.txt": "b",
		"c.txt":   "c",
	}
	writeZip(t, fsys, src, entries)

	dest := filepath.Join(root, "extract")
	require.NoError(t, Extract(context.Background(), fsys, src, dest, 3, nil))

	out := filepath.Join(root, "out", "src.zip")
	require.NoError(t, Pack(fsys, dest, []string{"/a", "/a/b.txt", "/c.txt"}, out))
	assert.Equal(t, entries, readZip(t, fsys, out))
}

func TestPack_Errors(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/file", []byte("x"), 0o644))

	err := Pack(fsys, "/file", nil, "/out.zip")
	assert.ErrorIs(t, err, ErrExpectedDirectory)

	require.NoError(t, fsys.MkdirAll("/root", 0o755))
	err = Pack(fsys, "/root", []string{"/missing.png"}, "/out.zip")
	assert.Error(t, err)
}
