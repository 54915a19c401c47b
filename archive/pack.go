package archive

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
)

// Pack writes the pack-rooted paths found under root into a new zip at dest.
// Directories become "name/" entries and files are deflated. Entries are
// written in the order given.
func Pack(fsys afero.Fs, root string, paths []string, dest string) (err error) {
	info, err := fsys.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return ErrExpectedDirectory
	}
	if err := fsys.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := fsys.Create(dest)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	w := zip.NewWriter(out)
	for _, p := range paths {
		if err := addEntry(fsys, w, root, p); err != nil {
			w.Close()
			return fmt.Errorf("packing %s: %w", p, err)
		}
	}
	return w.Close()
}

func addEntry(fsys afero.Fs, w *zip.Writer, root, packPath string) error {
	name := strings.TrimPrefix(packPath, "/")
	if name == "" {
		return nil
	}
	src := filepath.Join(root, filepath.FromSlash(name))
	info, err := fsys.Stat(src)
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	if info.IsDir() {
		hdr.Name = name + "/"
		hdr.Method = zip.Store
		_, err = w.CreateHeader(hdr)
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	f, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	dst, err := w.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, f)
	return err
}
