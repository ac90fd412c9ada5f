package importer

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/canvass/internal/model"
)

// ReadShapefileZIP extracts a zipped shapefile bundle into a scratch
// directory and reads its .shp member.
func ReadShapefileZIP(path string) ([]model.Business, error) {
	dir, err := os.MkdirTemp("", "canvass-shp-*")
	if err != nil {
		return nil, eris.Wrap(err, "importer: create temp dir")
	}
	defer func() { _ = os.RemoveAll(dir) }()

	if err := extractZIP(path, dir); err != nil {
		return nil, err
	}
	shpPath, err := findFileByExt(dir, ".shp")
	if err != nil {
		return nil, err
	}
	return ReadShapefile(shpPath)
}

// extractZIP flattens the archive into destDir.
func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "importer: open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if err := extractEntry(f, filepath.Join(destDir, filepath.Base(f.Name))); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return eris.Wrapf(err, "importer: open zip entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(dest)
	if err != nil {
		return eris.Wrapf(err, "importer: create %s", dest)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return eris.Wrapf(err, "importer: extract %s", f.Name)
	}
	return eris.Wrapf(out.Close(), "importer: close %s", dest)
}

func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "importer: read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("importer: no %s file found in %s", ext, dir)
}
