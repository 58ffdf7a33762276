package publish

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Asset is a file captured into memory so it survives branch switches.
type Asset struct {
	Path string // Slash-separated, relative to the capture root
	Data []byte
}

// CollectAssets reads every regular file below dir. The .git directory is
// skipped. Results are sorted by path.
func CollectAssets(dir string) ([]Asset, error) {
	var assets []Asset

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}

		assets = append(assets, Asset{Path: filepath.ToSlash(rel), Data: data})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "collecting assets from %s", dir)
	}

	sort.Slice(assets, func(i, j int) bool { return assets[i].Path < assets[j].Path })
	return assets, nil
}

// WriteAssets writes assets below root, creating parent directories as
// needed. Paths that escape root are rejected.
func WriteAssets(root string, assets []Asset) error {
	for _, a := range assets {
		clean := path.Clean(a.Path)
		if clean == "." || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
			return errors.Errorf("asset path %q escapes %s", a.Path, root)
		}

		if err := writeFile(filepath.Join(root, filepath.FromSlash(clean)), a.Data); err != nil {
			return err
		}
	}
	return nil
}

// writeFile writes data to p, creating parent directories if needed.
func writeFile(p string, data []byte) error {
	dir := filepath.Dir(p)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "creating %s", dir)
		}
	}

	return errors.Wrapf(os.WriteFile(p, data, 0644), "writing %s", p)
}
