package adapters

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/afero"

	"firmware-sources/internal/ports"
)

const (
	backupSuffix = ".pristine"
	tempMarker   = ".tmp-"
)

// ManifestFileAdapter stores manifests on an afero filesystem. Writes go
// to a hidden temporary file next to the target and are renamed into
// place.
type ManifestFileAdapter struct {
	Fs afero.Fs
}

func NewManifestFileAdapter(fs afero.Fs) ManifestFileAdapter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return ManifestFileAdapter{Fs: fs}
}

func (a ManifestFileAdapter) Exists(path string) bool {
	info, err := a.Fs.Stat(path)
	return err == nil && !info.IsDir()
}

func (a ManifestFileAdapter) Read(path string) ([]byte, error) {
	content, err := afero.ReadFile(a.Fs, path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to read " + path).
			WithCause(err)
	}
	return content, nil
}

func (a ManifestFileAdapter) WriteAtomic(path string, content []byte) error {
	return writeAtomic(a.Fs, path, content)
}

// writeAtomic writes content to a hidden temporary file beside path and
// renames it into place, keeping the mode of an existing file.
func writeAtomic(fs afero.Fs, path string, content []byte) error {
	dir := filepath.Dir(path)
	mode := os.FileMode(0644)
	if info, err := fs.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+tempMarker+"*")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create temporary file for " + path).
			WithCause(err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(name)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write " + path).
			WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(name)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write " + path).
			WithCause(err)
	}
	if err := fs.Chmod(name, mode); err != nil {
		_ = fs.Remove(name)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to set mode of " + path).
			WithCause(err)
	}
	if err := fs.Rename(name, path); err != nil {
		_ = fs.Remove(name)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to replace " + path).
			WithCause(err)
	}
	return nil
}

func (a ManifestFileAdapter) Remove(path string) error {
	if err := a.Fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to remove " + path).
			WithCause(err)
	}
	return nil
}

func (a ManifestFileAdapter) BackupPath(manifest string) string {
	return manifest + backupSuffix
}

func (a ManifestFileAdapter) FindBackups(root string) ([]string, error) {
	var manifests []string
	err := a.walk(root, func(path string) {
		if strings.HasSuffix(path, backupSuffix) {
			manifests = append(manifests, strings.TrimSuffix(path, backupSuffix))
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(manifests)
	return manifests, nil
}

func (a ManifestFileAdapter) DiscardTemporary(root string) ([]string, error) {
	var found []string
	err := a.walk(root, func(path string) {
		if strings.HasPrefix(filepath.Base(path), ".") && strings.Contains(filepath.Base(path), tempMarker) {
			found = append(found, path)
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(found)
	var discarded []string
	for _, path := range found {
		if err := a.Fs.Remove(path); err != nil {
			return discarded, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to discard " + path).
				WithCause(err)
		}
		discarded = append(discarded, path)
	}
	return discarded, nil
}

func (a ManifestFileAdapter) walk(root string, visit func(path string)) error {
	if strings.TrimSpace(root) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("target directory is empty")
	}
	err := afero.Walk(a.Fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != root && shouldSkipTreeDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		visit(path)
		return nil
	})
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to scan " + root).
			WithCause(err)
	}
	return nil
}

// shouldSkipTreeDir prunes directories that never hold package manifests
// and are expensive to walk in a prepared firmware tree.
func shouldSkipTreeDir(name string) bool {
	switch name {
	case ".git", "build_dir", "staging_dir", "dl", "bin", "tmp", "node_modules":
		return true
	default:
		return false
	}
}

var _ ports.ManifestStorePort = ManifestFileAdapter{}
