package ports

// ManifestStorePort reads and writes package build manifests and their
// pristine backups under a target tree.
type ManifestStorePort interface {
	Exists(path string) bool
	Read(path string) ([]byte, error)
	// WriteAtomic replaces path through a temporary file in the same
	// directory, so readers see either the old or the new content.
	WriteAtomic(path string, content []byte) error
	Remove(path string) error
	BackupPath(manifest string) string
	// FindBackups returns manifest paths that currently have a backup.
	FindBackups(root string) ([]string, error)
	// DiscardTemporary removes temporary files left by interrupted writes.
	DiscardTemporary(root string) ([]string, error)
}
