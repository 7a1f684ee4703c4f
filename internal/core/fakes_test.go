package core

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"

	"firmware-sources/internal/shared"
	"firmware-sources/internal/types"
)

type entry struct {
	section string
	key     string
	value   string
}

// testDocument builds a document the way the ini adapter would, keeping
// repeated keys in order.
func testDocument(path string, entries ...entry) types.ConfigDocument {
	doc := types.ConfigDocument{Path: path}
	index := map[string]int{}
	for _, e := range entries {
		i, ok := index[e.section]
		if !ok {
			doc.Sections = append(doc.Sections, types.ConfigSection{Name: e.section, Values: map[string][]string{}})
			i = len(doc.Sections) - 1
			index[e.section] = i
		}
		section := &doc.Sections[i]
		if _, seen := section.Values[e.key]; !seen {
			section.Keys = append(section.Keys, e.key)
		}
		section.Values[e.key] = append(section.Values[e.key], e.value)
	}
	return doc
}

type testConfigSource struct {
	doc   types.ConfigDocument
	err   error
	loads int
}

func (s *testConfigSource) Load(path string) (types.ConfigDocument, error) {
	s.loads++
	if s.err != nil {
		return types.ConfigDocument{}, s.err
	}
	doc := s.doc
	doc.Path = path
	return doc, nil
}

func testParser(entries ...entry) (ConfigParser, *testConfigSource) {
	source := &testConfigSource{doc: testDocument("/work/sources.conf", entries...)}
	return NewConfigParser(source, "/work/sources.conf", ""), source
}

type testVCS struct {
	repos   map[string]bool
	refs    map[string]string
	revs    map[string]string
	remotes map[string]string
}

func (v testVCS) IsRepository(_ context.Context, path string) bool {
	return v.repos[path]
}

func (v testVCS) CurrentRef(_ context.Context, path string) (string, error) {
	ref, ok := v.refs[path]
	if !ok {
		return "", errors.New("detached")
	}
	return ref, nil
}

func (v testVCS) ShortRevision(_ context.Context, path string) (string, error) {
	rev, ok := v.revs[path]
	if !ok {
		return "", errors.New("no commits")
	}
	return rev, nil
}

func (v testVCS) RemoteURL(_ context.Context, path string, remote string) (string, error) {
	url, ok := v.remotes[path+"#"+remote]
	if !ok {
		return "", errors.New("no such remote")
	}
	return url, nil
}

// memStore keeps manifests in memory. failWrites makes WriteAtomic fail
// for the listed paths.
type memStore struct {
	files      map[string][]byte
	failWrites map[string]bool
	writes     int
}

func newMemStore(files map[string]string) *memStore {
	store := &memStore{files: map[string][]byte{}, failWrites: map[string]bool{}}
	for path, content := range files {
		store.files[path] = []byte(content)
	}
	return store
}

func (s *memStore) Exists(path string) bool {
	_, ok := s.files[path]
	return ok
}

func (s *memStore) Read(path string) ([]byte, error) {
	content, ok := s.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return append([]byte(nil), content...), nil
}

func (s *memStore) WriteAtomic(path string, content []byte) error {
	if s.failWrites[path] {
		return errors.New("disk full")
	}
	s.writes++
	s.files[path] = append([]byte(nil), content...)
	return nil
}

func (s *memStore) Remove(path string) error {
	delete(s.files, path)
	return nil
}

func (s *memStore) BackupPath(manifest string) string {
	return manifest + ".pristine"
}

func (s *memStore) FindBackups(root string) ([]string, error) {
	var manifests []string
	for path := range s.files {
		if strings.HasPrefix(path, root) && strings.HasSuffix(path, ".pristine") {
			manifests = append(manifests, strings.TrimSuffix(path, ".pristine"))
		}
	}
	sort.Strings(manifests)
	return manifests, nil
}

func (s *memStore) DiscardTemporary(root string) ([]string, error) {
	var discarded []string
	for path := range s.files {
		if strings.HasPrefix(path, root) && strings.Contains(path, ".tmp-") {
			discarded = append(discarded, path)
			delete(s.files, path)
		}
	}
	sort.Strings(discarded)
	return discarded, nil
}

func (s *memStore) content(path string) string {
	return string(s.files[path])
}

type testBuilder struct {
	stale  bool
	err    error
	builds []string
}

func (b *testBuilder) IsStale(string, string) (bool, error) {
	return b.stale, nil
}

func (b *testBuilder) Build(_ context.Context, dir string, command string) error {
	b.builds = append(b.builds, dir+"$ "+command)
	if b.err != nil {
		return shared.CommandError([]byte(command+": exit status 1"), b.err)
	}
	b.stale = false
	return nil
}

type testFeeds struct {
	entries   map[string]string
	checkouts map[string]string
}

func (f testFeeds) FeedEntry(targetDir string, feed string) (string, bool, error) {
	line, ok := f.entries[targetDir+"#"+feed]
	return line, ok, nil
}

func (f testFeeds) CheckoutDir(targetDir string, feed string) (string, bool) {
	dir, ok := f.checkouts[targetDir+"#"+feed]
	return dir, ok
}
