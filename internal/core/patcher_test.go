package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firmware-sources/internal/shared"
	"firmware-sources/internal/types"
)

const widgetManifest = "include $(TOPDIR)/rules.mk\n\nNAME:=widget\nVER:=0.1\nURL:=https://dl.example.com/widget\n\ninclude $(INCLUDE_DIR)/package.mk\n"

func widgetPatcher(t *testing.T, extra ...entry) (ManifestPatcher, *memStore, *testBuilder) {
	t.Helper()
	entries := append([]entry{
		{SectionSources, "widget-source-local", "local:/srv/widget"},
		{SectionSources, "widget-source-default", "tarball:https://example.com/dl:v1.2.3"},
		{SectionPatches, "widget", "source_replacement:SRC:URL:VER"},
	}, extra...)
	parser, _ := testParser(entries...)
	store := newMemStore(map[string]string{
		"/tree/package/widget/Makefile": widgetManifest,
	})
	vcs := testVCS{
		repos: map[string]bool{"/srv/widget": true},
		revs:  map[string]string{"/srv/widget": "abc1234"},
	}
	builder := &testBuilder{}
	return NewManifestPatcher(parser, store, vcs, builder), store, builder
}

func TestApplyLocalModeRewritesManifest(t *testing.T) {
	patcher, store, _ := widgetPatcher(t)

	result, err := patcher.Apply(t.Context(), types.ModeLocal, "/tree")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Patched)
	assert.Equal(t, 0, result.Failed)

	want := "include $(TOPDIR)/rules.mk\n\nNAME:=widget\nSRC:=widget-dev-abc1234.tar.gz\nURL:=file:///srv/widget\nVER:=dev-abc1234\n\ninclude $(INCLUDE_DIR)/package.mk\n"
	if diff := cmp.Diff(want, store.content("/tree/package/widget/Makefile")); diff != "" {
		t.Fatalf("unexpected manifest (-want +got):\n%s", diff)
	}
	assert.Equal(t, widgetManifest, store.content("/tree/package/widget/Makefile.pristine"))
}

func TestApplyDefaultModeUsesTarball(t *testing.T) {
	patcher, store, _ := widgetPatcher(t)

	_, err := patcher.Apply(t.Context(), types.ModeDefault, "/tree")
	require.NoError(t, err)
	got := store.content("/tree/package/widget/Makefile")
	assert.Contains(t, got, "URL:=https://example.com/dl\n")
	assert.Contains(t, got, "VER:=v1.2.3\n")
	assert.Contains(t, got, "SRC:=widget-v1.2.3.tar.gz\n")
	assert.NotContains(t, got, "VER:=0.1")
}

func TestApplyIsIdempotentAndRestorable(t *testing.T) {
	patcher, store, _ := widgetPatcher(t)

	var first string
	for i := 0; i < 3; i++ {
		_, err := patcher.Apply(t.Context(), types.ModeLocal, "/tree")
		require.NoError(t, err)
		got := store.content("/tree/package/widget/Makefile")
		if i == 0 {
			first = got
			continue
		}
		if diff := cmp.Diff(first, got); diff != "" {
			t.Fatalf("apply %d drifted (-first +got):\n%s", i+1, diff)
		}
	}

	result, err := patcher.Restore(t.Context(), "/tree")
	require.NoError(t, err)
	assert.Equal(t, []string{"/tree/package/widget/Makefile"}, result.Restored)
	assert.Equal(t, widgetManifest, store.content("/tree/package/widget/Makefile"))
	assert.False(t, store.Exists("/tree/package/widget/Makefile.pristine"))
}

func TestPatchRestorePatchIsStable(t *testing.T) {
	patcher, store, _ := widgetPatcher(t)

	_, err := patcher.Apply(t.Context(), types.ModeLocal, "/tree")
	require.NoError(t, err)
	first := store.content("/tree/package/widget/Makefile")

	_, err = patcher.Restore(t.Context(), "/tree")
	require.NoError(t, err)
	_, err = patcher.Apply(t.Context(), types.ModeLocal, "/tree")
	require.NoError(t, err)
	assert.Equal(t, first, store.content("/tree/package/widget/Makefile"))
}

func TestApplySwitchingModesStartsFromPristine(t *testing.T) {
	patcher, store, _ := widgetPatcher(t)

	_, err := patcher.Apply(t.Context(), types.ModeLocal, "/tree")
	require.NoError(t, err)
	_, err = patcher.Apply(t.Context(), types.ModeDefault, "/tree")
	require.NoError(t, err)

	got := store.content("/tree/package/widget/Makefile")
	assert.NotContains(t, got, "file:///srv/widget")
	assert.NotContains(t, got, "dev-abc1234")
}

func TestApplyUnknownPatchTypeLeavesTreeUntouched(t *testing.T) {
	patcher, store, _ := widgetPatcher(t, entry{SectionPatches, "agent", "rebase:PKG_VERSION"})

	_, err := patcher.Apply(t.Context(), types.ModeLocal, "/tree")
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindPatchTypeUnknown))
	assert.Equal(t, 0, store.writes)
	assert.Equal(t, widgetManifest, store.content("/tree/package/widget/Makefile"))
}

func TestApplySkipsUnconfiguredAndMissing(t *testing.T) {
	patcher, _, _ := widgetPatcher(t,
		entry{SectionPatches, "agent", "version_override:PKG_VERSION"},
		entry{SectionPatches, "bridge", "version_override:PKG_VERSION"},
		entry{SectionSources, "bridge-source-default", "git:https://git.example.com/bridge.git:v3"},
	)

	result, err := patcher.Apply(t.Context(), types.ModeDefault, "/tree")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Patched)
	assert.Equal(t, 2, result.Skipped)

	reasons := map[string]string{}
	for _, pkg := range result.Packages {
		reasons[pkg.Package] = pkg.Reason
	}
	assert.Contains(t, reasons["agent"], string(shared.KindSourceNotConfigured))
	assert.Contains(t, reasons["bridge"], string(shared.KindManifestNotFound))
}

func TestApplyFeedDefaultLeavesPristine(t *testing.T) {
	patcher, store, _ := widgetPatcher(t)
	_, err := patcher.Apply(t.Context(), types.ModeDefault, "/tree")
	require.NoError(t, err)

	parser, _ := testParser(
		entry{SectionSources, "widget-source-default", "feed_default"},
		entry{SectionPatches, "widget", "source_replacement:SRC:URL:VER"},
	)
	patcher.Parser = parser
	result, err := patcher.Apply(t.Context(), types.ModeDefault, "/tree")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, widgetManifest, store.content("/tree/package/widget/Makefile"))
}

func TestApplyVersionOverride(t *testing.T) {
	parser, _ := testParser(
		entry{SectionSources, "agent-source-default", "tarball:https://dl.example.com/agent:0.9.0"},
		entry{SectionPatches, "agent", "version_override:PKG_VERSION"},
	)
	store := newMemStore(map[string]string{
		"/tree/feeds/packages/agent/Makefile": agentManifest,
	})
	patcher := NewManifestPatcher(parser, store, testVCS{}, nil)

	result, err := patcher.Apply(t.Context(), types.ModeDefault, "/tree")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Patched)

	got := store.content("/tree/feeds/packages/agent/Makefile")
	assert.Contains(t, got, "PKG_NAME:=agent\nPKG_VERSION:=0.9.0\n")
	assert.Contains(t, got, "PKG_SOURCE:=agent-1.0.0.tar.gz")
}

func TestApplyFrontendBuildsWhenStale(t *testing.T) {
	entries := []entry{
		{SectionSources, "webui-source-local", "local:/srv/webui"},
		{SectionPatches, "webui", "source_replacement:PKG_SOURCE:PKG_SOURCE_URL:PKG_VERSION"},
	}
	parser, _ := testParser(entries...)
	store := newMemStore(map[string]string{
		"/tree/package/webui/Makefile": "PKG_NAME:=webui\nPKG_VERSION:=1.0\nPKG_SOURCE_URL:=https://x\n",
	})
	builder := &testBuilder{stale: true}
	patcher := NewManifestPatcher(parser, store, testVCS{}, builder)

	result, err := patcher.Apply(t.Context(), types.ModeLocal, "/tree")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Patched)
	assert.Equal(t, []string{"/srv/webui$ npm run build"}, builder.builds)

	want := "PKG_NAME:=webui\nPKG_VERSION:=dev-local\n" +
		BuildBlockBegin + "\n" +
		"define Build/Prepare\n" +
		"\tmkdir -p $(PKG_BUILD_DIR)\n" +
		"\t$(CP) /srv/webui/dist/. $(PKG_BUILD_DIR)/\n" +
		"endef\n" +
		BuildBlockEnd + "\n"
	if diff := cmp.Diff(want, store.content("/tree/package/webui/Makefile")); diff != "" {
		t.Fatalf("unexpected manifest (-want +got):\n%s", diff)
	}

	_, err = patcher.Apply(t.Context(), types.ModeLocal, "/tree")
	require.NoError(t, err)
	assert.Len(t, builder.builds, 1)
}

func TestApplyFrontendVersionOverrideSkipsBuild(t *testing.T) {
	parser, _ := testParser(
		entry{SectionSources, "webui-source-local", "local:/srv/webui"},
		entry{SectionPatches, "webui", "version_override:PKG_VERSION"},
	)
	store := newMemStore(map[string]string{
		"/tree/package/webui/Makefile": "PKG_NAME:=webui\nPKG_VERSION:=1.0\nPKG_SOURCE_URL:=https://x\n",
	})
	builder := &testBuilder{stale: true}
	patcher := NewManifestPatcher(parser, store, testVCS{}, builder)

	result, err := patcher.Apply(t.Context(), types.ModeLocal, "/tree")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Patched)
	assert.Empty(t, builder.builds)
	want := "PKG_NAME:=webui\nPKG_VERSION:=dev-local\nPKG_SOURCE_URL:=https://x\n"
	if diff := cmp.Diff(want, store.content("/tree/package/webui/Makefile")); diff != "" {
		t.Fatalf("unexpected manifest (-want +got):\n%s", diff)
	}
}

func TestApplyFrontendBuildFailureIsIsolated(t *testing.T) {
	parser, _ := testParser(
		entry{SectionSources, "webui-source-local", "local:/srv/webui"},
		entry{SectionSources, "widget-source-local", "local:/srv/widget"},
		entry{SectionPatches, "webui", "source_replacement:PKG_SOURCE:PKG_SOURCE_URL:PKG_VERSION"},
		entry{SectionPatches, "widget", "source_replacement:SRC:URL:VER"},
	)
	store := newMemStore(map[string]string{
		"/tree/package/webui/Makefile":  "PKG_NAME:=webui\nPKG_VERSION:=1.0\n",
		"/tree/package/widget/Makefile": widgetManifest,
	})
	builder := &testBuilder{stale: true, err: errors.New("exit status 1")}
	patcher := NewManifestPatcher(parser, store, testVCS{}, builder)

	result, err := patcher.Apply(t.Context(), types.ModeLocal, "/tree")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Patched)
	assert.Equal(t, types.PatchOutcomeFailed, result.Packages[0].Outcome)
	assert.Contains(t, result.Packages[0].Reason, string(shared.KindBuildStepFailed))
	assert.Equal(t, "PKG_NAME:=webui\nPKG_VERSION:=1.0\n", store.content("/tree/package/webui/Makefile"))
}

func TestApplyWriteFailureCountsAsFailed(t *testing.T) {
	patcher, store, _ := widgetPatcher(t)
	store.failWrites["/tree/package/widget/Makefile"] = true

	result, err := patcher.Apply(t.Context(), types.ModeLocal, "/tree")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, widgetManifest, store.content("/tree/package/widget/Makefile"))
}

func TestRestoreDiscardsTemporaryFiles(t *testing.T) {
	patcher, store, _ := widgetPatcher(t)
	store.files["/tree/package/widget/.Makefile.tmp-123"] = []byte("half")

	result, err := patcher.Restore(t.Context(), "/tree")
	require.NoError(t, err)
	assert.Empty(t, result.Restored)
	assert.Equal(t, []string{"/tree/package/widget/.Makefile.tmp-123"}, result.Discarded)
}
