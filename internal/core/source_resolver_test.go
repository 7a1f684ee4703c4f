package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firmware-sources/internal/shared"
	"firmware-sources/internal/types"
)

func TestResolveSourceLocalAndDefault(t *testing.T) {
	parser, _ := testParser(
		entry{SectionSources, "webui-source-local", "local:/srv/webui"},
		entry{SectionSources, "webui-source-default", "git:https://git.example.com/webui.git:v2.1.0"},
	)
	resolver := NewSourceResolver(parser)

	local, err := resolver.ResolveSource(t.Context(), "webui", types.ModeLocal)
	require.NoError(t, err)
	if diff := cmp.Diff(types.LocalSource("/srv/webui", ""), local); diff != "" {
		t.Fatalf("unexpected local source (-want +got):\n%s", diff)
	}

	def, err := resolver.ResolveSource(t.Context(), "webui", types.ModeDefault)
	require.NoError(t, err)
	if diff := cmp.Diff(types.GitSource("https://git.example.com/webui.git", "v2.1.0"), def); diff != "" {
		t.Fatalf("unexpected default source (-want +got):\n%s", diff)
	}
}

func TestResolveSourceUseLocalReposForcesLocal(t *testing.T) {
	parser, _ := testParser(
		entry{SectionGeneral, "use_local_repos", "yes"},
		entry{SectionGeneral, "use_local_repos", "1"},
		entry{SectionSources, "agent-source-default", "tarball:https://dl.example.com/agent:1.4.2"},
	)
	resolver := NewSourceResolver(parser)

	// "yes" is not a boolean for strconv, so the first value disables the flag.
	spec, err := resolver.ResolveSource(t.Context(), "agent", types.ModeDefault)
	require.NoError(t, err)
	assert.Equal(t, types.SourceKindTarball, spec.Kind)

	parser, _ = testParser(
		entry{SectionGeneral, "use_local_repos", "true"},
		entry{SectionSources, "agent-source-default", "tarball:https://dl.example.com/agent:1.4.2"},
	)
	resolver = NewSourceResolver(parser)
	spec, err = resolver.ResolveSource(t.Context(), "agent", types.ModeDefault)
	require.NoError(t, err)
	assert.Equal(t, types.LocalSource("/work/repos/agent", ""), spec)
}

func TestResolveSourceLocalFallbackIsSynthesized(t *testing.T) {
	parser, _ := testParser(entry{SectionGeneral, "root", "/opt/fw"})
	resolver := NewSourceResolver(parser)

	spec, err := resolver.ResolveSource(t.Context(), "bridge", types.ModeLocal)
	require.NoError(t, err)
	assert.Equal(t, types.LocalSource("/opt/fw/repos/bridge", ""), spec)
}

func TestResolveSourceDefaultNeverFallsBack(t *testing.T) {
	parser, _ := testParser(entry{SectionSources, "bridge-source-local", "local:/srv/bridge"})
	resolver := NewSourceResolver(parser)

	_, err := resolver.ResolveSource(t.Context(), "bridge", types.ModeDefault)
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindSourceNotConfigured))
}

func TestResolveSourceRelativeLocalPathIsRooted(t *testing.T) {
	parser, _ := testParser(
		entry{SectionGeneral, "root", "/opt/fw"},
		entry{SectionSources, "webui-source-local", "local:checkouts/webui:feature-x"},
	)
	resolver := NewSourceResolver(parser)

	spec, err := resolver.ResolveSource(t.Context(), "webui", types.ModeLocal)
	require.NoError(t, err)
	assert.Equal(t, types.LocalSource("/opt/fw/checkouts/webui", "feature-x"), spec)
}

func TestResolveRepository(t *testing.T) {
	parser, _ := testParser(
		entry{SectionRepositories, "openwrt", "https://git.example.com/openwrt.git|v23.05.3|upstream"},
		entry{SectionRepositories, "packages", "https://git.example.com/packages.git"},
	)
	resolver := NewSourceResolver(parser)

	repo, err := resolver.ResolveRepository(t.Context(), "openwrt")
	require.NoError(t, err)
	want := types.RepositoryEntry{Name: "openwrt", URL: "https://git.example.com/openwrt.git", Ref: "v23.05.3", Remote: "upstream"}
	if diff := cmp.Diff(want, repo); diff != "" {
		t.Fatalf("unexpected repository (-want +got):\n%s", diff)
	}

	repo, err = resolver.ResolveRepository(t.Context(), "packages")
	require.NoError(t, err)
	assert.Equal(t, "origin", repo.Remote)
	assert.Empty(t, repo.Ref)

	_, err = resolver.ResolveRepository(t.Context(), "luci")
	assert.True(t, shared.IsKind(err, shared.KindRepositoryNotConfigured))

	repos, err := resolver.Repositories(t.Context())
	require.NoError(t, err)
	assert.Len(t, repos, 2)
}

func TestParseSourceSpec(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  types.SourceSpec
	}{
		{"local", "local:/srv/webui", types.LocalSource("/srv/webui", "")},
		{"local with ref", "local:/srv/webui:main", types.LocalSource("/srv/webui", "main")},
		{"git https", "git:https://git.example.com/x.git", types.GitSource("https://git.example.com/x.git", "")},
		{"git https with ref", "git:https://git.example.com/x.git:v1.2", types.GitSource("https://git.example.com/x.git", "v1.2")},
		{"git with port", "git:https://git.example.com:8443/x.git", types.GitSource("https://git.example.com:8443/x.git", "")},
		{"git with port and ref", "git:https://git.example.com:8443/x.git:dev", types.GitSource("https://git.example.com:8443/x.git", "dev")},
		{"git scp", "git:git@github.com:org/repo.git", types.GitSource("git@github.com:org/repo.git", "")},
		{"git scp with ref", "git:git@github.com:org/repo.git:v1", types.GitSource("git@github.com:org/repo.git", "v1")},
		{"tarball", "tarball:https://dl.example.com/agent:1.4.2", types.TarballSource("https://dl.example.com/agent", "1.4.2")},
		{"tarball numeric version", "tarball:https://dl.example.com/dl:2", types.TarballSource("https://dl.example.com/dl", "2")},
		{"feed default", "feed_default", types.FeedDefaultSource()},
		{"upper case type", "LOCAL:/srv/x", types.LocalSource("/srv/x", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSourceSpec(tt.value)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected spec (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseSourceSpecRejects(t *testing.T) {
	for _, value := range []string{"svn:https://x", "local:", "tarball:https://dl.example.com/agent", ""} {
		_, err := ParseSourceSpec(value)
		require.Error(t, err, value)
		assert.True(t, shared.IsKind(err, shared.KindConfigCorrupt), value)
	}
}

func TestSourceSpecStringRoundTrip(t *testing.T) {
	for _, value := range []string{
		"local:/srv/webui:main",
		"git:https://git.example.com:8443/x.git:dev",
		"tarball:https://dl.example.com/agent:1.4.2",
		"feed_default",
	} {
		spec, err := ParseSourceSpec(value)
		require.NoError(t, err)
		assert.Equal(t, value, spec.String())
	}
}

func TestParsePatchConfig(t *testing.T) {
	config, err := ParsePatchConfig("webui", "source_replacement:PKG_SOURCE:PKG_SOURCE_URL:PKG_VERSION")
	require.NoError(t, err)
	want := types.PatchConfig{
		Package:    "webui",
		Type:       types.PatchTypeSourceReplacement,
		SourceVar:  "PKG_SOURCE",
		URLVar:     "PKG_SOURCE_URL",
		VersionVar: "PKG_VERSION",
	}
	if diff := cmp.Diff(want, config); diff != "" {
		t.Fatalf("unexpected patch config (-want +got):\n%s", diff)
	}

	config, err = ParsePatchConfig("agent", "version_override:PKG_VERSION")
	require.NoError(t, err)
	assert.Equal(t, []string{"PKG_VERSION"}, config.Vars())

	_, err = ParsePatchConfig("agent", "rebase:PKG_VERSION")
	assert.True(t, shared.IsKind(err, shared.KindPatchTypeUnknown))

	_, err = ParsePatchConfig("agent", "source_replacement:PKG_SOURCE")
	assert.True(t, shared.IsKind(err, shared.KindConfigCorrupt))
}
