package version_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppgranger/token-saver/internal/version"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want [3]int
	}{
		{"1.2.3", [3]int{1, 2, 3}},
		{"v1.2.3", [3]int{1, 2, 3}},
		{"v1.2.0-beta.1", [3]int{1, 2, 0}},
		{"2.0", [3]int{2, 0, 0}},
		{"10", [3]int{10, 0, 0}},
		{"  v1.3.1 ", [3]int{1, 3, 1}},
	}
	for _, tc := range cases {
		got, err := version.Parse(tc.in)
		require.NoError(t, err, "parse %q", tc.in)
		assert.Equal(t, tc.want, got, "parse %q", tc.in)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "1.x.3", "not-a-version"} {
		_, err := version.Parse(in)
		assert.Error(t, err, "parse %q", in)
	}
}

func TestNewer(t *testing.T) {
	cases := []struct {
		candidate, current string
		want               bool
	}{
		{"1.4.0", "1.3.1", true},
		{"2.0.0", "1.9.9", true},
		{"1.3.2", "1.3.1", true},
		{"1.3.1", "1.3.1", false},
		{"1.3.0", "1.3.1", false},
		{"0.9.9", "1.0.0", false},
		{"v1.4.0", "v1.3.1", true},
	}
	for _, tc := range cases {
		got, err := version.Newer(tc.candidate, tc.current)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s newer than %s", tc.candidate, tc.current)
	}
}

func TestCheckForUpdateNoticesNewerRelease(t *testing.T) {
	fetch := func() (*version.Release, error) {
		return &version.Release{TagName: "v99.0.0"}, nil
	}
	msg := version.CheckForUpdate(fetch)
	assert.Equal(t,
		fmt.Sprintf("Update available: v%s -> v99.0.0 -- Run: token-saver update", version.Version),
		msg)
}

func TestCheckForUpdateQuietWhenCurrent(t *testing.T) {
	fetch := func() (*version.Release, error) {
		return &version.Release{TagName: "v" + version.Version}, nil
	}
	assert.Empty(t, version.CheckForUpdate(fetch))
}

func TestCheckForUpdateQuietWhenOlder(t *testing.T) {
	fetch := func() (*version.Release, error) {
		return &version.Release{TagName: "v0.0.1"}, nil
	}
	assert.Empty(t, version.CheckForUpdate(fetch))
}

func TestCheckForUpdateFailsOpen(t *testing.T) {
	fetch := func() (*version.Release, error) {
		return nil, fmt.Errorf("network unreachable")
	}
	assert.Empty(t, version.CheckForUpdate(fetch))

	malformed := func() (*version.Release, error) {
		return &version.Release{TagName: "not-a-version"}, nil
	}
	assert.Empty(t, version.CheckForUpdate(malformed))
}

func TestRepoHonorsOverride(t *testing.T) {
	t.Setenv("TOKEN_SAVER_REPO", "example/fork")
	assert.Equal(t, "example/fork", version.Repo())
}

func TestRepoDefault(t *testing.T) {
	t.Setenv("TOKEN_SAVER_REPO", "")
	assert.Equal(t, version.DefaultRepo, version.Repo())
}
