package processors_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppgranger/token-saver/internal/config"
	"github.com/ppgranger/token-saver/internal/processors"
)

func TestPackageListCanHandle(t *testing.T) {
	p := processors.NewPackageList(config.Default())

	assert.True(t, p.CanHandle("pip list"))
	assert.True(t, p.CanHandle("pip3 freeze"))
	assert.True(t, p.CanHandle("npm ls --depth=0"))
	assert.True(t, p.CanHandle("npm list"))
	assert.True(t, p.CanHandle("conda list"))

	assert.False(t, p.CanHandle("pip install requests"))
	assert.False(t, p.CanHandle("npm install"))
	assert.False(t, p.CanHandle("ls -la"))
}

func TestPackageListTruncatesPipList(t *testing.T) {
	p := processors.NewPackageList(config.Default())

	lines := []string{
		"Package            Version",
		"------------------ ----------",
	}
	for i := 1; i <= 25; i++ {
		lines = append(lines, fmt.Sprintf("package-%02d         1.%d.0", i, i))
	}
	in := strings.Join(lines, "\n")

	want := append([]string{"25 packages installed:"}, lines[2:17]...)
	want = append(want, "... (10 more)")
	assert.Equal(t, strings.Join(want, "\n"), p.Process("pip list", in))
}

func TestPackageListSkipsFreezeComments(t *testing.T) {
	p := processors.NewPackageList(config.Default())

	lines := []string{"# generated by pip freeze"}
	for i := 1; i <= 20; i++ {
		lines = append(lines, fmt.Sprintf("package-%02d==1.%d.0", i, i))
	}
	in := strings.Join(lines, "\n")

	want := append([]string{"20 packages installed:"}, lines[1:16]...)
	want = append(want, "... (5 more)")
	assert.Equal(t, strings.Join(want, "\n"), p.Process("pip3 freeze", in))
}

func TestPackageListShortListingUntouched(t *testing.T) {
	p := processors.NewPackageList(config.Default())

	lines := []string{
		"Package    Version",
		"---------- -------",
	}
	for i := 1; i <= 10; i++ {
		lines = append(lines, fmt.Sprintf("package-%02d 1.0.0", i))
	}
	in := strings.Join(lines, "\n")
	assert.Equal(t, in, p.Process("pip list", in))
}

func npmTreeFixture(extra ...string) string {
	lines := []string{
		"myapp@1.0.0 /home/user/myapp",
		"├── express@4.18.2",
		"│ ├── accepts@1.3.8",
		"│ ├── array-flatten@1.1.1",
		"│ ├── body-parser@1.20.1",
		"│ ├── content-type@1.0.4",
		"│ ├── cookie@0.5.0",
		"│ ├── debug@2.6.9",
		"│ └── fresh@0.5.2",
		"├── pg@8.11.0",
		"│ ├── pg-connection-string@2.6.0",
		"│ ├── pg-pool@3.6.0",
		"│ ├── pg-protocol@1.6.0",
		"│ └── pg-types@2.2.0",
		"├── winston@3.8.2",
		"│ ├── async@3.2.4",
		"│ ├── logform@2.5.1",
		"│ └── readable-stream@3.6.0",
		"└── zod@3.21.4",
	}
	return strings.Join(append(lines, extra...), "\n")
}

func TestPackageListCollapsesNpmTree(t *testing.T) {
	p := processors.NewPackageList(config.Default())

	want := strings.Join([]string{
		"myapp@1.0.0 /home/user/myapp",
		"18 total dependencies",
		"Top-level (4):",
		"  express@4.18.2",
		"  pg@8.11.0",
		"  winston@3.8.2",
		"  zod@3.21.4",
	}, "\n")
	assert.Equal(t, want, p.Process("npm ls", npmTreeFixture()))
}

func TestPackageListReportsNpmTreeIssues(t *testing.T) {
	p := processors.NewPackageList(config.Default())

	in := npmTreeFixture(
		"│ ├── UNMET DEPENDENCY react@^18.0.0",
		"npm ERR! missing: react@^18.0.0, required by myapp@1.0.0",
	)
	want := strings.Join([]string{
		"myapp@1.0.0 /home/user/myapp",
		"19 total dependencies",
		"Top-level (4):",
		"  express@4.18.2",
		"  pg@8.11.0",
		"  winston@3.8.2",
		"  zod@3.21.4",
		"Issues (2):",
		"  │ ├── UNMET DEPENDENCY react@^18.0.0",
		"  npm ERR! missing: react@^18.0.0, required by myapp@1.0.0",
	}, "\n")
	assert.Equal(t, want, p.Process("npm list", in))
}

func TestPackageListSmallNpmTreeUntouched(t *testing.T) {
	p := processors.NewPackageList(config.Default())

	in := strings.Join([]string{
		"myapp@1.0.0 /home/user/myapp",
		"├── express@4.18.2",
		"├── lodash@4.17.21",
		"└── zod@3.21.4",
	}, "\n")
	assert.Equal(t, in, p.Process("npm ls", in))
}

func TestPackageListEmptyOutputUntouched(t *testing.T) {
	p := processors.NewPackageList(config.Default())
	assert.Equal(t, "", p.Process("pip list", ""))
}
