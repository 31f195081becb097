package processors_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppgranger/token-saver/internal/config"
	"github.com/ppgranger/token-saver/internal/processors"
)

func dockerPsRow(id, image, command, created, status, ports, names string) string {
	return fmt.Sprintf("%-15s%-15s%-16s%-15s%-25s%-22s%s",
		id, image, command, created, status, ports, names)
}

func TestDockerPsGroupsByState(t *testing.T) {
	p := processors.NewDocker(config.Default())

	in := strings.Join([]string{
		dockerPsRow("CONTAINER ID", "IMAGE", "COMMAND", "CREATED", "STATUS", "PORTS", "NAMES"),
		dockerPsRow("abc123def456", "nginx:latest", `"/entry.sh"`, "2 hours ago", "Up 2 hours", "0.0.0.0:80->80/tcp", "web"),
		dockerPsRow("def456abc789", "redis:7", `"redis"`, "3 hours ago", "Up 3 hours", "6379/tcp", "cache"),
		dockerPsRow("789abcdef012", "worker:dev", `"worker"`, "5 hours ago", "Exited (1) 2 hours ago", "", "worker-1"),
	}, "\n")

	want := strings.Join([]string{
		"3 containers:",
		"Running (2):",
		"  web  (nginx:latest)  Up 2 hours  0.0.0.0:80->80/tcp",
		"  cache  (redis:7)  Up 3 hours  6379/tcp",
		"Stopped (1):",
		"  worker-1  (worker:dev)  Exited (1) 2 hours ago",
	}, "\n")
	assert.Equal(t, want, p.Process("docker ps -a", in))
}

func TestDockerLogsKeepsErrorContext(t *testing.T) {
	p := processors.NewDocker(config.Default())

	lines := make([]string, 40)
	for i := range lines {
		lines[i] = fmt.Sprintf("app log line %d", i)
	}
	lines[15] = "ERROR: connection refused to db:5432"

	got := p.Process("docker logs api", strings.Join(lines, "\n"))
	assert.Contains(t, got, "... (40 total lines, showing errors) ...")
	assert.Contains(t, got, "ERROR: connection refused to db:5432")
	assert.Contains(t, got, "app log line 13")
	assert.Contains(t, got, "app log line 17")
	assert.NotContains(t, got, "app log line 11")
}

func TestDockerLogsTruncatesQuietMiddle(t *testing.T) {
	cfg := config.Default()
	p := processors.NewDocker(cfg)

	lines := make([]string, 40)
	for i := range lines {
		lines[i] = fmt.Sprintf("request served in %dms path=/healthz", i)
	}
	got := p.Process("docker logs api", strings.Join(lines, "\n"))

	assert.Contains(t, got, "... (10 lines truncated) ...")
	assert.Contains(t, got, "request served in 0ms")
	assert.Contains(t, got, "request served in 39ms")
	assert.NotContains(t, got, "request served in 15ms")
}

func TestDockerPullDropsLayerNoise(t *testing.T) {
	p := processors.NewDocker(config.Default())

	in := strings.Join([]string{
		"Using default tag: latest",
		"latest: Pulling from library/nginx",
		"abc123: Pulling fs layer",
		"abc123: Downloading [=========>        ]  5.2MB/12MB",
		"abc123: Download complete",
		"abc123: Pull complete",
		"Digest: sha256:abcdef0123456789",
		"Status: Downloaded newer image for nginx:latest",
	}, "\n")

	want := strings.Join([]string{
		"Using default tag: latest",
		"latest: Pulling from library/nginx",
		"Digest: sha256:abcdef0123456789",
		"Status: Downloaded newer image for nginx:latest",
	}, "\n")
	assert.Equal(t, want, p.Process("docker pull nginx", in))
}

func TestDockerInspectKeepsImportantFields(t *testing.T) {
	p := processors.NewDocker(config.Default())

	in := `[
  {
    "Id": "abc123def456",
    "Created": "2026-01-10T10:00:00Z",
    "Name": "/web",
    "State": {
      "Status": "running",
      "Running": true,
      "Pid": 1234
    },
    "Config": {
      "Hostname": "abc123def456",
      "Image": "nginx:latest",
      "Cmd": ["nginx", "-g", "daemon off;"],
      "Env": ["PATH=/usr/bin", "A=1", "B=2", "C=3", "D=4", "E=5", "F=6"]
    },
    "NetworkSettings": {
      "Ports": {"80/tcp": [{"HostIp": "0.0.0.0", "HostPort": "80"}]},
      "Networks": {"bridge": {"IPAddress": "172.17.0.2"}}
    }
  }
]`
	got := p.Process("docker inspect web", in)

	assert.Contains(t, got, "Id: abc123def456")
	assert.Contains(t, got, "State:")
	assert.Contains(t, got, "  Status: running")
	assert.Contains(t, got, "  Running: true")
	assert.Contains(t, got, "Config:")
	assert.Contains(t, got, "  Image: nginx:latest")
	assert.Contains(t, got, "  Env: [7 items]")
	assert.Contains(t, got, "  bridge: 172.17.0.2")
	assert.Contains(t, got, "total lines)")
	assert.NotContains(t, got, "Hostname")
}

func TestDockerStatsKeepsLastRefresh(t *testing.T) {
	p := processors.NewDocker(config.Default())

	var lines []string
	lines = append(lines, "CONTAINER ID   NAME   CPU %   MEM USAGE")
	for i := 0; i < 8; i++ {
		lines = append(lines, fmt.Sprintf("abc%d   web-%d   5.00%%   100MiB", i, i))
	}
	lines = append(lines, "CONTAINER ID   NAME   CPU %   MEM USAGE")
	for i := 0; i < 8; i++ {
		lines = append(lines, fmt.Sprintf("abc%d   web-%d   9.00%%   120MiB", i, i))
	}

	got := p.Process("docker stats --no-stream", strings.Join(lines, "\n"))
	assert.Contains(t, got, "9.00%")
	assert.NotContains(t, got, "5.00%")
	assert.True(t, strings.HasPrefix(got, "CONTAINER ID"))
}

func TestDockerComposeUpKeepsLifecycleLines(t *testing.T) {
	p := processors.NewDocker(config.Default())

	var lines []string
	lines = append(lines, "Network app_default  Created")
	for i := 0; i < 18; i++ {
		lines = append(lines, fmt.Sprintf("db Pulling [%s>  ] %d%%", strings.Repeat("=", i), i*5))
	}
	lines = append(lines,
		"Container app-db-1  Started",
		"Container app-api-1  Started",
		"Container app-web-1  Healthy")

	got := p.Process("docker compose up -d", strings.Join(lines, "\n"))
	assert.Contains(t, got, "Network app_default  Created")
	assert.Contains(t, got, "Container app-db-1  Started")
	assert.Contains(t, got, "Container app-web-1  Healthy")
	assert.NotContains(t, got, "Pulling")
}
