package processors_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppgranger/token-saver/internal/config"
	"github.com/ppgranger/token-saver/internal/processors"
)

func kubectlPodRow(name, ready, status, restarts, age string) string {
	return fmt.Sprintf("%-40s%-8s%-20s%-10s%s", name, ready, status, restarts, age)
}

func TestKubectlGetPodsCollapsesHealthy(t *testing.T) {
	p := processors.NewKubectl(config.Default())

	lines := []string{kubectlPodRow("NAME", "READY", "STATUS", "RESTARTS", "AGE")}
	for i := 0; i < 8; i++ {
		lines = append(lines, kubectlPodRow(fmt.Sprintf("api-%d", i), "1/1", "Running", "0", "2d"))
	}
	lines = append(lines, kubectlPodRow("worker-0", "0/1", "CrashLoopBackOff", "12", "1d"))
	lines = append(lines, kubectlPodRow("migrate-1", "0/1", "Completed", "0", "3d"))

	got := p.Process("kubectl get pods -n prod", strings.Join(lines, "\n"))
	assert.Contains(t, got, "CrashLoopBackOff")
	assert.Contains(t, got, "... (9 pods Running/Ready)")
	assert.NotContains(t, got, "AGE")
	assert.NotContains(t, got, "api-3")
}

func TestKubectlGetNotReadyPodStaysVerbatim(t *testing.T) {
	p := processors.NewKubectl(config.Default())

	lines := []string{kubectlPodRow("NAME", "READY", "STATUS", "RESTARTS", "AGE")}
	for i := 0; i < 9; i++ {
		lines = append(lines, kubectlPodRow(fmt.Sprintf("api-%d", i), "2/2", "Running", "0", "2d"))
	}
	lines = append(lines, kubectlPodRow("api-9", "1/2", "Running", "3", "2d"))

	got := p.Process("kubectl get pods", strings.Join(lines, "\n"))
	assert.Contains(t, got, "api-9")
	assert.Contains(t, got, "1/2")
	assert.Contains(t, got, "... (9 pods Running/Ready)")
}

func TestKubectlDescribeDropsNoiseSections(t *testing.T) {
	p := processors.NewKubectl(config.Default())

	in := strings.Join([]string{
		"Name:             api-7d9f",
		"Namespace:        prod",
		"Priority:         0",
		"Node:             node-1/10.0.0.5",
		"Labels:           app=api",
		"Annotations:      kubectl.kubernetes.io/last-applied-configuration={...}",
		"Status:           Running",
		"Containers:",
		"  api:",
		"    Image:        registry/app:1.2.3",
		"    Port:         8080/TCP",
		"    State:        Running",
		"Tolerations:      node.kubernetes.io/not-ready:NoExecute",
		"Volumes:",
		"  kube-api-access:",
		"    Type:         Projected",
		"QoS Class:        Burstable",
		"Events:",
		"  Type     Reason     Age   From               Message",
		"  Normal   Scheduled  10m   default-scheduler  Successfully assigned",
		"  Warning  BackOff    2m    kubelet            Back-off restarting failed container",
	}, "\n")
	got := p.Process("kubectl describe pod api-7d9f", in)

	assert.Contains(t, got, "Name:             api-7d9f")
	assert.Contains(t, got, "Containers:")
	assert.Contains(t, got, "Image:        registry/app:1.2.3")
	assert.Contains(t, got, "Warning  BackOff")
	assert.NotContains(t, got, "Tolerations")
	assert.NotContains(t, got, "QoS Class")
	assert.NotContains(t, got, "Annotations")
	assert.NotContains(t, got, "Normal   Scheduled")
	assert.NotContains(t, got, "Projected")
}

func TestKubectlLogsKeepsErrorContext(t *testing.T) {
	p := processors.NewKubectl(config.Default())

	lines := make([]string, 35)
	for i := range lines {
		lines[i] = fmt.Sprintf("handled request %d", i)
	}
	lines[12] = "panic: runtime error: index out of range"

	got := p.Process("kubectl logs api-7d9f -n prod", strings.Join(lines, "\n"))
	assert.Contains(t, got, "... (35 total lines, showing errors) ...")
	assert.Contains(t, got, "panic: runtime error")
	assert.Contains(t, got, "handled request 11")
	assert.Contains(t, got, "handled request 13")
	assert.NotContains(t, got, "handled request 14")
}

func TestKubectlApplySummaryKeepsMutations(t *testing.T) {
	p := processors.NewKubectl(config.Default())

	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, fmt.Sprintf("configmap/cm-%d created", i))
	}
	for i := 0; i < 5; i++ {
		lines = append(lines, fmt.Sprintf("validating manifest chunk %d of 5", i))
	}

	got := p.Process("kubectl apply -f manifests/", strings.Join(lines, "\n"))
	assert.Contains(t, got, "configmap/cm-0 created")
	assert.Contains(t, got, "configmap/cm-19 created")
	assert.NotContains(t, got, "validating manifest")
}
