package datadog

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/schemafuzz/schemafuzz/internal/metrics"
)

func TestNewBackendRequiresAddr(t *testing.T) {
	if _, err := NewBackend(Config{}); err == nil {
		t.Error("expected error for empty Addr")
	}
}

func TestTagsAreSorted(t *testing.T) {
	got := tags(metrics.Labels{"operation": "DropColumn", "dialect": "mysql"})
	if strings.Join(got, ",") != "dialect:mysql,operation:DropColumn" {
		t.Errorf("unexpected tags %v", got)
	}
	if tags(nil) != nil {
		t.Error("expected nil tags for no labels")
	}
}

func TestBackendSendsToAgent(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp not available: %v", err)
	}
	defer conn.Close()

	b, err := NewBackend(Config{Addr: conn.LocalAddr().String(), GlobalTags: []string{"env:test"}})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	defer b.Close()

	b.IncCounter(metrics.StatementsTotal, 3, metrics.Labels{"dialect": "mysql", "operation": "AddColumn"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	buf := make([]byte, 8192)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			break
		}
		payload := string(buf[:n])
		if strings.Contains(payload, metrics.StatementsTotal+":3|c") {
			if !strings.Contains(payload, "dialect:mysql") || !strings.Contains(payload, "env:test") {
				t.Errorf("payload is missing tags: %q", payload)
			}
			return
		}
	}
	t.Error("counter never reached the agent")
}
