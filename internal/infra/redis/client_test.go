package redis

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap/zaptest"

	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/config"
)

func TestNewClientHealthCheck(t *testing.T) {
	server := miniredis.RunT(t)
	port, err := strconv.Atoi(server.Port())
	if err != nil {
		t.Fatalf("port: %v", err)
	}

	client, err := NewClient(context.Background(), config.RedisSettings{Host: server.Host(), Port: port}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("health check: %v", err)
	}

	server.Close()
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail once the server is gone")
	}
}

func TestNewClientUnreachable(t *testing.T) {
	server := miniredis.RunT(t)
	host, port := server.Host(), server.Port()
	server.Close()

	p, _ := strconv.Atoi(port)
	if _, err := NewClient(context.Background(), config.RedisSettings{Host: host, Port: p}, nil); err == nil {
		t.Fatal("expected ping failure")
	}
}
