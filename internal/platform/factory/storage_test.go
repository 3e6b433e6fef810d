package factory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/orma-app/orma/internal/config"
)

func TestNewStoreSQLite(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "orma.db")

	s, err := NewStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.HealthPing(context.Background()); err != nil {
		t.Fatalf("HealthPing: %v", err)
	}
}

func TestNewStorePostgresRequiresDSN(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.DBDriver = "postgres"
	cfg.PostgresDSN = ""

	if _, err := NewStore(context.Background(), cfg); err == nil {
		t.Fatalf("want error for postgres driver without a DSN")
	}
}

func TestNewStoreUnknownDriver(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.DBDriver = "oracle"

	if _, err := NewStore(context.Background(), cfg); err == nil {
		t.Fatalf("want error for unknown driver")
	}
}
