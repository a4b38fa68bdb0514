package database

import (
	"testing"

	"lifeos/internal/config"
)

func TestConfig_DSN(t *testing.T) {
	c := NewConfig(&config.Config{
		DBHost: "db", DBPort: "5432", DBUser: "lifeos", DBPassword: "secret", DBName: "lifeos", DBSSLMode: "disable",
	})
	want := "host=db port=5432 user=lifeos password=secret dbname=lifeos sslmode=disable"
	if got := c.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestConfig_MigrationURL_EscapesPassword(t *testing.T) {
	c := &Config{Host: "db", Port: "5432", User: "lifeos", Password: "p@ss/word", DBName: "lifeos", SSLMode: "require"}
	want := "postgres://lifeos:p%40ss%2Fword@db:5432/lifeos?sslmode=require"
	if got := c.MigrationURL(); got != want {
		t.Errorf("MigrationURL() = %q, want %q", got, want)
	}
}
