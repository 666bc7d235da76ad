// Package testutil holds shared helpers for tests. It deliberately avoids
// importing the internal package so in-package tests can use it without an
// import cycle; the fake backend speaks raw JSON.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// TempStorePath returns a path for a throwaway sqlite store inside a
// test-scoped temp directory.
func TempStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "afs.db")
}

// CreateTempDir creates a temporary directory for testing
func CreateTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "afs-chat-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	return dir
}

// JSONMarshal marshals a value to JSON for testing
func JSONMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal JSON: %v", err)
	}
	return data
}

// JSONUnmarshal unmarshals JSON for testing
func JSONUnmarshal(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
}
