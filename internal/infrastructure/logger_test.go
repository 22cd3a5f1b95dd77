package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataingest/internal/config"
)

func testLoggingConfig(dir string) config.LoggingConfig {
	return config.LoggingConfig{
		Level:  "debug",
		Format: "json",
		Dir:    dir,
	}
}

func readLogLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), "log line is not valid JSON: %s", line)
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggerRegistry_WritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	registry := NewLoggerRegistry(testLoggingConfig(dir), &console)
	defer registry.Close()

	logger := registry.Logger("partitioner")
	logger.Info("raw data split", "train_rows", 80)

	logFile := filepath.Join(dir, "partitioner.log")
	assert.Equal(t, logFile, registry.LogFilePath("partitioner"))
	require.NoError(t, registry.Close())

	entries := readLogLines(t, logFile)
	require.Len(t, entries, 1)
	assert.Equal(t, "raw data split", entries[0]["msg"])
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "partitioner", entries[0]["component"])
	assert.Equal(t, float64(80), entries[0]["train_rows"])
	assert.NotEmpty(t, entries[0]["time"])

	assert.Contains(t, console.String(), `"msg":"raw data split"`)
}

func TestLoggerRegistry_IdempotentPerComponent(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	registry := NewLoggerRegistry(testLoggingConfig(dir), &console)

	first := registry.Logger("persister")
	second := registry.Logger("persister")
	assert.Same(t, first, second)

	second.Info("saved")
	require.NoError(t, registry.Close())

	assert.Len(t, readLogLines(t, filepath.Join(dir, "persister.log")), 1)
	assert.Equal(t, 1, strings.Count(console.String(), `"msg":"saved"`))
}

func TestLoggerRegistry_SeparateFilesPerComponent(t *testing.T) {
	dir := t.TempDir()
	registry := NewLoggerRegistry(testLoggingConfig(dir), nil)

	registry.Logger("config_loader").Info("params fetched")
	registry.Logger("dataset_reader").Error("data file not found")
	require.NoError(t, registry.Close())

	loader := readLogLines(t, filepath.Join(dir, "config_loader.log"))
	reader := readLogLines(t, filepath.Join(dir, "dataset_reader.log"))
	require.Len(t, loader, 1)
	require.Len(t, reader, 1)
	assert.Equal(t, "ERROR", reader[0]["level"])
}

func TestLoggerRegistry_LevelFilter(t *testing.T) {
	dir := t.TempDir()
	cfg := testLoggingConfig(dir)
	cfg.Level = "error"
	registry := NewLoggerRegistry(cfg, nil)

	logger := registry.Logger("data_ingestion")
	logger.Info("dropped")
	logger.Error("kept")
	require.NoError(t, registry.Close())

	entries := readLogLines(t, filepath.Join(dir, "data_ingestion.log"))
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0]["msg"])
}

func TestLoggerRegistry_TextFormat(t *testing.T) {
	dir := t.TempDir()
	cfg := testLoggingConfig(dir)
	cfg.Format = "text"
	var console bytes.Buffer
	registry := NewLoggerRegistry(cfg, &console)

	registry.Logger("persister").Info("train and test data saved")
	require.NoError(t, registry.Close())

	out := console.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "component=persister")
	assert.Contains(t, out, `msg="train and test data saved"`)
	assert.Contains(t, out, "time=")
}

func TestLoggerRegistry_UnwritableDirFallsBackToConsole(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	var console bytes.Buffer
	registry := NewLoggerRegistry(testLoggingConfig(blocker), &console)
	defer registry.Close()

	registry.Logger("partitioner").Info("still logged")

	out := console.String()
	assert.Contains(t, out, "Failed to open component log file")
	assert.Contains(t, out, "still logged")
}

func TestRunIDInjection(t *testing.T) {
	dir := t.TempDir()
	registry := NewLoggerRegistry(testLoggingConfig(dir), nil)

	ctx := WithRunID(context.Background(), "run-123")
	registry.Logger("data_ingestion").InfoContext(ctx, "run started")
	registry.Logger("data_ingestion").Info("no context")
	require.NoError(t, registry.Close())

	entries := readLogLines(t, filepath.Join(dir, "data_ingestion.log"))
	require.Len(t, entries, 2)
	assert.Equal(t, "run-123", entries[0]["run_id"])
	_, ok := entries[1]["run_id"]
	assert.False(t, ok)
}

func TestInitializeLogging_ProcessWideRegistry(t *testing.T) {
	ResetLoggingForTesting()
	defer ResetLoggingForTesting()

	dir := t.TempDir()
	registry := InitializeLogging(testLoggingConfig(dir))
	again := InitializeLogging(testLoggingConfig(filepath.Join(dir, "ignored")))
	assert.Same(t, registry, again)

	assert.Same(t, registry.Logger("persister"), again.Logger("persister"))

	again.Logger("persister").Info("hello")
	require.NoError(t, CloseLogging())

	assert.Len(t, readLogLines(t, filepath.Join(dir, "persister.log")), 1)
	assert.NoDirExists(t, filepath.Join(dir, "ignored"))
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"INFO":    "INFO",
		"warn":    "WARN",
		"warning": "WARN",
		"error":   "ERROR",
		"bogus":   "INFO",
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in).String(), in)
	}
}
