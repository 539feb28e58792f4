package capture

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeChunk(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
}

func TestChunkDirOrderAndEOF(t *testing.T) {
	dir := t.TempDir()
	writeChunk(t, dir, "chunk-002.webm", []byte("second"))
	writeChunk(t, dir, "chunk-001.webm", []byte("first"))
	writeChunk(t, dir, "notes.txt", []byte("not audio"))

	src, err := OpenChunkDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, src.Remaining())

	ctx := context.Background()
	data, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	data, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	_, err = src.Next(ctx)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 0, src.Remaining())
}

func TestChunkDirEmpty(t *testing.T) {
	_, err := OpenChunkDir(t.TempDir())
	assert.Error(t, err)
}

func TestChunkDirMissing(t *testing.T) {
	_, err := OpenChunkDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestChunkDirCanceledContext(t *testing.T) {
	dir := t.TempDir()
	writeChunk(t, dir, "a.wav", []byte("data"))

	src, err := OpenChunkDir(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunEmitsTicks(t *testing.T) {
	events := make(chan Event, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := Config{TickInterval: time.Millisecond}
	go Run(ctx, cfg, nil, nil, events)

	select {
	case ev := <-events:
		_, ok := ev.(Tick)
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("no tick emitted")
	}
}
