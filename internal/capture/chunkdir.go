package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ChunkDir replays pre-recorded audio chunks from a directory in
// lexical filename order. This is the audio source of the
// record-then-interview mode.
type ChunkDir struct {
	files []string
	next  int
}

var audioExtensions = map[string]bool{
	".webm": true,
	".wav":  true,
	".ogg":  true,
	".mp3":  true,
	".m4a":  true,
}

// OpenChunkDir scans dir for audio files.
func OpenChunkDir(dir string) (*ChunkDir, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read chunk dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if audioExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no audio chunks in %s", dir)
	}
	sort.Strings(files)

	return &ChunkDir{files: files}, nil
}

// Next returns the next chunk, or io.EOF when all are consumed.
func (c *ChunkDir) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.next >= len(c.files) {
		return nil, io.EOF
	}
	data, err := os.ReadFile(c.files[c.next])
	if err != nil {
		return nil, fmt.Errorf("read chunk %s: %w", c.files[c.next], err)
	}
	c.next++
	return data, nil
}

// Remaining returns how many chunks are left.
func (c *ChunkDir) Remaining() int {
	return len(c.files) - c.next
}

// Close is a no-op; ChunkDir holds no resources between reads.
func (c *ChunkDir) Close() error {
	return nil
}

var _ AudioSource = (*ChunkDir)(nil)
