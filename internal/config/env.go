// Package config provides centralized configuration management.
// All environment lookups live here instead of scattered os.Getenv calls.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Env holds all viva environment variables.
type Env struct {
	// DataDir is where session databases live (VIVA_DATA_DIR, default ~/.viva)
	DataDir string

	// OpenAIKey is the intelligence backend API key (OPENAI_API_KEY)
	OpenAIKey string

	// OpenAIBaseURL overrides the backend base URL (OPENAI_BASE_URL)
	OpenAIBaseURL string

	// ReasoningModel generates summaries, questions and evaluations (VIVA_REASONING_MODEL)
	ReasoningModel string

	// VisionModel extracts on-screen text from frames (VIVA_VISION_MODEL)
	VisionModel string

	// STTModel transcribes audio chunks (VIVA_STT_MODEL)
	STTModel string

	// SummaryIntervalSec is the rolling-summary refresh interval (VIVA_SUMMARY_INTERVAL)
	SummaryIntervalSec int

	// MaxQuestions caps questions asked per session (VIVA_MAX_QUESTIONS)
	MaxQuestions int

	// ChunkSec is the audio chunk duration in seconds (VIVA_CHUNK_SEC)
	ChunkSec int

	// OCRIntervalSec is the frame sampling interval (VIVA_OCR_INTERVAL)
	OCRIntervalSec int

	// Neo4jURI is the grounding graph URI (NEO4J_URI, empty = disabled)
	Neo4jURI string

	// Neo4jUser is the grounding graph user (NEO4J_USER)
	Neo4jUser string

	// Neo4jPassword is the grounding graph password (NEO4J_PASSWORD)
	Neo4jPassword string
}

var (
	env     *Env
	envOnce sync.Once
)

// Load returns the singleton environment configuration.
// Thread-safe, loads once on first call.
func Load() *Env {
	envOnce.Do(func() {
		env = &Env{
			DataDir:            getEnvDefault("VIVA_DATA_DIR", defaultDataDir()),
			OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
			OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
			ReasoningModel:     getEnvDefault("VIVA_REASONING_MODEL", "gpt-4o"),
			VisionModel:        getEnvDefault("VIVA_VISION_MODEL", "gpt-4o-mini"),
			STTModel:           getEnvDefault("VIVA_STT_MODEL", "whisper-1"),
			SummaryIntervalSec: getEnvInt("VIVA_SUMMARY_INTERVAL", 60),
			MaxQuestions:       getEnvInt("VIVA_MAX_QUESTIONS", 10),
			ChunkSec:           getEnvInt("VIVA_CHUNK_SEC", 15),
			OCRIntervalSec:     getEnvInt("VIVA_OCR_INTERVAL", 20),
			Neo4jURI:           os.Getenv("NEO4J_URI"),
			Neo4jUser:          os.Getenv("NEO4J_USER"),
			Neo4jPassword:      os.Getenv("NEO4J_PASSWORD"),
		}
	})
	return env
}

// Reset resets the cached environment (for testing).
func Reset() {
	envOnce = sync.Once{}
	env = nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".viva"
	}
	return filepath.Join(home, ".viva")
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
