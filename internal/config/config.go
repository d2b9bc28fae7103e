// Package config loads the backend configuration from environment variables.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every service-level setting.
type Config struct {
	Server ServerConfig
	LLM    LLMConfig
	Speech SpeechConfig
	TTS    TTSConfig
}

// Load reads the full configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	llm, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	tts, err := loadTTSConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, LLM: llm, Speech: speech, TTS: tts}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LLMConfig describes the chat-model provider.
type LLMConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Region      string
	Temperature float64
	Timeout     time.Duration
}

// Enabled reports whether the provider credential is present. A missing key
// does not abort startup; it surfaces through the health check and through
// generation failures.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != "" && c.Model != ""
}

// NewChatModel builds the production chat model from this configuration.
func (c LLMConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("LLM credentials missing: set ARK_API_KEY and ARK_MODEL")
	}

	temperature := float32(c.Temperature)

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		Model:       c.Model,
		Temperature: &temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadLLMConfig() (LLMConfig, error) {
	temperature := 0.7
	if override, err := parseOptionalFloatEnv("ARK_TEMPERATURE"); err != nil {
		return LLMConfig{}, err
	} else if override != nil {
		temperature = *override
	}

	timeout, err := parseTimeoutEnv("LLM_TIMEOUT", 30*time.Second)
	if err != nil {
		return LLMConfig{}, err
	}

	return LLMConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		Model:       getEnvOrDefault("ARK_MODEL", "doubao-seed-1-6-250615"),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		Timeout:     timeout,
	}, nil
}

// SpeechConfig describes the audio ingest pipeline: the ffmpeg transcode
// step and the two inference sidecars consuming the normalized waveform.
type SpeechConfig struct {
	FFmpegBin  string
	WhisperURL string
	EmotionURL string
	TempDir    string
	Timeout    time.Duration
}

func loadSpeechConfig() (SpeechConfig, error) {
	timeout, err := parseTimeoutEnv("SPEECH_TIMEOUT", 30*time.Second)
	if err != nil {
		return SpeechConfig{}, err
	}

	return SpeechConfig{
		FFmpegBin:  getEnvOrDefault("FFMPEG_BIN", "ffmpeg"),
		WhisperURL: getEnvOrDefault("WHISPER_URL", "http://127.0.0.1:9000/v1/audio/transcriptions"),
		EmotionURL: getEnvOrDefault("EMOTION_URL", "http://127.0.0.1:9001/v1/audio/emotion"),
		TempDir:    getEnvOrDefault("TEMP_DIR", os.TempDir()),
		Timeout:    timeout,
	}, nil
}

// TTSConfig describes both synthesis backends.
type TTSConfig struct {
	DefaultBackend string
	EdgeURL        string
	PiperBin       string
	PiperModelDir  string
	PiperModels    map[string]string
	TempDir        string
	Timeout        time.Duration
}

func loadTTSConfig() (TTSConfig, error) {
	backend := getEnvOrDefault("TTS_DEFAULT_BACKEND", "edge")
	switch backend {
	case "edge", "piper":
	default:
		return TTSConfig{}, fmt.Errorf("invalid TTS_DEFAULT_BACKEND value: %q", backend)
	}

	timeout, err := parseTimeoutEnv("TTS_TIMEOUT", 60*time.Second)
	if err != nil {
		return TTSConfig{}, err
	}

	models := map[string]string{}
	if path := strings.TrimSpace(os.Getenv("PIPER_MODEL_PL")); path != "" {
		models["pl"] = path
	}
	if path := strings.TrimSpace(os.Getenv("PIPER_MODEL_EN")); path != "" {
		models["en"] = path
	}

	return TTSConfig{
		DefaultBackend: backend,
		EdgeURL:        getEnvOrDefault("EDGE_TTS_URL", "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1"),
		PiperBin:       getEnvOrDefault("PIPER_BIN", "piper"),
		PiperModelDir:  getEnvOrDefault("PIPER_MODEL_DIR", "models"),
		PiperModels:    models,
		TempDir:        getEnvOrDefault("TEMP_DIR", os.TempDir()),
		Timeout:        timeout,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

// parseTimeoutEnv reads a duration expressed in whole seconds.
func parseTimeoutEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: expected positive seconds", key, raw)
	}
	return time.Duration(seconds) * time.Second, nil
}
