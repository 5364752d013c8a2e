package config

import "time"

// Config represents the main configuration structure for the bot
type Config struct {
	Log        LogConfig        `json:"log" yaml:"log"`
	Bot        BotConfig        `json:"bot" yaml:"bot"`
	LLM        LLMConfig        `json:"llm" yaml:"llm"`
	Embedding  EmbeddingConfig  `json:"embedding" yaml:"embedding"`
	VectorDB   VectorDBConfig   `json:"vectordb" yaml:"vectordb"`
	Pipeline   PipelineConfig   `json:"pipeline" yaml:"pipeline"`
	Timeouts   TimeoutConfig    `json:"timeouts" yaml:"timeouts"`
	Render     RenderConfig     `json:"render" yaml:"render"`
	HTTPClient HTTPClientConfig `json:"http_client" yaml:"http_client"`
	Metrics    MetricsConfig    `json:"metrics" yaml:"metrics"`
	Messages   MessagesConfig   `json:"messages" yaml:"messages"`
}

// LogConfig controls the process logger
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`   // debug, info, warn, error
	Format string `json:"format,omitempty" yaml:"format,omitempty"` // console, json
}

// BotConfig holds chat transport settings
type BotConfig struct {
	Token       string `json:"token,omitempty" yaml:"token,omitempty"`
	PollTimeout int    `json:"poll_timeout,omitempty" yaml:"poll_timeout,omitempty"`
	Debug       bool   `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// LLMConfig defines configuration for the completion model
type LLMConfig struct {
	Provider  string `json:"provider" yaml:"provider"` // Available options: openai
	APIKey    string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL   string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model     string `json:"model" yaml:"model"`
	API       string `json:"api,omitempty" yaml:"api,omitempty"` // completions, chat
	MaxTokens int    `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	// Encoding is the tiktoken encoding used to measure prompts.
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
}

// EmbeddingConfig defines configuration for embedding models
type EmbeddingConfig struct {
	Provider   string `json:"provider" yaml:"provider"` // Available options: http, openai
	APIKey     string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL    string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model      string `json:"model,omitempty" yaml:"model,omitempty"`
	Dimensions int    `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
}

// VectorDBConfig defines configuration for vector databases
type VectorDBConfig struct {
	Provider   string        `json:"provider" yaml:"provider"` // Available options: qdrant, milvus, pgvector, memory
	Scheme     string        `json:"scheme,omitempty" yaml:"scheme,omitempty"`
	Host       string        `json:"host,omitempty" yaml:"host,omitempty"`
	Port       int           `json:"port,omitempty" yaml:"port,omitempty"`
	APIKey     string        `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Database   string        `json:"database,omitempty" yaml:"database,omitempty"`
	Collection string        `json:"collection,omitempty" yaml:"collection,omitempty"`
	Username   string        `json:"username,omitempty" yaml:"username,omitempty"`
	Password   string        `json:"password,omitempty" yaml:"password,omitempty"`
	DSN        string        `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	Mapping    MappingConfig `json:"mapping,omitempty" yaml:"mapping,omitempty"`
}

// MappingConfig defines payload field mapping for vector databases
type MappingConfig struct {
	Fields []FieldMapping `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// FieldMapping maps a standard payload field onto the name stored in the collection
type FieldMapping struct {
	StandardName string `json:"standard_name" yaml:"standard_name"`
	RawName      string `json:"raw_name" yaml:"raw_name"`
}

// Standard payload field names.
const (
	FieldQuestion  = "question"
	FieldAnswer    = "answer"
	FieldEvidence1 = "evidence_1"
	FieldEvidence2 = "evidence_2"
)

// RawName returns the stored name for a standard field, or the standard name when unmapped.
func (m MappingConfig) RawName(standard string) string {
	for _, f := range m.Fields {
		if f.StandardName == standard && f.RawName != "" {
			return f.RawName
		}
	}
	return standard
}

// EvidenceFields returns the stored names of the evidence slots in order.
func (m MappingConfig) EvidenceFields() []string {
	return []string{m.RawName(FieldEvidence1), m.RawName(FieldEvidence2)}
}

// PipelineConfig holds the answering pipeline knobs
type PipelineConfig struct {
	TopK             int           `json:"top_k,omitempty" yaml:"top_k,omitempty"`
	HistorySize      int           `json:"history_size,omitempty" yaml:"history_size,omitempty"`
	MaxMessageLength int           `json:"max_message_length,omitempty" yaml:"max_message_length,omitempty"`
	TypingInterval   time.Duration `json:"typing_interval,omitempty" yaml:"typing_interval,omitempty"`
	// MaxSessions caps the number of tracked sessions, 0 means unbounded.
	MaxSessions int `json:"max_sessions,omitempty" yaml:"max_sessions,omitempty"`
}

// TimeoutConfig bounds each upstream call. Zero disables the bound.
type TimeoutConfig struct {
	Embedding  time.Duration `json:"embedding,omitempty" yaml:"embedding,omitempty"`
	Retrieval  time.Duration `json:"retrieval,omitempty" yaml:"retrieval,omitempty"`
	Completion time.Duration `json:"completion,omitempty" yaml:"completion,omitempty"`
	Render     time.Duration `json:"render,omitempty" yaml:"render,omitempty"`
}

// RenderConfig points at the source document and controls page rendering
type RenderConfig struct {
	Document   string        `json:"document,omitempty" yaml:"document,omitempty"`
	Width      int           `json:"width,omitempty" yaml:"width,omitempty"`
	Quality    int           `json:"quality,omitempty" yaml:"quality,omitempty"`
	CacheSize  int           `json:"cache_size,omitempty" yaml:"cache_size,omitempty"`
	CacheTTL   time.Duration `json:"cache_ttl,omitempty" yaml:"cache_ttl,omitempty"`
	LicenseKey string        `json:"license_key,omitempty" yaml:"license_key,omitempty"`
}

// HTTPClientConfig defines common options for outbound HTTP calls.
type HTTPClientConfig struct {
	TimeoutMs              int      `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	Retry                  int      `json:"retry,omitempty" yaml:"retry,omitempty"`
	BackoffMinMs           int      `json:"backoff_min_ms,omitempty" yaml:"backoff_min_ms,omitempty"`
	BackoffMaxMs           int      `json:"backoff_max_ms,omitempty" yaml:"backoff_max_ms,omitempty"`
	HostAllowlist          []string `json:"host_allowlist,omitempty" yaml:"host_allowlist,omitempty"`
	MaxConsecutiveFailures int      `json:"max_consecutive_failures,omitempty" yaml:"max_consecutive_failures,omitempty"`
	CircuitOpenSeconds     int      `json:"circuit_open_seconds,omitempty" yaml:"circuit_open_seconds,omitempty"`
}

// MetricsConfig controls the prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Addr    string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// MessagesConfig holds every user-visible string. Format verbs are documented per field.
type MessagesConfig struct {
	Start     string `json:"start,omitempty" yaml:"start,omitempty"`
	Menu      string `json:"menu,omitempty" yaml:"menu,omitempty"`
	PDFButton string `json:"pdf_button,omitempty" yaml:"pdf_button,omitempty"`
	NoMatch   string `json:"no_match,omitempty" yaml:"no_match,omitempty"`
	// Failure takes the error detail (%s).
	Failure string `json:"failure,omitempty" yaml:"failure,omitempty"`
	// PageCaption takes the page reference (%s).
	PageCaption string `json:"page_caption,omitempty" yaml:"page_caption,omitempty"`
	// PageFailed takes the page reference and the error detail (%s, %s).
	PageFailed  string `json:"page_failed,omitempty" yaml:"page_failed,omitempty"`
	PDFMissing  string `json:"pdf_missing,omitempty" yaml:"pdf_missing,omitempty"`
}
