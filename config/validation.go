package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("found %d configuration error(s):\n", len(errs)))
	for i, err := range errs {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Message))
	}
	return b.String()
}

// Validate validates the complete configuration
func (c *Config) Validate() error {
	var errs ValidationErrors

	errs = append(errs, c.validateLLM()...)
	errs = append(errs, c.validateEmbedding()...)
	errs = append(errs, c.validateVectorDB()...)
	errs = append(errs, c.validatePipeline()...)
	errs = append(errs, c.validateTimeouts()...)
	errs = append(errs, c.validateMessages()...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (c *Config) validateLLM() ValidationErrors {
	var errs ValidationErrors

	if !strings.EqualFold(c.LLM.Provider, "openai") {
		errs = append(errs, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unsupported llm provider %q", c.LLM.Provider),
		})
	}
	if c.LLM.Model == "" {
		errs = append(errs, ValidationError{
			Field:   "llm.model",
			Message: "llm model is required",
		})
	}
	switch strings.ToLower(c.LLM.API) {
	case "", "completions", "chat":
	default:
		errs = append(errs, ValidationError{
			Field:   "llm.api",
			Message: fmt.Sprintf("llm api must be completions or chat, got %q", c.LLM.API),
		})
	}
	if c.LLM.MaxTokens < 0 {
		errs = append(errs, ValidationError{
			Field:   "llm.max_tokens",
			Message: fmt.Sprintf("llm max_tokens must not be negative, got %d", c.LLM.MaxTokens),
		})
	}
	return errs
}

// validateEmbedding validates embedding configuration
func (c *Config) validateEmbedding() ValidationErrors {
	var errs ValidationErrors

	switch strings.ToLower(c.Embedding.Provider) {
	case "http":
		if c.Embedding.BaseURL == "" {
			errs = append(errs, ValidationError{
				Field:   "embedding.base_url",
				Message: "embedding base_url is required for http provider",
			})
		}
	case "openai":
		if c.Embedding.Model == "" {
			errs = append(errs, ValidationError{
				Field:   "embedding.model",
				Message: "embedding model is required for openai provider",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "embedding.provider",
			Message: fmt.Sprintf("unsupported embedding provider %q", c.Embedding.Provider),
		})
	}

	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, ValidationError{
			Field:   "embedding.dimensions",
			Message: fmt.Sprintf("embedding dimensions must be positive, got %d", c.Embedding.Dimensions),
		})
	}
	return errs
}

// validateVectorDB validates vector database configuration
func (c *Config) validateVectorDB() ValidationErrors {
	var errs ValidationErrors

	switch strings.ToLower(c.VectorDB.Provider) {
	case "qdrant", "milvus":
		if c.VectorDB.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "vectordb.host",
				Message: fmt.Sprintf("vectordb host is required for %s provider", c.VectorDB.Provider),
			})
		}
		if c.VectorDB.Port <= 0 || c.VectorDB.Port > 65535 {
			errs = append(errs, ValidationError{
				Field:   "vectordb.port",
				Message: fmt.Sprintf("vectordb port must be between 1 and 65535, got %d", c.VectorDB.Port),
			})
		}
	case "pgvector":
		if c.VectorDB.DSN == "" {
			errs = append(errs, ValidationError{
				Field:   "vectordb.dsn",
				Message: "vectordb dsn is required for pgvector provider",
			})
		}
	case "memory":
	default:
		errs = append(errs, ValidationError{
			Field:   "vectordb.provider",
			Message: fmt.Sprintf("unsupported vectordb provider %q", c.VectorDB.Provider),
		})
	}

	if c.VectorDB.Collection == "" {
		errs = append(errs, ValidationError{
			Field:   "vectordb.collection",
			Message: "vectordb collection is required",
		})
	}

	seen := make(map[string]string)
	for i, f := range c.VectorDB.Mapping.Fields {
		switch f.StandardName {
		case FieldQuestion, FieldAnswer, FieldEvidence1, FieldEvidence2:
		default:
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("vectordb.mapping.fields[%d].standard_name", i),
				Message: fmt.Sprintf("unknown standard field %q", f.StandardName),
			})
			continue
		}
		raw := c.VectorDB.Mapping.RawName(f.StandardName)
		if other, ok := seen[raw]; ok && other != f.StandardName {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("vectordb.mapping.fields[%d].raw_name", i),
				Message: fmt.Sprintf("raw field %q is mapped to both %s and %s", raw, other, f.StandardName),
			})
		}
		seen[raw] = f.StandardName
	}
	return errs
}

func (c *Config) validatePipeline() ValidationErrors {
	var errs ValidationErrors
	p := c.Pipeline

	if p.TopK <= 0 {
		errs = append(errs, ValidationError{
			Field:   "pipeline.top_k",
			Message: fmt.Sprintf("pipeline top_k must be positive, got %d", p.TopK),
		})
	}
	if p.HistorySize <= 0 {
		errs = append(errs, ValidationError{
			Field:   "pipeline.history_size",
			Message: fmt.Sprintf("pipeline history_size must be positive, got %d", p.HistorySize),
		})
	}
	if p.MaxMessageLength <= 0 || p.MaxMessageLength > DefaultMaxMessageLength {
		errs = append(errs, ValidationError{
			Field:   "pipeline.max_message_length",
			Message: fmt.Sprintf("pipeline max_message_length must be in (0, %d], got %d", DefaultMaxMessageLength, p.MaxMessageLength),
		})
	}
	if p.TypingInterval <= 0 {
		errs = append(errs, ValidationError{
			Field:   "pipeline.typing_interval",
			Message: fmt.Sprintf("pipeline typing_interval must be positive, got %s", p.TypingInterval),
		})
	}
	if p.MaxSessions < 0 {
		errs = append(errs, ValidationError{
			Field:   "pipeline.max_sessions",
			Message: fmt.Sprintf("pipeline max_sessions must not be negative, got %d", p.MaxSessions),
		})
	}
	return errs
}

func (c *Config) validateTimeouts() ValidationErrors {
	var errs ValidationErrors
	for _, t := range []struct {
		field string
		value time.Duration
	}{
		{"timeouts.embedding", c.Timeouts.Embedding},
		{"timeouts.retrieval", c.Timeouts.Retrieval},
		{"timeouts.completion", c.Timeouts.Completion},
		{"timeouts.render", c.Timeouts.Render},
	} {
		if t.value < 0 {
			errs = append(errs, ValidationError{
				Field:   t.field,
				Message: fmt.Sprintf("%s must not be negative, got %s", t.field, t.value),
			})
		}
	}
	return errs
}

// validateMessages checks the templates that are rendered with fmt.Sprintf.
func (c *Config) validateMessages() ValidationErrors {
	var errs ValidationErrors
	for _, m := range []struct {
		field string
		value string
		want  int
	}{
		{"messages.failure", c.Messages.Failure, 1},
		{"messages.page_caption", c.Messages.PageCaption, 1},
		{"messages.page_failed", c.Messages.PageFailed, 2},
	} {
		if m.value == "" {
			continue
		}
		if n, ok := stringVerbs(m.value); !ok || n != m.want {
			errs = append(errs, ValidationError{
				Field:   m.field,
				Message: fmt.Sprintf("%s must contain exactly %d %%s verb(s) and no other verbs, got %q", m.field, m.want, m.value),
			})
		}
	}
	return errs
}

// stringVerbs counts %s verbs in a format string; ok is false when any other verb appears.
func stringVerbs(format string) (n int, ok bool) {
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		if i+1 >= len(format) {
			return n, false
		}
		switch format[i+1] {
		case '%':
		case 's':
			n++
		default:
			return n, false
		}
		i++
	}
	return n, true
}
