package config

import "time"

const (
	DefaultTopK             = 3
	DefaultHistorySize      = 3
	DefaultMaxMessageLength = 4096
	DefaultTypingInterval   = 7 * time.Second
	DefaultDimensions       = 384
)

// Defaults returns a configuration matching the reference deployment: a local
// sentence-transformers sidecar, a local Qdrant and an OpenAI compatible LLM endpoint.
func Defaults() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "console"},
		Bot: BotConfig{PollTimeout: 60},
		LLM: LLMConfig{
			Provider: "openai",
			BaseURL:  "https://api.hyperbolic.xyz/v1/",
			Model:    "deepseek-ai/DeepSeek-V3",
			API:      "completions",
			Encoding: "cl100k_base",
		},
		Embedding: EmbeddingConfig{
			Provider:   "http",
			BaseURL:    "http://127.0.0.1:8080",
			Model:      "all-MiniLM-L6-v2",
			Dimensions: DefaultDimensions,
		},
		VectorDB: VectorDBConfig{
			Provider:   "qdrant",
			Scheme:     "http",
			Host:       "localhost",
			Port:       6333,
			Collection: "Client_bd",
		},
		Pipeline: PipelineConfig{
			TopK:             DefaultTopK,
			HistorySize:      DefaultHistorySize,
			MaxMessageLength: DefaultMaxMessageLength,
			TypingInterval:   DefaultTypingInterval,
		},
		Timeouts: TimeoutConfig{
			Embedding:  10 * time.Second,
			Retrieval:  10 * time.Second,
			Completion: 2 * time.Minute,
			Render:     30 * time.Second,
		},
		Render: RenderConfig{
			Document:  "instruction.pdf",
			Width:     1240,
			Quality:   85,
			CacheSize: 64,
			CacheTTL:  time.Hour,
		},
		HTTPClient: HTTPClientConfig{
			TimeoutMs:              30000,
			MaxConsecutiveFailures: 5,
			CircuitOpenSeconds:     5,
		},
		Metrics: MetricsConfig{Addr: ":9090"},
		Messages: MessagesConfig{
			Start: "Привет! Я бот-помощник по инструкции. Задайте вопрос текстом, " +
				"и я найду ответ в документации и покажу страницы, на которые он опирается.",
			Menu:        "Выберите действие:",
			PDFButton:   "Получить pdf инструкцию",
			NoMatch:     "Не найден релевантный ответ.",
			Failure:     "Произошла ошибка при выполнении запроса: %s",
			PageCaption: "Страница %s",
			PageFailed:  "Ошибка при извлечении страницы %s: %s",
			PDFMissing:  "PDF инструкция недоступна.",
		},
	}
}
