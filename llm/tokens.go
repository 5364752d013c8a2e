package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/higress-group/docqa-bot/common/logger"
)

// TokenCounter measures prompts with a tiktoken encoding. The encoding is loaded
// lazily; when it cannot be loaded Count returns -1 and the failure is logged once.
type TokenCounter struct {
	encoding string
	once     sync.Once
	enc      *tiktoken.Tiktoken
}

// NewTokenCounter returns nil for the encoding "none", which disables counting.
func NewTokenCounter(encoding string) *TokenCounter {
	if encoding == "none" {
		return nil
	}
	if encoding == "" {
		encoding = "cl100k_base"
	}
	return &TokenCounter{encoding: encoding}
}

func (c *TokenCounter) Count(text string) int {
	if c == nil {
		return -1
	}
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			logger.Warnf("tiktoken: encoding %s unavailable, prompt tokens will not be measured: %v", c.encoding, err)
			return
		}
		c.enc = enc
	})
	if c.enc == nil {
		return -1
	}
	return len(c.enc.Encode(text, nil, nil))
}
