package memory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/higress-group/docqa-bot/schema"
)

// DefaultCapacity is the number of turns kept per session.
const DefaultCapacity = 3

// ErrSessionLimit is returned by Append when a new session would exceed the configured cap.
var ErrSessionLimit = errors.New("session limit reached")

// Serialize renders history oldest first, two lines per turn.
func Serialize(history []schema.ConversationTurn) string {
	var b strings.Builder
	for _, t := range history {
		fmt.Fprintf(&b, "Вопрос: %s\nОтвет: %s\n", t.Question, t.Answer)
	}
	return b.String()
}
