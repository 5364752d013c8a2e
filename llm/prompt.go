package llm

import "strings"

const promptInstruction = "Пожалуйста, дай детальный ответ на вопрос, опираясь на контекст. " +
	"Отвечай на том же языке, на котором задан вопрос. " +
	"Возвращай только красиво оформленный ответ, используя пункты (1, 2, ...). " +
	"Ответ должен иметь вид 'Ответ:\nответ' без лишних заключительных фраз."

// BuildPrompt assembles the completion prompt from the question, the fused context
// and the serialized history. It is deterministic and has no side effects.
func BuildPrompt(question, contextText, history string) string {
	var b strings.Builder
	b.Grow(len(question) + len(contextText) + len(history) + len(promptInstruction) + 128)
	b.WriteString("Вопрос: ")
	b.WriteString(question)
	b.WriteString("\nКонтекст: ")
	b.WriteString(contextText)
	b.WriteString("\nИстория предыдущих вопросов и ответов:\n")
	b.WriteString(history)
	if history != "" && !strings.HasSuffix(history, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(promptInstruction)
	return b.String()
}
