package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("Как сбросить пароль?", "Нажмите 'Забыли пароль'", "")
	want := "Вопрос: Как сбросить пароль?\n" +
		"Контекст: Нажмите 'Забыли пароль'\n" +
		"История предыдущих вопросов и ответов:\n" +
		promptInstruction
	assert.Equal(t, want, got)
}

func TestBuildPromptWithHistory(t *testing.T) {
	history := "Вопрос: a\nОтвет: b\n"
	got := BuildPrompt("q", "ctx", history)
	assert.Contains(t, got, "История предыдущих вопросов и ответов:\nВопрос: a\nОтвет: b\nПожалуйста")

	// history without trailing newline is still separated from the instruction
	got = BuildPrompt("q", "ctx", "Вопрос: a\nОтвет: b")
	assert.Contains(t, got, "Ответ: b\nПожалуйста")
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	a := BuildPrompt("q", "line1\nline2", "h\n")
	b := BuildPrompt("q", "line1\nline2", "h\n")
	assert.Equal(t, a, b)
	assert.True(t, strings.HasSuffix(a, "без лишних заключительных фраз."))
	assert.Contains(t, a, "на том же языке")
}

func TestTokenCounterDisabled(t *testing.T) {
	c := NewTokenCounter("none")
	assert.Nil(t, c)
	assert.Equal(t, -1, c.Count("anything"))
}
