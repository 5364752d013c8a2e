package vectordb

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/higress-group/docqa-bot/config"
	"github.com/higress-group/docqa-bot/schema"
)

// payloadFields holds the stored names of the record payload fields.
type payloadFields struct {
	question string
	answer   string
	evidence []string
}

func newPayloadFields(m config.MappingConfig) payloadFields {
	return payloadFields{
		question: m.RawName(config.FieldQuestion),
		answer:   m.RawName(config.FieldAnswer),
		evidence: m.EvidenceFields(),
	}
}

// encode builds the stored payload; empty evidence slots are omitted.
func (f payloadFields) encode(r schema.KnowledgeRecord) map[string]any {
	p := map[string]any{
		f.question: r.Question,
		f.answer:   r.Answer,
	}
	for i, name := range f.evidence {
		if i < len(r.Evidence) && strings.TrimSpace(r.Evidence[i]) != "" {
			p[name] = r.Evidence[i]
		}
	}
	return p
}

// decode reads a stored payload. Empty evidence slots are skipped and numeric pages are rendered as text.
func (f payloadFields) decode(payload gjson.Result) (question, answer string, evidence []string) {
	question = payload.Get(gjson.Escape(f.question)).String()
	answer = payload.Get(gjson.Escape(f.answer)).String()
	for _, name := range f.evidence {
		v := payload.Get(gjson.Escape(name))
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			evidence = append(evidence, s)
		}
	}
	return question, answer, evidence
}

// slots pads a record's evidence to the fixed number of stored slots.
func slots(r schema.KnowledgeRecord) [schema.MaxEvidence]string {
	var out [schema.MaxEvidence]string
	for i := 0; i < schema.MaxEvidence && i < len(r.Evidence); i++ {
		out[i] = strings.TrimSpace(r.Evidence[i])
	}
	return out
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
