package schema

import "time"

// KnowledgeRecord is one question/answer pair extracted from the source document.
// Evidence holds up to two page references, in the order they appear in the source.
type KnowledgeRecord struct {
	ID       int64    `json:"id"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Evidence []string `json:"evidence,omitempty"`
}

// MaxEvidence is the number of evidence slots a stored record carries.
const MaxEvidence = 2

// RetrievedMatch is a single nearest-neighbour hit returned by a vector store.
type RetrievedMatch struct {
	RecordID int64    `json:"record_id"`
	Question string   `json:"question,omitempty"`
	Answer   string   `json:"answer"`
	Evidence []string `json:"evidence,omitempty"`
	Score    float64  `json:"score"`
}

// FusedContext is the single context blob handed to the prompt builder.
type FusedContext struct {
	CombinedText  string   `json:"combined_text"`
	EvidencePages []string `json:"evidence_pages,omitempty"`
}

// ConversationTurn is one answered question kept in a session's history.
type ConversationTurn struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// PageImage is a rendered source page.
type PageImage struct {
	Page     string
	MIMEType string
	Data     []byte
}
