package ingest

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/tidwall/gjson"

	"github.com/higress-group/docqa-bot/schema"
)

// ReadRecords loads a JSON array of {question, answer, evidence} objects.
func ReadRecords(path string) ([]schema.KnowledgeRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records %s failed, err: %w", path, err)
	}
	return ParseRecords(data)
}

// ParseRecords decodes records and assigns ids in file order starting at 0.
// evidence may hold page numbers or strings; at most two pages are allowed.
// Every malformed entry is reported, not only the first.
func ParseRecords(data []byte) ([]schema.KnowledgeRecord, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("records file is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("records file must contain a JSON array")
	}

	var (
		records []schema.KnowledgeRecord
		errs    *multierror.Error
	)
	for i, item := range root.Array() {
		r := schema.KnowledgeRecord{
			ID:       int64(len(records)),
			Question: strings.TrimSpace(item.Get("question").String()),
			Answer:   strings.TrimSpace(item.Get("answer").String()),
		}
		for _, ev := range item.Get("evidence").Array() {
			if s := strings.TrimSpace(ev.String()); s != "" {
				r.Evidence = append(r.Evidence, s)
			}
		}
		switch {
		case r.Question == "":
			errs = multierror.Append(errs, fmt.Errorf("record %d: question is empty", i))
			continue
		case r.Answer == "":
			errs = multierror.Append(errs, fmt.Errorf("record %d: answer is empty", i))
			continue
		case len(r.Evidence) > schema.MaxEvidence:
			errs = multierror.Append(errs, fmt.Errorf("record %d: %d evidence pages, at most %d allowed", i, len(r.Evidence), schema.MaxEvidence))
			continue
		}
		records = append(records, r)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return records, nil
}
