package fusion

import (
	"strings"

	"github.com/higress-group/docqa-bot/schema"
)

// Separator joins answer texts in the combined context.
const Separator = "\n"

// Fuse merges ranked matches into one context blob.
//
// Answers are joined in rank order. Evidence pages are collected walking the same
// order, keeping only the first appearance of each page. ok is false when there is
// nothing to answer from, which is a distinct outcome and not an error.
func Fuse(matches []schema.RetrievedMatch) (fused schema.FusedContext, ok bool) {
	if len(matches) == 0 {
		return schema.FusedContext{}, false
	}

	answers := make([]string, 0, len(matches))
	seen := make(map[string]struct{})
	var pages []string
	for _, m := range matches {
		answers = append(answers, m.Answer)
		for _, ref := range m.Evidence {
			ref = strings.TrimSpace(ref)
			if ref == "" {
				continue
			}
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
			pages = append(pages, ref)
		}
	}
	return schema.FusedContext{
		CombinedText:  strings.Join(answers, Separator),
		EvidencePages: pages,
	}, true
}
