package fusion

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/higress-group/docqa-bot/schema"
)

func TestFuse(t *testing.T) {
	tests := []struct {
		name    string
		matches []schema.RetrievedMatch
		want    schema.FusedContext
		wantOK  bool
	}{
		{
			name:   "empty result is a no-answer marker",
			wantOK: false,
		},
		{
			name: "single match",
			matches: []schema.RetrievedMatch{
				{RecordID: 1, Answer: "Нажмите 'Забыли пароль'", Evidence: []string{"5"}, Score: 0.98},
			},
			want:   schema.FusedContext{CombinedText: "Нажмите 'Забыли пароль'", EvidencePages: []string{"5"}},
			wantOK: true,
		},
		{
			name: "rank order kept and pages deduplicated by first appearance",
			matches: []schema.RetrievedMatch{
				{RecordID: 3, Answer: "first", Evidence: []string{"7", "2"}, Score: 0.9},
				{RecordID: 1, Answer: "second", Evidence: []string{"2", "4"}, Score: 0.8},
				{RecordID: 2, Answer: "third", Evidence: []string{"4", "7"}, Score: 0.7},
			},
			want:   schema.FusedContext{CombinedText: "first\nsecond\nthird", EvidencePages: []string{"7", "2", "4"}},
			wantOK: true,
		},
		{
			name: "matches without evidence",
			matches: []schema.RetrievedMatch{
				{Answer: "a"},
				{Answer: "b", Evidence: []string{" ", "3"}},
			},
			want:   schema.FusedContext{CombinedText: "a\nb", EvidencePages: []string{"3"}},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Fuse(tt.matches)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Fuse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFuseNeverDuplicatesPages(t *testing.T) {
	matches := make([]schema.RetrievedMatch, 0, 3)
	for i := 0; i < 3; i++ {
		matches = append(matches, schema.RetrievedMatch{Answer: "x", Evidence: []string{"1", "1"}})
	}
	got, ok := Fuse(matches)
	if !ok {
		t.Fatal("expected ok")
	}
	if len(got.EvidencePages) != 1 {
		t.Fatalf("pages = %v", got.EvidencePages)
	}
}
