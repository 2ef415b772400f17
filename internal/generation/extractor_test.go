package generation

import (
	"fmt"
	"strings"
	"testing"

	"certquiz-service/internal/upstream"
)

// fullPayload builds the canonical 5/3/2 payload: items q1..q10 with ids 1..10,
// options A..D and correct answer "a".
func fullPayload() *upstream.GeneratedQuizPayload {
	item := func(n int) upstream.QuizItem {
		return upstream.QuizItem{
			ID:            n,
			Question:      fmt.Sprintf("Q%d", n),
			OptionA:       "A",
			OptionB:       "B",
			OptionC:       "C",
			OptionD:       "D",
			CorrectAnswer: "a",
		}
	}
	p := &upstream.GeneratedQuizPayload{}
	for n := 1; n <= 5; n++ {
		p.Easy = append(p.Easy, item(n))
	}
	for n := 6; n <= 8; n++ {
		p.Medium = append(p.Medium, item(n))
	}
	for n := 9; n <= 10; n++ {
		p.Hard = append(p.Hard, item(n))
	}
	return p
}

func baseVariant() VariantConfig {
	return DefaultConfig().Variants["default"]
}

func cyberVariant() VariantConfig {
	return DefaultConfig().Variants["cybersecurity"]
}

func TestExtractBaseOrder(t *testing.T) {
	drafts, ok := NewExtractor(baseVariant()).Extract(fullPayload())
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if len(drafts) != 10 {
		t.Fatalf("expected 10 drafts, got %d", len(drafts))
	}
	for i, d := range drafts {
		if d.Sequence != i+1 {
			t.Errorf("draft %d: expected sequence %d, got %d", i, i+1, d.Sequence)
		}
		if d.ExternalItemID != i+1 {
			t.Errorf("draft %d: expected external id %d, got %d", i, i+1, d.ExternalItemID)
		}
		if d.CorrectAnswer != "a" {
			t.Errorf("draft %d: expected correct answer a, got %q", i, d.CorrectAnswer)
		}
	}
}

func TestExtractRenderedText(t *testing.T) {
	drafts, ok := NewExtractor(baseVariant()).Extract(fullPayload())
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	first := drafts[0].Question
	if !strings.Contains(first, "🧠 Q1") {
		t.Errorf("expected rendered text to contain brain marker and question, got %q", first)
	}
	if !strings.Contains(first, "A) A B) B C) C D) D") {
		t.Errorf("expected formatted options, got %q", first)
	}
	// Position 1 has nothing completed yet.
	if !strings.HasPrefix(first, strings.Repeat("⬜", 10)) {
		t.Errorf("expected empty progress bar prefix, got %q", first)
	}
	// Position 10 shows nine completed.
	last := drafts[9].Question
	if !strings.HasPrefix(last, strings.Repeat("🟩", 9)+"⬜") {
		t.Errorf("expected nearly full progress bar, got %q", last)
	}
}

func TestExtractInsufficient(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *upstream.GeneratedQuizPayload)
	}{
		{"empty hard tier", func(p *upstream.GeneratedQuizPayload) { p.Hard = nil }},
		{"short easy tier", func(p *upstream.GeneratedQuizPayload) { p.Easy = p.Easy[:4] }},
		{"short medium tier", func(p *upstream.GeneratedQuizPayload) { p.Medium = p.Medium[:2] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fullPayload()
			tt.mutate(p)
			drafts, ok := NewExtractor(baseVariant()).Extract(p)
			if ok {
				t.Fatalf("expected insufficiency, got %d drafts", len(drafts))
			}
			if drafts != nil {
				t.Fatal("insufficiency must not return a partial draft list")
			}
		})
	}
}

func TestExtractNilPayload(t *testing.T) {
	if _, ok := NewExtractor(baseVariant()).Extract(nil); ok {
		t.Fatal("expected insufficiency for nil payload")
	}
}

func TestCyberPreferredIDs(t *testing.T) {
	p := fullPayload()
	// Easy tier carries exactly the preferred ids 1..4 plus id 5.
	drafts, ok := NewExtractor(cyberVariant()).Extract(p)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	for i, want := range []int{1, 2, 3, 4, 5} {
		if drafts[i].ExternalItemID != want {
			t.Errorf("easy position %d: expected id %d, got %d", i+1, want, drafts[i].ExternalItemID)
		}
	}
}

func TestCyberFallbackMissingPreferredID(t *testing.T) {
	p := fullPayload()
	// Remove id 1 and offer id 99 instead: position 1 must fall back to the
	// earliest available easy item rather than failing the extraction.
	p.Easy = []upstream.QuizItem{
		{ID: 99, Question: "Q99", CorrectAnswer: "a"},
		{ID: 2, Question: "Q2", CorrectAnswer: "a"},
		{ID: 3, Question: "Q3", CorrectAnswer: "a"},
		{ID: 4, Question: "Q4", CorrectAnswer: "a"},
		{ID: 100, Question: "Q100", CorrectAnswer: "a"},
	}
	drafts, ok := NewExtractor(cyberVariant()).Extract(p)
	if !ok {
		t.Fatal("expected extraction to succeed via fallback")
	}
	got := []int{drafts[0].ExternalItemID, drafts[1].ExternalItemID, drafts[2].ExternalItemID, drafts[3].ExternalItemID, drafts[4].ExternalItemID}
	want := []int{99, 2, 3, 4, 100}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected easy ids %v, got %v", want, got)
		}
	}
}

func TestCyberCodePrecedence(t *testing.T) {
	tests := []struct {
		name         string
		item         upstream.QuizItem
		wantImage    string
		wantInText   string
		notWantInTxt string
	}{
		{
			name:      "image wins over markdown",
			item:      upstream.QuizItem{ID: 1, Question: "Q", CodeImage: "https://img/code.png", CodeMarkdown: "```go\ncode\n```"},
			wantImage: "https://img/code.png",
			// With an image present nothing is inlined.
			notWantInTxt: "```go",
		},
		{
			name:       "markdown wins over raw",
			item:       upstream.QuizItem{ID: 1, Question: "Q", CodeMarkdown: "```go\ncode\n```", CodeText: "raw code"},
			wantInText: "```go\ncode\n```",
		},
		{
			name:       "raw only",
			item:       upstream.QuizItem{ID: 1, Question: "Q", CodeText: "raw code"},
			wantInText: "raw code",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fullPayload()
			p.Easy[0] = tt.item
			drafts, ok := NewExtractor(cyberVariant()).Extract(p)
			if !ok {
				t.Fatal("expected extraction to succeed")
			}
			d := drafts[0]
			if d.CodeSnippetImage != tt.wantImage {
				t.Errorf("expected image %q, got %q", tt.wantImage, d.CodeSnippetImage)
			}
			if tt.wantInText != "" && !strings.Contains(d.Question, tt.wantInText) {
				t.Errorf("expected question to contain %q, got %q", tt.wantInText, d.Question)
			}
			if tt.notWantInTxt != "" && strings.Contains(d.Question, tt.notWantInTxt) {
				t.Errorf("question must not inline %q, got %q", tt.notWantInTxt, d.Question)
			}
		})
	}
}

func TestScenarioPositions(t *testing.T) {
	p := fullPayload()
	p.Medium[0].ScenarioTitle = "Network outage"
	p.Medium[0].TextContext = "A router drops every third packet."
	p.Hard[0].ScenarioTitle = "Breach"
	p.Hard[0].TextContext = "Logs show repeated failed logins."

	drafts, ok := NewExtractor(baseVariant()).Extract(p)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}

	v := baseVariant()
	for _, d := range drafts {
		switch d.Sequence {
		case v.FirstMediumSeq():
			want := "Network outage\nA router drops every third packet."
			if d.Scenario != want {
				t.Errorf("sequence %d: expected scenario %q, got %q", d.Sequence, want, d.Scenario)
			}
			if strings.Contains(d.Question, "Network outage") {
				t.Error("scenario must not be inlined into the question text")
			}
		case v.FirstHardSeq():
			if !strings.HasPrefix(d.Scenario, "Breach\n") {
				t.Errorf("sequence %d: expected hard scenario, got %q", d.Sequence, d.Scenario)
			}
		default:
			if d.Scenario != "" {
				t.Errorf("sequence %d: expected no scenario, got %q", d.Sequence, d.Scenario)
			}
		}
	}
}

func TestScenarioRequiresTitleAndContext(t *testing.T) {
	p := fullPayload()
	p.Medium[0].ScenarioTitle = "Title without context"
	drafts, ok := NewExtractor(baseVariant()).Extract(p)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if drafts[baseVariant().FirstMediumSeq()-1].Scenario != "" {
		t.Error("expected empty scenario when the context half is missing")
	}
}
