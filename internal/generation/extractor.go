package generation

import (
	"fmt"
	"strings"

	"certquiz-service/internal/upstream"
)

// Extractor converts a raw generation payload into the canonical ordered
// question drafts for one variant. Extraction either yields the full set or
// reports "not ready" — a partial list is never returned as if final.
type Extractor struct {
	cfg VariantConfig
}

func NewExtractor(cfg VariantConfig) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract assembles exactly Total() drafts in presentation order. The second
// return value is false when the payload cannot fill every position yet; that
// is the normal "still generating" case, not an error.
func (e *Extractor) Extract(p *upstream.GeneratedQuizPayload) ([]Draft, bool) {
	if p == nil {
		return nil, false
	}

	easy := e.pickTier(p.Easy, e.cfg.EasyCount, e.cfg.PreferredIDs[TierEasy])
	medium := e.pickTier(p.Medium, e.cfg.MediumCount, e.cfg.PreferredIDs[TierMedium])
	hard := e.pickTier(p.Hard, e.cfg.HardCount, e.cfg.PreferredIDs[TierHard])
	if easy == nil || medium == nil || hard == nil {
		return nil, false
	}

	total := e.cfg.Total()
	drafts := make([]Draft, 0, total)
	seq := 1
	for _, tier := range [][]upstream.QuizItem{easy, medium, hard} {
		for _, item := range tier {
			d := Draft{
				Sequence:       seq,
				Question:       e.render(item, seq, total),
				CorrectAnswer:  item.CorrectAnswer,
				ExternalItemID: item.ID,
			}
			if e.cfg.CodeAware {
				d.CodeSnippetImage = item.CodeImage
			}
			if seq == e.cfg.FirstMediumSeq() || seq == e.cfg.FirstHardSeq() {
				d.Scenario = composeScenario(item)
			}
			drafts = append(drafts, d)
			seq++
		}
	}
	return drafts, true
}

// pickTier selects count items from one tier, or nil when the tier cannot
// fill its positions. With preferred ids configured, each position strictly
// prefers its id; a missing id falls back to the earliest unused item rather
// than failing the extraction. The upstream bank reuses id ranges
// inconsistently across generations, so an id-content mismatch is accepted in
// exchange for a stable outcome.
func (e *Extractor) pickTier(items []upstream.QuizItem, count int, preferred []int) []upstream.QuizItem {
	if len(items) < count {
		return nil
	}
	if len(preferred) == 0 {
		return items[:count]
	}

	used := make([]bool, len(items))
	picked := make([]upstream.QuizItem, 0, count)
	for pos := 0; pos < count; pos++ {
		idx := -1
		if pos < len(preferred) {
			for i, item := range items {
				if !used[i] && item.ID == preferred[pos] {
					idx = i
					break
				}
			}
		}
		if idx == -1 {
			for i := range items {
				if !used[i] {
					idx = i
					break
				}
			}
		}
		used[idx] = true
		picked = append(picked, items[idx])
	}
	return picked
}

// render builds the stored question text: optional progress bar, the question
// body with code enrichment, then the four options.
func (e *Extractor) render(item upstream.QuizItem, seq, total int) string {
	body := item.Question
	if e.cfg.CodeAware && item.CodeImage == "" {
		// Image beats markdown beats raw text; the image itself travels in a
		// separate field so clients can render it natively.
		if item.CodeMarkdown != "" {
			body += "\n\n" + item.CodeMarkdown
		} else if item.CodeText != "" {
			body += "\n\n" + item.CodeText
		}
	}

	options := fmt.Sprintf("A) %s B) %s C) %s D) %s",
		item.OptionA, item.OptionB, item.OptionC, item.OptionD)

	if e.cfg.ProgressBar {
		return fmt.Sprintf("%s 🧠 %s\n\n%s", progressBar(seq, total), body, options)
	}
	return fmt.Sprintf("%s\n\n%s", body, options)
}

// progressBar renders answered-so-far versus remaining for one position.
func progressBar(seq, total int) string {
	return strings.Repeat("🟩", seq-1) + strings.Repeat("⬜", total-seq+1)
}

// composeScenario joins the scenario title and context, or returns "" when
// the item carries no scenario pair.
func composeScenario(item upstream.QuizItem) string {
	if item.ScenarioTitle == "" || item.TextContext == "" {
		return ""
	}
	return item.ScenarioTitle + "\n" + item.TextContext
}
