// Package caption holds the bilingual caption data model and the
// active-caption selector used for playback synchronization.
package caption

import (
	"fmt"

	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/timecode"
)

// Item is one timed bilingual caption. Timestamps use the SRT textual form
// HH:MM:SS,mmm and are kept as text so exports pass them through unchanged.
// OriginalText holds the transcription in the detected spoken language;
// TranslatedText holds the complementary language of the English/Chinese
// pair. Which language lands in which field is decided by the detected
// audio language, not by user preference.
type Item struct {
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime"`
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
}

// Contains reports whether playback position t falls inside the item's
// range, inclusive on both ends. Items with malformed timestamps never
// contain anything.
func (it Item) Contains(t float64) bool {
	start, err := timecode.Parse(it.StartTime)
	if err != nil {
		return false
	}
	end, err := timecode.Parse(it.EndTime)
	if err != nil {
		return false
	}
	return t >= start && t <= end
}

// TargetLanguage is the user's pre-generation preference. It biases which
// language the generation prompt prioritizes; it does not change the
// original/translated field assignment.
type TargetLanguage string

const (
	TargetEnglish TargetLanguage = "english"
	TargetChinese TargetLanguage = "chinese"
)

// ParseTargetLanguage validates a user-supplied preference value.
func ParseTargetLanguage(s string) (TargetLanguage, error) {
	switch TargetLanguage(s) {
	case TargetEnglish, TargetChinese:
		return TargetLanguage(s), nil
	default:
		return "", fmt.Errorf("unsupported target language %q: use english or chinese", s)
	}
}

// Track is one generation's ordered caption list. It is created whole when
// a generation resolves and replaced wholesale by the next one; there are
// no partial updates.
type Track struct {
	Items []Item
}

// NewTrack copies items into a fresh track.
func NewTrack(items []Item) *Track {
	out := make([]Item, len(items))
	copy(out, items)
	return &Track{Items: out}
}

// ActiveAt returns the index of the first caption whose range contains t,
// or false when no caption is active. Overlaps are not expected from the
// generator, but if present the first match in list order wins.
func (tr *Track) ActiveAt(t float64) (int, bool) {
	for i, it := range tr.Items {
		if it.Contains(t) {
			return i, true
		}
	}
	return 0, false
}

// Validate reports the first item whose start exceeds its end, or whose
// timestamps fail to parse.
func (tr *Track) Validate() error {
	for i, it := range tr.Items {
		start, err := timecode.Parse(it.StartTime)
		if err != nil {
			return fmt.Errorf("caption %d: %w", i+1, err)
		}
		end, err := timecode.Parse(it.EndTime)
		if err != nil {
			return fmt.Errorf("caption %d: %w", i+1, err)
		}
		if start > end {
			return fmt.Errorf("caption %d: start %s after end %s", i+1, it.StartTime, it.EndTime)
		}
	}
	return nil
}
