// Package quality scores guidance content for structural completeness.
package quality

import (
	"strings"
	"unicode/utf8"

	"github.com/carewise-labs/guidance-cli/internal/model"
)

// DefaultThreshold gates whether generated content is accepted.
const DefaultThreshold = 0.8

// Score rates a content payload in [0, 1] from structural completeness.
// It is deterministic and side-effect-free: the same payload always yields
// the same score regardless of provider or language.
//
// Base 0.5, +0.1 title >= 5 chars, +0.1 description >= 20 chars,
// +0.2 instructions >= 50 chars, +0.1 warnings present, +0.1 tips present.
func Score(c model.Content) float64 {
	score := 0.5

	if utf8.RuneCountInString(strings.TrimSpace(c.Title)) >= 5 {
		score += 0.1
	}
	if utf8.RuneCountInString(strings.TrimSpace(c.Description)) >= 20 {
		score += 0.1
	}
	if utf8.RuneCountInString(strings.TrimSpace(c.Instructions)) >= 50 {
		score += 0.2
	}
	if strings.TrimSpace(c.Warnings) != "" {
		score += 0.1
	}
	if strings.TrimSpace(c.Tips) != "" {
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
