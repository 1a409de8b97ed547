// Package matching scores extracted inventory records against the reference
// pool. Two modes exist: ranked multi-candidate matching over a fixed tier
// table, and exact one-term-to-one-result bulk resolution.
package matching

import (
	"sort"
	"strings"

	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

// Tier classifies one (extracted, reference) identifier pair. Every tier
// carries a fixed confidence; scores are never interpolated.
type Tier string

const (
	TierBothExact          Tier = "both_exact"
	TierSerialExactTagPart Tier = "serial_exact_tag_partial"
	TierTagExactSerialPart Tier = "tag_exact_serial_partial"
	TierBothPartial        Tier = "both_partial"
	TierSerialOnly         Tier = "serial_only"
	TierTagOnly            Tier = "tag_only"
	TierSerialPartial      Tier = "serial_partial"
	TierTagPartial         Tier = "tag_partial"
	TierNone               Tier = "none"
)

var tierConfidence = map[Tier]int{
	TierBothExact:          100,
	TierSerialExactTagPart: 90,
	TierTagExactSerialPart: 85,
	TierSerialOnly:         80,
	TierBothPartial:        75,
	TierTagOnly:            70,
	TierSerialPartial:      60,
	TierTagPartial:         50,
	TierNone:               0,
}

// Confidence returns the fixed score for the tier.
func (t Tier) Confidence() int {
	return tierConfidence[t]
}

// exactAnchored tiers outrank purely partial tiers of equal confidence.
// With the fixed table confidences are unique per tier, so this only bites
// if the table is ever reconfigured.
func (t Tier) exactAnchored() bool {
	switch t {
	case TierBothExact, TierSerialExactTagPart, TierTagExactSerialPart:
		return true
	}
	return false
}

// partial reports substring containment in either direction.
func partial(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Classify places a normalized identifier pair into exactly one tier.
// First matching rule wins. If any of the four values is empty the pair is
// unclassifiable and gets TierNone.
func Classify(extSerial, extTag, refSerial, refTag string) Tier {
	if extSerial == "" || extTag == "" || refSerial == "" || refTag == "" {
		return TierNone
	}

	serialExact := extSerial == refSerial
	tagExact := extTag == refTag
	serialPartial := partial(extSerial, refSerial)
	tagPartial := partial(extTag, refTag)

	switch {
	case serialExact && tagExact:
		return TierBothExact
	case serialExact && tagPartial:
		return TierSerialExactTagPart
	case tagExact && serialPartial:
		return TierTagExactSerialPart
	case serialPartial && tagPartial:
		return TierBothPartial
	case serialExact:
		return TierSerialOnly
	case tagExact:
		return TierTagOnly
	case serialPartial:
		return TierSerialPartial
	case tagPartial:
		return TierTagPartial
	}
	return TierNone
}

// Engine scores extracted records against a reference pool.
type Engine struct{}

// NewEngine creates a matching engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Match returns ranked candidates for each extracted record, parallel to the
// input order. threshold is a 0..1 fraction; a candidate survives only if
// its confidence is at least threshold*100. Empty candidate lists are valid.
// The pass is deterministic: identical inputs yield identical tiers and
// ordering.
func (e *Engine) Match(records []model.ExtractedRecord, pool []model.ReferenceItem, threshold float64) [][]model.MatchCandidate {
	cutoff := int(threshold * 100)

	matches := make([][]model.MatchCandidate, 0, len(records))
	for _, rec := range records {
		extSerial := model.NormalizeIdentifier(rec.SerialNumber)
		extTag := model.NormalizeIdentifier(rec.TagNumber)

		var candidates []model.MatchCandidate
		for _, ref := range pool {
			refSerial := model.NormalizeIdentifier(ref.SerialNumber)
			refTag := model.NormalizeIdentifier(ref.TagNumber)

			tier := Classify(extSerial, extTag, refSerial, refTag)
			if tier == TierNone {
				continue
			}
			confidence := tier.Confidence()
			if confidence < cutoff {
				continue
			}

			candidates = append(candidates, model.MatchCandidate{
				Item:            ref,
				Confidence:      confidence,
				Tier:            string(tier),
				ExtractedSerial: extSerial,
				ExtractedTag:    extTag,
				ReferenceSerial: refSerial,
				ReferenceTag:    refTag,
			})
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].Confidence != candidates[j].Confidence {
				return candidates[i].Confidence > candidates[j].Confidence
			}
			return Tier(candidates[i].Tier).exactAnchored() && !Tier(candidates[j].Tier).exactAnchored()
		})

		matches = append(matches, candidates)
	}

	return matches
}
