package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

func refItem(serial, tag string) model.ReferenceItem {
	return model.ReferenceItem{
		ID:              "master_1",
		ItemDescription: "Desktop Screen",
		SerialNumber:    serial,
		TagNumber:       tag,
		Quantity:        1,
		Status:          "active",
		Source:          model.SourceMaster,
	}
}

func extRecord(serial, tag string) model.ExtractedRecord {
	return model.ExtractedRecord{
		ItemDescription: "Screen",
		Quantity:        1,
		SerialNumber:    serial,
		TagNumber:       tag,
		Status:          "New",
	}
}

func TestClassify_BothExact(t *testing.T) {
	tier := Classify("1H35070V93", "MOHDIG125/SCR587", "1H35070V93", "MOHDIG125/SCR587")
	assert.Equal(t, TierBothExact, tier)
	assert.Equal(t, 100, tier.Confidence())
}

func TestClassify_SerialExactTagPartial(t *testing.T) {
	tier := Classify("1H35070V93", "SCR587", "1H35070V93", "MOHDIG125/SCR587")
	assert.Equal(t, TierSerialExactTagPart, tier)
	assert.Equal(t, 90, tier.Confidence())
}

func TestClassify_TagExactSerialPartial(t *testing.T) {
	tier := Classify("1H35070", "MOHDIG125/SCR587", "1H35070V93", "MOHDIG125/SCR587")
	assert.Equal(t, TierTagExactSerialPart, tier)
	assert.Equal(t, 85, tier.Confidence())
}

func TestClassify_PrecedenceTable(t *testing.T) {
	tests := []struct {
		name                               string
		extSerial, extTag, refSerial, refTag string
		want                               Tier
	}{
		{"serial only", "1H35070V93", "AAA", "1H35070V93", "BBB", TierSerialOnly},
		{"both partial", "1H35070", "SCR587", "1H35070V93", "MOHDIG125/SCR587", TierBothPartial},
		{"tag only", "AAA", "MOHDIG125", "BBB", "MOHDIG125", TierTagOnly},
		{"serial partial", "1H35070", "AAA", "1H35070V93", "BBB", TierSerialPartial},
		{"tag partial", "AAA", "SCR587", "BBB", "MOHDIG125/SCR587", TierTagPartial},
		{"no relation", "AAA", "BBB", "CCC", "DDD", TierNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.extSerial, tt.extTag, tt.refSerial, tt.refTag))
		})
	}
}

func TestClassify_EmptyValueAlwaysNone(t *testing.T) {
	// All four identifiers must be present for any tier to apply, even if
	// the populated pair matches exactly.
	assert.Equal(t, TierNone, Classify("", "MOHDIG125", "1H35070V93", "MOHDIG125"))
	assert.Equal(t, TierNone, Classify("1H35070V93", "", "1H35070V93", "MOHDIG125"))
	assert.Equal(t, TierNone, Classify("1H35070V93", "MOHDIG125", "", "MOHDIG125"))
	assert.Equal(t, TierNone, Classify("1H35070V93", "MOHDIG125", "1H35070V93", ""))
}

func TestMatch_ScenarioA(t *testing.T) {
	engine := NewEngine()

	matches := engine.Match(
		[]model.ExtractedRecord{extRecord("1H35070V93", "MOHDIG125/SCR587")},
		[]model.ReferenceItem{refItem("1H35070V93", "MOHDIG125/SCR587")},
		0.5,
	)

	require.Len(t, matches, 1)
	require.Len(t, matches[0], 1)
	assert.Equal(t, string(TierBothExact), matches[0][0].Tier)
	assert.Equal(t, 100, matches[0][0].Confidence)
}

func TestMatch_ScenarioB(t *testing.T) {
	engine := NewEngine()

	matches := engine.Match(
		[]model.ExtractedRecord{extRecord("1H35070V93", "SCR587")},
		[]model.ReferenceItem{refItem("1H35070V93", "MOHDIG125/SCR587")},
		0.5,
	)

	require.Len(t, matches, 1)
	require.Len(t, matches[0], 1)
	assert.Equal(t, string(TierSerialExactTagPart), matches[0][0].Tier)
	assert.Equal(t, 90, matches[0][0].Confidence)
}

func TestMatch_ThresholdNeverViolated(t *testing.T) {
	engine := NewEngine()
	records := []model.ExtractedRecord{
		extRecord("1H35070V93", "MOHDIG125/SCR587"),
		extRecord("1H35070", "SCR587"),
		extRecord("XXX", "YYY"),
	}
	pool := []model.ReferenceItem{
		refItem("1H35070V93", "MOHDIG125/SCR587"),
		refItem("1H99999X01", "MOHCPU300/CPU101"),
	}

	for _, threshold := range []float64{0, 0.5, 0.75, 0.9, 1.0} {
		matches := engine.Match(records, pool, threshold)
		require.Len(t, matches, len(records))
		cutoff := int(threshold * 100)
		for _, candidates := range matches {
			for _, c := range candidates {
				assert.GreaterOrEqual(t, c.Confidence, cutoff)
				assert.NotEqual(t, string(TierNone), c.Tier)
			}
		}
	}
}

func TestMatch_ZeroThresholdExcludesNone(t *testing.T) {
	engine := NewEngine()

	matches := engine.Match(
		[]model.ExtractedRecord{extRecord("XXX", "YYY")},
		[]model.ReferenceItem{refItem("1H35070V93", "MOHDIG125/SCR587")},
		0,
	)

	require.Len(t, matches, 1)
	assert.Empty(t, matches[0])
}

func TestMatch_NormalizesIdentifiers(t *testing.T) {
	engine := NewEngine()

	matches := engine.Match(
		[]model.ExtractedRecord{extRecord("  1h35070v93 ", "mohdig125/scr587")},
		[]model.ReferenceItem{refItem("1H35070V93", "MOHDIG125/SCR587")},
		0.5,
	)

	require.Len(t, matches[0], 1)
	assert.Equal(t, string(TierBothExact), matches[0][0].Tier)
	assert.Equal(t, "1H35070V93", matches[0][0].ExtractedSerial)
}

func TestMatch_SortedByConfidenceDescending(t *testing.T) {
	engine := NewEngine()
	pool := []model.ReferenceItem{
		refItem("1H35070", "SCR587"),                 // partial-ish vs query
		refItem("1H35070V93", "MOHDIG125/SCR587"),    // exact
		refItem("1H35070V93", "MOHDIG125/SCR587XXX"), // serial exact, tag partial
	}

	matches := engine.Match(
		[]model.ExtractedRecord{extRecord("1H35070V93", "MOHDIG125/SCR587")},
		pool, 0,
	)

	candidates := matches[0]
	require.NotEmpty(t, candidates)
	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].Confidence, candidates[i].Confidence)
	}
	assert.Equal(t, string(TierBothExact), candidates[0].Tier)
}

func TestMatch_Idempotent(t *testing.T) {
	engine := NewEngine()
	records := []model.ExtractedRecord{
		extRecord("1H35070V93", "SCR587"),
		extRecord("AH200", "MOHCPU300"),
	}
	pool := []model.ReferenceItem{
		refItem("1H35070V93", "MOHDIG125/SCR587"),
		refItem("AH200", "MOHCPU300"),
	}

	first := engine.Match(records, pool, 0.5)
	second := engine.Match(records, pool, 0.5)
	assert.Equal(t, first, second)
}

func TestMatch_OutputParallelToInput(t *testing.T) {
	engine := NewEngine()
	records := []model.ExtractedRecord{
		extRecord("NOMATCH1", "NOMATCH1"),
		extRecord("1H35070V93", "MOHDIG125/SCR587"),
		extRecord("NOMATCH2", "NOMATCH2"),
	}

	matches := engine.Match(records, []model.ReferenceItem{refItem("1H35070V93", "MOHDIG125/SCR587")}, 0.5)

	require.Len(t, matches, 3)
	assert.Empty(t, matches[0])
	assert.Len(t, matches[1], 1)
	assert.Empty(t, matches[2])
}
