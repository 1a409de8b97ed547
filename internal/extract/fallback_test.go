package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackParse_TypicalLine(t *testing.T) {
	records := FallbackParse("1 Screen 1H35070V93 MOHDIG125/SCR587 New")

	require.Len(t, records, 1)
	assert.Equal(t, "Screen", records[0].ItemDescription)
	assert.Equal(t, 1, records[0].Quantity)
	assert.Equal(t, "1H35070V93", records[0].SerialNumber)
	assert.Equal(t, "MOHDIG125/SCR587", records[0].TagNumber)
	assert.Equal(t, "New", records[0].Status)
}

func TestFallbackParse_NoLeadingQuantity(t *testing.T) {
	records := FallbackParse("Screen 1H35070V93 MOHDIG125/SCR587 Used")

	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Quantity)
	assert.Equal(t, "Used", records[0].Status)
}

func TestFallbackParse_MissingStatusDefaultsNew(t *testing.T) {
	records := FallbackParse("2 CPU AH200X55 MOHCPU300")

	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].Quantity)
	assert.Equal(t, "AH200X55", records[0].SerialNumber)
	assert.Equal(t, "MOHCPU300", records[0].TagNumber)
	assert.Equal(t, "New", records[0].Status)
}

func TestFallbackParse_SerialPrefixes(t *testing.T) {
	text := "1 Screen 1H111 TAG1 New\n" +
		"1 CPU AH222 TAG2 New\n" +
		"1 Monitor 1HF333 TAG3 New"

	records := FallbackParse(text)
	require.Len(t, records, 3)
	assert.Equal(t, "1H111", records[0].SerialNumber)
	assert.Equal(t, "AH222", records[1].SerialNumber)
	assert.Equal(t, "1HF333", records[2].SerialNumber)
}

func TestFallbackParse_SkipsUnusableLines(t *testing.T) {
	text := "INVENTORY REPORT\n" +
		"\n" +
		"too short\n" +
		"1 Screen NOSERIAL HERE AtAll\n" +
		"1 Screen 1H35070V93 MOHDIG125/SCR587 New"

	records := FallbackParse(text)
	require.Len(t, records, 1)
	assert.Equal(t, "1H35070V93", records[0].SerialNumber)
}

func TestFallbackParse_EmptyInput(t *testing.T) {
	assert.Empty(t, FallbackParse(""))
	assert.Empty(t, FallbackParse("\n\n\n"))
}

func TestFallbackParse_Deterministic(t *testing.T) {
	text := "1 Screen 1H35070V93 MOHDIG125/SCR587 New\n2 CPU AH200X55 MOHCPU300 Used"
	assert.Equal(t, FallbackParse(text), FallbackParse(text))
}
