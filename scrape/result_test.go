package scrape

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	_ "embed"
)

//go:embed testdata/raceresult.html
var raceresultHTML string

func TestExtractResult(t *testing.T) {
	res, err := ExtractResult(raceresultHTML, nil)
	require.NoError(t, err)

	require.Len(t, res.Finishes, LanesPerRace)
	require.Equal(t, Finish{
		RankRaw:  "１",
		Lane:     1,
		PlayerID: ptr(4320),
		Name:     ptr("峰竜太"),
		RaceTime: ptr(`1'49"8`),
	}, res.Finishes[0])

	// Page order is by rank; output is by lane.
	require.Equal(t, "５", res.Finishes[3].RankRaw)
	require.Equal(t, 4, res.Finishes[3].Lane)
	// Lane 6 has no number printed and is resolved from its colour class.
	require.Equal(t, 6, res.Finishes[5].Lane)
	require.Nil(t, res.Finishes[5].RaceTime)

	require.Equal(t, []string{"3連単"}, res.BetTypes)
	if diff := cmp.Diff(map[string][]PayoutLine{
		"3連単": {{Boats: []int{1, 2, 3}, Amount: 5300, Popularity: ptr(22)}},
	}, res.Payouts); diff != "" {
		t.Fatalf("payouts mismatch (-want +got):\n%s", diff)
	}

	require.Equal(t, ptr("逃げ"), res.Technique)

	require.Len(t, res.Starts, LanesPerRace)
	require.Equal(t, StartTiming{Course: 1, Lane: 1, ST: ptr(0.08)}, res.Starts[0])
}

const payoutPage = `<html><body>
<div class="grid is-type2 h-clear">
<div class="table1"><table class="is-w495">
<thead><tr><th>勝式</th><th>組番</th><th>払戻金</th><th>人気</th></tr></thead>
<tbody>
<tr><td rowspan="2">複勝</td>
<td><div class="numberSet1_row"><span class="numberSet1_number is-type1">1</span></div></td>
<td><span class="is-payout1">&yen;110</span></td><td></td></tr>
<tr>
<td><div class="numberSet1_row"><span class="numberSet1_number is-type3"></span></div></td>
<td><span class="is-payout1">&yen;1,230</span></td><td></td></tr>
</tbody>
<tbody>
<tr><td rowspan="3">拡連複</td>
<td><div class="numberSet1_row"><span class="numberSet1_number">1</span><span class="numberSet1_text">=</span><span class="numberSet1_number">3</span></div></td>
<td><span class="is-payout1">&yen;350</span></td><td>4</td></tr>
</tbody>
<tbody>
<tr>
<td><div class="numberSet1_row"><span class="numberSet1_number">1</span><span class="numberSet1_text">=</span><span class="numberSet1_number">5</span></div></td>
<td><span class="is-payout1">&yen;760</span></td><td>9</td></tr>
<tr>
<td><div class="numberSet1_row"><span class="numberSet1_number">3</span><span class="numberSet1_text">=</span><span class="numberSet1_number">5</span></div></td>
<td><span class="is-payout1"></span></td><td></td></tr>
</tbody>
<tbody>
<tr><td>2連単</td><td>&nbsp;</td><td>&nbsp;</td><td>&nbsp;</td></tr>
</tbody>
</table></div>
</div>
</body></html>`

func TestExtractPayouts(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	res, err := ExtractResult(payoutPage, zap.New(core))
	require.NoError(t, err)

	require.Equal(t, []string{"複勝", "拡連複"}, res.BetTypes)
	want := map[string][]PayoutLine{
		"複勝": {
			{Boats: []int{1}, Amount: 110},
			{Boats: []int{3}, Amount: 1230},
		},
		"拡連複": {
			{Boats: []int{1, 3}, Amount: 350, Popularity: ptr(4)},
			{Boats: []int{1, 5}, Amount: 760, Popularity: ptr(9)},
		},
	}
	if diff := cmp.Diff(want, res.Payouts); diff != "" {
		t.Fatalf("payouts mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 1, logs.FilterMessage("payout amount missing, skipping").Len())
}

func TestNextBetType(t *testing.T) {
	testCases := []struct {
		name  string
		prev  string
		group betGroup
		want  string
	}{
		{name: "rowspan label", prev: "", group: betGroup{Label: ptr("3連単"), RowSpan: true}, want: "3連単"},
		{name: "plain label", prev: "3連単", group: betGroup{Label: ptr("3連複")}, want: "3連複"},
		{name: "continuation row", prev: "3連単", group: betGroup{Label: ptr("1-2-3"), HasNumbers: true}, want: "3連単"},
		{name: "empty cell", prev: "2連単", group: betGroup{}, want: "2連単"},
		{name: "nothing yet", prev: "", group: betGroup{}, want: ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, nextBetType(tc.prev, tc.group))
		})
	}
}

func TestExtractResultEmpty(t *testing.T) {
	res, err := ExtractResult(`<html><body></body></html>`, nil)
	require.NoError(t, err)
	require.Empty(t, res.Finishes)
	require.Empty(t, res.Payouts)
	require.Nil(t, res.Technique)
}

func TestExtractResultLaneOutOfRange(t *testing.T) {
	page := strings.Replace(raceresultHTML, `is-boatColor1">1</td>`, `is-boatColor1">9</td>`, 1)
	require.NotEqual(t, raceresultHTML, page)

	core, logs := observer.New(zap.WarnLevel)
	res, err := ExtractResult(page, zap.New(core))
	require.NoError(t, err)

	require.Len(t, res.Finishes, LanesPerRace-1)
	require.Equal(t, 2, res.Finishes[0].Lane)
	require.Equal(t, 1, logs.FilterMessage("finish lane out of range, skipping").Len())
	// Payouts on the same page are unaffected.
	require.NotEmpty(t, res.Payouts)
}
