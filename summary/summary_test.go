package summary

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plenumwatch/knesset-presence/model"
)

func fixedFormatter(t *testing.T) *Formatter {
	t.Helper()
	f := NewFormatter()
	f.Location = time.UTC
	f.Now = func() time.Time { return time.Date(2026, 3, 2, 14, 37, 0, 0, time.UTC) }
	return f
}

func testSnapshot() *model.Snapshot {
	return &model.Snapshot{Members: []model.Member{
		// הליכוד: 3/4 present (75%), coalition
		{ID: 1, Faction: "הליכוד", Coalition: true, Present: true},
		{ID: 2, Faction: "הליכוד", Coalition: true, Present: true},
		{ID: 3, Faction: "הליכוד", Coalition: true, Present: true},
		{ID: 4, Faction: "הליכוד", Coalition: true, Present: false},
		// העבודה: 1/2 present (50%), opposition
		{ID: 5, Faction: "העבודה", Coalition: false, Present: true},
		{ID: 6, Faction: "העבודה", Coalition: false, Present: false},
		// מרצ: 0/1 present, opposition, must not be listed
		{ID: 7, Faction: "מרצ", Coalition: false, Present: false},
	}}
}

func TestCaption(t *testing.T) {
	f := fixedFormatter(t)
	caption, err := f.Caption(testSnapshot())
	require.NoError(t, err)

	assert.Contains(t, caption, "14:37", "header carries the local clock")
	assert.Contains(t, caption, "🔷 קואליציה: 3/4")
	assert.Contains(t, caption, "🔶 אופוזיציה: 1/3")
	assert.Contains(t, caption, "🟢 הליכוד: 3/4", "75% faction gets the high indicator")
	assert.Contains(t, caption, "🟡 העבודה: 1/2", "50% faction gets the medium indicator")
	assert.NotContains(t, caption, "מרצ", "zero-present faction is excluded")
	// 4 present in total, rendered as keycap digits.
	assert.Contains(t, caption, "4️⃣")
}

func TestCaptionFactionOrdering(t *testing.T) {
	f := fixedFormatter(t)
	snap := &model.Snapshot{Members: []model.Member{
		{ID: 1, Faction: "ב", Present: true},  // 100%
		{ID: 2, Faction: "א", Present: true},  // 50%
		{ID: 3, Faction: "א", Present: false},
	}}
	caption, err := f.Caption(snap)
	require.NoError(t, err)
	assert.Less(t, strings.Index(caption, "ב: 1/1"), strings.Index(caption, "א: 1/2"),
		"higher percentage must come first")
}

func TestCaptionLinesWrappedWithRTLMarks(t *testing.T) {
	f := fixedFormatter(t)
	caption, err := f.Caption(testSnapshot())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(caption, "‏"), "caption starts with an RLM")
	lines := strings.Split(caption, "\n")
	assert.True(t, strings.HasPrefix(lines[0], "‏") && strings.HasSuffix(lines[0], "‏"),
		"header is wrapped on both sides")
	last := lines[len(lines)-1]
	assert.True(t, strings.HasPrefix(last, "‏") && strings.HasSuffix(last, "‏"),
		"footer is wrapped on both sides")
	// Non-blank top-level blocks all carry marks; interior faction lines are
	// covered by the marks of the joined block around them.
	assert.GreaterOrEqual(t, strings.Count(caption, "‏"), 16)
}

func TestCaptionEmptySnapshot(t *testing.T) {
	f := fixedFormatter(t)
	caption, err := f.Caption(&model.Snapshot{})
	require.NoError(t, err)
	assert.Contains(t, caption, "0️⃣", "zero present renders as keycap zero")

	_, err = f.Caption(nil)
	assert.Error(t, err, "nil snapshot is a hard failure")
}

func TestIndicatorThresholds(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{100, "🟢"}, {75, "🟢"}, {74.9, "🟡"}, {50, "🟡"}, {49.9, "🟠"}, {0, "🟠"},
	}
	for _, tt := range tests {
		if got := indicator(tt.pct); got != tt.want {
			t.Errorf("indicator(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestNumberEmoji(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0️⃣"},
		{7, "7️⃣"},
		{42, "4️⃣" + "2️⃣"},
		{120, "1️⃣" + "2️⃣" + "0️⃣"},
	}
	for _, tt := range tests {
		if got := numberEmoji(tt.n); got != tt.want {
			t.Errorf("numberEmoji(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
