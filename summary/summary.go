// Package summary renders the attendance caption posted alongside (or patched
// onto) the channel message. The caption is a pure function of the snapshot
// and the clock; it never touches the network.
package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/plenumwatch/knesset-presence/bidi"
	"github.com/plenumwatch/knesset-presence/model"
)

// keycap digit emoji, indexed by digit value.
var digitEmoji = [10]string{
	"0️⃣", "1️⃣", "2️⃣", "3️⃣", "4️⃣",
	"5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣",
}

// Formatter builds captions. Location fixes the displayed clock to the
// channel's audience; Now is overridable in tests.
type Formatter struct {
	Location *time.Location
	Now      func() time.Time
}

// NewFormatter returns a formatter pinned to Israel local time. When the
// timezone database is unavailable the formatter degrades to UTC rather than
// failing startup.
func NewFormatter() *Formatter {
	loc, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		loc = time.UTC
	}
	return &Formatter{Location: loc, Now: time.Now}
}

// numberEmoji renders n as a string of keycap digit emoji.
func numberEmoji(n int) string {
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for _, d := range s {
		if d >= '0' && d <= '9' {
			b.WriteString(digitEmoji[d-'0'])
		}
	}
	return b.String()
}

// indicator maps an attendance percentage to the three-tier marker.
func indicator(pct float64) string {
	switch {
	case pct >= 75:
		return "🟢"
	case pct >= 50:
		return "🟡"
	default:
		return "🟠"
	}
}

// Caption renders the full multi-line caption for a snapshot. Each line is
// wrapped with RTL marks so Telegram orders the mixed Hebrew/emoji/number
// content correctly.
func (f *Formatter) Caption(snap *model.Snapshot) (string, error) {
	if snap == nil {
		return "", fmt.Errorf("nil snapshot")
	}
	bloc := snap.BlocStats()
	factions := snap.FactionStats()

	totalPresent := 0
	for _, fs := range factions {
		totalPresent += fs.Present
	}

	now := f.Now().In(f.Location)
	clock := now.Format("15:04")

	factionLines := make([]string, 0, len(factions))
	for _, fs := range factions {
		factionLines = append(factionLines,
			fmt.Sprintf("%s %s: %d/%d", indicator(fs.Percentage), fs.Name, fs.Present, fs.Total))
	}

	parts := []string{
		bidi.WrapRTL(fmt.Sprintf("🏛️ עדכון נוכחות במליאת הכנסת | %s", clock)),
		bidi.WrapRTL("──────────────────"),
		bidi.WrapRTL(fmt.Sprintf("👥 סה״כ חברי כנסת במליאה: %s", numberEmoji(totalPresent))),
		"",
		bidi.WrapRTL(fmt.Sprintf("🔷 קואליציה: %d/%d", bloc.CoalitionPresent, bloc.CoalitionTotal)),
		bidi.WrapRTL(fmt.Sprintf("🔶 אופוזיציה: %d/%d", bloc.OppositionPresent, bloc.OppositionTotal)),
		"",
		bidi.WrapRTL("📊 נוכחות לפי סיעות:"),
		bidi.WrapRTL(strings.Join(factionLines, "\n")),
		"",
		bidi.WrapRTL("🔄 מתעדכן כל דקה"),
	}
	return strings.Join(parts, "\n"), nil
}
