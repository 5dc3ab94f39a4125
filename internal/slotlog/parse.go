package slotlog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/xtding233/pokeslots-stats/internal/gacha"
)

// Markers describes how the bot formats roll results.
type Markers struct {
	BotName      string   // author name of roll messages
	ExcludedMode string   // messages mentioning this game mode are skipped
	Win          []string // trailing markers of a winning line
	Interceptor  string   // leading marker of a stolen line
	Shiny        string   // substring marking a shiny item name
}

func DefaultMarkers() Markers {
	return Markers{
		BotName:      "Pokeslots",
		ExcludedMode: "Safari Zone",
		Win:          []string{":bell:", ":tada:", ":confetti_ball:"},
		Interceptor:  ":rocket:",
		Shiny:        "S",
	}
}

// Log is the outcome of reading one export.
type Log struct {
	Events   []Event
	Rejected []*MalformedRecordError
	Messages int // entries in the export
	Excluded int // roll messages skipped for the excluded mode
}

// ReadLogFile parses an export file from disk.
func ReadLogFile(path string, m Markers) (*Log, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return ParseLog(b, m)
}

// ParseLog extracts roll events from a chat export with a top-level
// "messages" array. A bad roll message is rejected on its own and reading
// continues; only an unreadable export fails.
func ParseLog(data []byte, m Markers) (*Log, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("log is not valid JSON")
	}
	msgs := gjson.GetBytes(data, "messages")
	if !msgs.IsArray() {
		return nil, errors.New(`log has no "messages" array`)
	}

	out := &Log{}
	idx := -1
	msgs.ForEach(func(_, msg gjson.Result) bool {
		idx++
		out.Messages++
		if msg.Get("author.name").String() != m.BotName {
			return true
		}
		content := msg.Get("content").String()
		if !strings.HasPrefix(content, ":") || !strings.Contains(content, "\n") {
			return true
		}
		if m.ExcludedMode != "" && strings.Contains(content, m.ExcludedMode) {
			out.Excluded++
			return true
		}
		ev, err := parseMessage(idx, msg, content, m)
		if err != nil {
			out.Rejected = append(out.Rejected, err)
			return true
		}
		out.Events = append(out.Events, ev)
		return true
	})
	return out, nil
}

func parseMessage(idx int, msg gjson.Result, content string, m Markers) (Event, *MalformedRecordError) {
	ts := msg.Get("timestamp")
	if !ts.Exists() || ts.String() == "" {
		return Event{}, &MalformedRecordError{Index: idx, Reason: "missing timestamp"}
	}
	at, err := ParseTime(ts.String())
	if err != nil {
		return Event{}, &MalformedRecordError{Index: idx, Reason: err.Error()}
	}
	results, err := ParseContent(content, m)
	if err != nil {
		return Event{}, &MalformedRecordError{Index: idx, Reason: err.Error()}
	}
	return Event{Index: idx, Time: at.UTC(), Results: results}, nil
}

// ParseContent classifies the result lines of one roll message, one line per
// tier in tier order. Older messages have no Ultra beast line. Trailing
// whitespace after the last line is ignored; a blank line anywhere else is
// malformed.
func ParseContent(content string, m Markers) ([gacha.NumTiers]TierResult, error) {
	var results [gacha.NumTiers]TierResult
	lines := strings.Split(strings.TrimRight(content, " \t\r\n"), "\n")
	if len(lines) != gacha.NumTiers && len(lines) != gacha.NumTiers-1 {
		return results, fmt.Errorf("expected %d or %d result lines, got %d", gacha.NumTiers-1, gacha.NumTiers, len(lines))
	}
	for i, l := range lines {
		if l = strings.TrimSpace(l); l == "" {
			return results, fmt.Errorf("result line %d is blank", i+1)
		}
		r, ok := classify(l, m)
		if !ok {
			return results, fmt.Errorf("%s line has a win marker but no item name: %q", gacha.Tier(i), l)
		}
		results[i] = r
	}
	return results, nil
}

func classify(line string, m Markers) (TierResult, bool) {
	if m.Interceptor != "" && strings.HasPrefix(line, m.Interceptor) {
		return TierResult{Intercepted: true}, true
	}
	for _, w := range m.Win {
		if w != "" && strings.HasSuffix(line, w) {
			name := itemName(line)
			return TierResult{Item: name}, name != ""
		}
	}
	return TierResult{}, true
}

// itemName takes the third colon-delimited field:
// ":slot_rare: Dratini :bell:" -> "Dratini".
func itemName(line string) string {
	parts := strings.SplitN(line, ":", 4)
	if len(parts) < 3 {
		return ""
	}
	return strings.TrimSpace(parts[2])
}
