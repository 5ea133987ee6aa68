package caption

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Format is a supported caption output format.
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// ParseFormat validates a requested output format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatSRT:
		return FormatSRT, nil
	case FormatVTT:
		return FormatVTT, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// Render serializes the transcript in the requested format. Segments
// are re-sorted by start time before emission, so rendering is
// idempotent and safe on unsorted input.
func Render(t Transcript, f Format) (string, error) {
	switch f {
	case FormatSRT:
		return renderSRT(t), nil
	case FormatVTT:
		return renderVTT(t), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", f)
	}
}

func sortedByStart(t Transcript) Transcript {
	sorted := append(Transcript(nil), t...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	return sorted
}

// renderSRT emits SubRip: index, comma-millisecond timestamp range,
// decorated text, blank separator. SRT carries no markup, so non-speech
// cues get bracket decoration only.
func renderSRT(t Transcript) string {
	var lines []string
	for i, seg := range sortedByStart(t) {
		text := seg.Text
		switch seg.Kind {
		case KindMusic:
			if !strings.HasPrefix(text, "[♪") {
				text = "[♪ " + text + " ♪]"
			}
		case KindSound:
			if !strings.HasPrefix(text, "[Sound:") {
				text = "[Sound: " + text + "]"
			}
		case KindSilence:
			if !strings.HasPrefix(text, "[") {
				text = "[" + text + "]"
			}
		}
		lines = append(lines,
			strconv.Itoa(i+1),
			formatSRTTimestamp(seg.Start)+" --> "+formatSRTTimestamp(seg.End),
			text,
			"",
		)
	}
	return strings.Join(lines, "\n")
}

// renderVTT emits WebVTT with cue identifiers and the richer markup the
// format supports: italics for music, bold for sound effects.
func renderVTT(t Transcript) string {
	lines := []string{"WEBVTT", ""}
	for i, seg := range sortedByStart(t) {
		text := seg.Text
		switch seg.Kind {
		case KindMusic:
			if !strings.HasPrefix(text, "[♪") {
				text = "<i>[♪ " + text + " ♪]</i>"
			}
		case KindSound:
			if !strings.HasPrefix(text, "[Sound:") {
				text = "<b>[Sound: " + text + "]</b>"
			}
		case KindSilence:
			if !strings.HasPrefix(text, "[") {
				text = "[" + text + "]"
			}
		}
		lines = append(lines,
			fmt.Sprintf("cue-%d", i+1),
			formatVTTTimestamp(seg.Start)+" --> "+formatVTTTimestamp(seg.End),
			text,
			"",
		)
	}
	return strings.Join(lines, "\n")
}

func formatSRTTimestamp(seconds float64) string {
	return formatTimestamp(seconds, ",")
}

func formatVTTTimestamp(seconds float64) string {
	return formatTimestamp(seconds, ".")
}

// formatTimestamp renders HH:MM:SS followed by sep and milliseconds.
// Milliseconds are truncated, not rounded: 59.9996 becomes :59,999
// rather than carrying into the next second.
func formatTimestamp(seconds float64, sep string) string {
	hours := int(seconds / 3600)
	rem := math.Mod(seconds, 3600)
	minutes := int(rem / 60)
	secs := math.Mod(rem, 60)
	millis := int(math.Mod(secs, 1) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hours, minutes, int(secs), sep, millis)
}
