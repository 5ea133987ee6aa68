package caption

import (
	"fmt"
	"math"

	"github.com/caption-forge/backend/internal/audio"
)

// DefaultChunkSeconds is the window size used when none is configured.
// 30s keeps each inference payload small while giving the model enough
// context for sentence-level timestamps.
const DefaultChunkSeconds = 30.0

// Window is one fixed-duration slice of the track, the unit submitted
// to the inference service. Windows are contiguous and non-overlapping;
// the last one may be shorter.
type Window struct {
	Index int
	Start float64
	End   float64
	Clip  *audio.Track
}

// Duration returns the window length in seconds.
func (w Window) Duration() float64 {
	return w.End - w.Start
}

// SplitTrack partitions the track into chunkSec windows whose union is
// exactly [0, duration). An empty track yields zero windows.
func SplitTrack(t *audio.Track, chunkSec float64) ([]Window, error) {
	if chunkSec <= 0 {
		return nil, fmt.Errorf("invalid chunk duration: %v", chunkSec)
	}

	duration := t.Duration()
	var windows []Window
	for i := 0; ; i++ {
		start := float64(i) * chunkSec
		if start >= duration {
			break
		}
		end := math.Min(start+chunkSec, duration)
		windows = append(windows, Window{
			Index: i,
			Start: start,
			End:   end,
			Clip:  t.Slice(start, end),
		})
	}
	return windows, nil
}
