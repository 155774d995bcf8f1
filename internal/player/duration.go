package player

import (
	"io"
	"time"
)

// ProbeDuration decodes enough of src to measure the track length.
// Closing the decoder may close src as a side effect, so callers
// reopen the source before playing.
func ProbeDuration(src io.ReadSeekCloser, format Format) (time.Duration, error) {
	streamer, f, err := decode(src, format)
	if err != nil {
		return 0, err
	}
	d := f.SampleRate.D(streamer.Len())
	streamer.Close()
	return d, nil
}
