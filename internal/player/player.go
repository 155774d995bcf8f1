package player

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// Speaker state is process-wide: beep's speaker can only be
// initialized once, so later tracks are resampled to its rate.
var (
	speakerInitialized bool
	speakerSampleRate  beep.SampleRate
)

// Player decodes and plays a single audio stream at a time through
// the system speaker. It does not know about songs or queues; the
// playback controller feeds it sources and reacts to FinishedChan.
type Player struct {
	mu sync.Mutex

	state    State
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	streamer beep.StreamSeekCloser
	format   beep.Format
	src      io.Closer
	duration time.Duration

	volumeLevel float64
	muted       bool

	finishedCh chan struct{}
}

// New creates a stopped player at full volume.
func New() *Player {
	return &Player{
		state:       Stopped,
		volumeLevel: 1,
		finishedCh:  make(chan struct{}, 1),
	}
}

func decode(src io.ReadSeekCloser, format Format) (beep.StreamSeekCloser, beep.Format, error) {
	switch format {
	case FormatMP3:
		return mp3.Decode(src)
	case FormatFLAC:
		return flac.Decode(src)
	case FormatWAV:
		return wav.Decode(src)
	case FormatVorbis:
		return vorbis.Decode(src)
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported format: %q", format)
	}
}

// Play stops any current track and starts playing src. The player
// takes ownership of src and closes it when the track stops.
func (p *Player) Play(src io.ReadSeekCloser, format Format) error {
	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Drain any stale finish signal from the previous track.
	select {
	case <-p.finishedCh:
	default:
	}

	streamer, f, err := decode(src, format)
	if err != nil {
		src.Close()
		return err
	}

	if !speakerInitialized {
		speakerSampleRate = f.SampleRate
		if err := speaker.Init(speakerSampleRate, speakerSampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			src.Close()
			return err
		}
		speakerInitialized = true
	}

	var playStreamer beep.Streamer = streamer
	if f.SampleRate != speakerSampleRate {
		playStreamer = beep.Resample(4, f.SampleRate, speakerSampleRate, streamer)
	}

	p.src = src
	p.streamer = streamer
	p.format = f
	p.duration = f.SampleRate.D(streamer.Len())
	p.ctrl = &beep.Ctrl{Streamer: playStreamer}
	p.volume = &effects.Volume{
		Streamer: p.ctrl,
		Base:     2,
		Volume:   levelToVolume(p.volumeLevel),
		Silent:   p.muted,
	}
	p.state = Playing

	speaker.Play(beep.Seq(p.volume, beep.Callback(func() {
		select {
		case p.finishedCh <- struct{}{}:
		default:
		}
	})))

	return nil
}

// Stop stops playback and releases the source.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Stopped {
		return
	}

	speaker.Clear()

	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	if p.src != nil {
		p.src.Close()
		p.src = nil
	}
	p.ctrl = nil
	p.volume = nil
	p.duration = 0
	p.state = Stopped
}

// Pause pauses playback.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Playing || p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	p.state = Paused
}

// Resume resumes paused playback.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Paused || p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	p.state = Playing
}

// Toggle switches between playing and paused.
func (p *Player) Toggle() {
	switch p.State() {
	case Playing:
		p.Pause()
	case Paused:
		p.Resume()
	case Stopped:
		// Nothing to toggle when stopped
	}
}

// State returns the current playback state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Position returns the playback position in the current track.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := p.format.SampleRate.D(p.streamer.Position())
	speaker.Unlock()
	return pos
}

// Duration returns the length of the current track, 0 when stopped.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// Seek moves the position by delta, clamped to the track bounds.
func (p *Player) Seek(delta time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return
	}
	speaker.Lock()
	pos := p.format.SampleRate.D(p.streamer.Position())
	p.seekLocked(pos + delta)
	speaker.Unlock()
}

// SeekTo moves the position to pos, clamped to the track bounds.
func (p *Player) SeekTo(pos time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return
	}
	speaker.Lock()
	p.seekLocked(pos)
	speaker.Unlock()
}

// seekLocked requires both p.mu and the speaker lock held.
func (p *Player) seekLocked(pos time.Duration) {
	if pos < 0 {
		pos = 0
	}
	if pos > p.duration {
		pos = p.duration
	}
	sample := p.format.SampleRate.N(pos)
	if sample >= p.streamer.Len() {
		sample = p.streamer.Len() - 1
	}
	if sample < 0 {
		sample = 0
	}
	_ = p.streamer.Seek(sample)
}

// FinishedChan signals once per track that reached its natural end.
// Stop() does not signal.
func (p *Player) FinishedChan() <-chan struct{} {
	return p.finishedCh
}
