//go:build linux

package mediasession

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/acavaille/stanza/internal/playback"
	"github.com/acavaille/stanza/internal/queue"
)

// Adapter connects the playback controller to MPRIS over D-Bus.
type Adapter struct {
	controls Controls
	server   *server.Server
	sub      *playback.Subscription
	done     chan struct{}
	artDir   string

	artMu    sync.Mutex
	artPaths map[string]map[uint]string // song id -> rendered variants
}

// New creates and starts a new MPRIS adapter.
func New(controls Controls) (*Adapter, error) {
	artDir, err := xdg.CacheFile("stanza/artwork")
	if err != nil {
		artDir = os.TempDir()
	}
	a := &Adapter{
		controls: controls,
		done:     make(chan struct{}),
		artDir:   artDir,
		artPaths: make(map[string]map[uint]string),
	}

	rootAdapter := &rootAdapter{}
	playerAdapter := &playerAdapter{adapter: a}

	a.server = server.NewServer("stanza", rootAdapter, playerAdapter)
	a.sub = controls.Subscribe()

	go func() {
		_ = a.server.Listen()
	}()
	go a.eventLoop()

	return a, nil
}

// eventLoop renders artwork as tracks start so Metadata property
// reads never pay the resize cost, and frees variants the queue has
// moved past.
func (a *Adapter) eventLoop() {
	for {
		select {
		case <-a.done:
			return
		case <-a.sub.Done:
			return
		case e := <-a.sub.Events:
			if e.Track != nil && e.Track.Current != nil {
				a.artworkFor(e.Track.Current.ID, e.Track.Current.Cover)
			}
			if e.Queue != nil {
				a.dropStaleArtwork(e.Queue.IDs)
			}
		}
	}
}

// dropStaleArtwork evicts cached variants for songs no longer in the
// queue.
func (a *Adapter) dropStaleArtwork(queueIDs []string) {
	keep := make(map[string]struct{}, len(queueIDs))
	for _, id := range queueIDs {
		keep[id] = struct{}{}
	}
	a.artMu.Lock()
	defer a.artMu.Unlock()
	for id := range a.artPaths {
		if _, ok := keep[id]; !ok {
			delete(a.artPaths, id)
		}
	}
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	close(a.done)
	return a.server.Stop()
}

// artworkFor lazily renders and caches the artwork variants for a song.
func (a *Adapter) artworkFor(songID string, cover []byte) map[uint]string {
	a.artMu.Lock()
	defer a.artMu.Unlock()
	if paths, ok := a.artPaths[songID]; ok {
		return paths
	}
	paths, err := WriteArtwork(a.artDir, songID, cover)
	if err != nil {
		paths = nil
	}
	a.artPaths[songID] = paths
	return paths
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil // Track list interface not implemented
}

func (r *rootAdapter) Identity() (string, error) {
	return "Stanza", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/ogg", "audio/wav"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and
// optional interfaces.
type playerAdapter struct {
	adapter *Adapter
}

func (p *playerAdapter) controls() Controls {
	return p.adapter.controls
}

func (p *playerAdapter) Next() error {
	return p.controls().Next(context.Background())
}

func (p *playerAdapter) Previous() error {
	return p.controls().Previous(context.Background())
}

func (p *playerAdapter) Pause() error {
	p.controls().Pause()
	return nil
}

func (p *playerAdapter) PlayPause() error {
	return p.controls().Toggle(context.Background())
}

func (p *playerAdapter) Stop() error {
	p.controls().Stop()
	return nil
}

func (p *playerAdapter) Play() error {
	return p.controls().Toggle(context.Background())
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	p.controls().Seek(time.Duration(offset) * time.Microsecond)
	return nil
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	p.controls().SeekTo(time.Duration(position) * time.Microsecond)
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.controls().State() {
	case playback.StatePlaying:
		return types.PlaybackStatusPlaying, nil
	case playback.StatePaused:
		return types.PlaybackStatusPaused, nil
	case playback.StateStopped:
		return types.PlaybackStatusStopped, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	s, ok := p.controls().Current()
	if !ok {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(s.ID)),
		Length:  types.Microseconds(s.Duration.Microseconds()),
		Title:   s.Name,
		Artist:  []string{s.DisplayArtist()},
		Album:   s.DisplayAlbum(),
	}

	if paths := p.adapter.artworkFor(s.ID, s.Cover); paths != nil {
		meta.ArtUrl = ArtworkURL(paths)
	}

	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return 1.0, nil // Volume control not exposed via the session surface
}

func (p *playerAdapter) SetVolume(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Position() (int64, error) {
	return p.controls().Position().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	c := p.controls()
	return c.CurrentIndex() < len(c.QueueIDs())-1 || c.RepeatMode() == queue.RepeatAll, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.controls().CurrentIndex() > 0, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return len(p.controls().QueueIDs()) > 0, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	switch p.controls().RepeatMode() {
	case queue.RepeatOne:
		return types.LoopStatusTrack, nil
	case queue.RepeatAll:
		return types.LoopStatusPlaylist, nil
	case queue.RepeatOff:
		return types.LoopStatusNone, nil
	}
	return types.LoopStatusNone, nil
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	switch status {
	case types.LoopStatusNone:
		p.controls().SetRepeatMode(queue.RepeatOff)
	case types.LoopStatusTrack:
		p.controls().SetRepeatMode(queue.RepeatOne)
	case types.LoopStatusPlaylist:
		p.controls().SetRepeatMode(queue.RepeatAll)
	}
	return nil
}

// Shuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) Shuffle() (bool, error) {
	return p.controls().Shuffle(), nil
}

// SetShuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) SetShuffle(shuffle bool) error {
	p.controls().SetShuffle(shuffle)
	return nil
}

func formatTrackID(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}

// Verify Adapter implements Surface at compile time.
var _ Surface = (*Adapter)(nil)
