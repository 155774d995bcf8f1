package playback

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/acavaille/stanza/internal/fileaccess"
	"github.com/acavaille/stanza/internal/player"
	"github.com/acavaille/stanza/internal/song"
)

// blobReader adapts an in-memory byte slice to io.ReadSeekCloser.
type blobReader struct {
	*bytes.Reader
}

func (blobReader) Close() error { return nil }

func newBlobReader(data []byte) io.ReadSeekCloser {
	return blobReader{bytes.NewReader(data)}
}

// resolveSource turns a song's binding into a readable audio stream.
// File handles are preferred, then in-memory blobs, then URLs.
// Resolution may block on a permission prompt or a network fetch, so
// it runs without the controller lock held.
func (c *Controller) resolveSource(ctx context.Context, s song.Song) (io.ReadSeekCloser, player.Format, error) {
	switch s.Source.Kind {
	case song.SourceFile:
		return c.openHandle(ctx, s)
	case song.SourceBlob:
		format := player.FormatForFilename(s.Filename())
		return newBlobReader(s.Source.Data), format, nil
	case song.SourceURL:
		return c.fetchURL(ctx, s)
	default:
		return nil, player.FormatUnknown, fmt.Errorf("%w: %s has no source binding", ErrSourceUnavailable, s.ID)
	}
}

func (c *Controller) openHandle(ctx context.Context, s song.Song) (io.ReadSeekCloser, player.Format, error) {
	h := s.Source.Handle
	if h == nil {
		return nil, player.FormatUnknown, fmt.Errorf("%w: %s has no bound handle", ErrSourceUnavailable, s.ID)
	}

	perm := h.QueryPermission(ctx)
	if perm == fileaccess.Prompt {
		perm = h.RequestPermission(ctx)
	}
	if perm != fileaccess.Granted {
		return nil, player.FormatUnknown, fmt.Errorf("%w: permission %s for %s", ErrSourceUnavailable, perm, s.ID)
	}

	rc, err := h.Open(ctx)
	if err != nil {
		return nil, player.FormatUnknown, fmt.Errorf("%w: open %s: %v", ErrSourceUnavailable, s.ID, err)
	}
	return rc, player.FormatForFilename(h.Name()), nil
}

// fetchURL downloads the whole resource into memory; the decoders
// need a seekable stream and HTTP bodies are not.
func (c *Controller) fetchURL(ctx context.Context, s song.Song) (io.ReadSeekCloser, player.Format, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Source.URL, nil)
	if err != nil {
		return nil, player.FormatUnknown, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, s.ID, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, player.FormatUnknown, fmt.Errorf("%w: fetch %s: %v", ErrSourceUnavailable, s.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, player.FormatUnknown, fmt.Errorf("%w: fetch %s: status %d", ErrSourceUnavailable, s.ID, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, player.FormatUnknown, fmt.Errorf("%w: fetch %s: %v", ErrSourceUnavailable, s.ID, err)
	}

	format := player.FormatForMIME(resp.Header.Get("Content-Type"))
	if format == player.FormatUnknown {
		format = player.FormatForFilename(s.Filename())
	}
	return newBlobReader(data), format, nil
}
