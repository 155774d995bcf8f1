package mediasession

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	// Cover bytes may be JPEG or PNG.
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

// ArtworkSizes are the square variants rendered for host surfaces,
// smallest first.
var ArtworkSizes = []uint{96, 256, 512}

// WriteArtwork renders resized square variants of cover into dir and
// returns their paths keyed by size. Files are named from a hash of
// the song id, so rewriting the same cover is idempotent.
func WriteArtwork(dir, songID string, cover []byte) (map[uint]string, error) {
	if len(cover) == 0 {
		return nil, nil
	}
	img, _, err := image.Decode(bytes.NewReader(cover))
	if err != nil {
		return nil, fmt.Errorf("decode cover for %s: %w", songID, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	h := fnv.New64a()
	h.Write([]byte(songID))
	stem := fmt.Sprintf("%x", h.Sum64())

	paths := make(map[uint]string, len(ArtworkSizes))
	for _, size := range ArtworkSizes {
		scaled := resize.Thumbnail(size, size, img, resize.Lanczos3)
		path := filepath.Join(dir, fmt.Sprintf("%s-%d.jpg", stem, size))
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		if err := jpeg.Encode(f, scaled, &jpeg.Options{Quality: 85}); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
		paths[size] = path
	}
	return paths, nil
}

// ArtworkURL returns the file URL of the largest rendered variant, or
// "" when no artwork exists.
func ArtworkURL(paths map[uint]string) string {
	var best uint
	for size := range paths {
		if size > best {
			best = size
		}
	}
	if best == 0 {
		return ""
	}
	return "file://" + paths[best]
}
