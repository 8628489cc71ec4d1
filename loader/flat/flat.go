// Package flat implements the loader contract for raw binary images: the
// whole file is one writable section starting at virtual page 0, with entry
// point 0. Images are fetched through an abstract file storage service, so
// names can resolve against local files, in-memory fixtures (mem://) or any
// other supported scheme.
package flat

import (
	"context"
	"fmt"

	"github.com/minos-os/minos/loader"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
)

// Loader opens flat binary images relative to a base URL. An empty base
// treats names as complete URLs or local paths.
type Loader struct {
	fs       afs.Service
	baseURL  string
	pageSize int
}

// New creates a flat image loader.
func New(baseURL string, pageSize int) *Loader {
	return &Loader{fs: afs.New(), baseURL: baseURL, pageSize: pageSize}
}

// Open fetches the named image.
func (l *Loader) Open(ctx context.Context, name string) (loader.Image, error) {
	URL := name
	if l.baseURL != "" {
		URL = url.Join(l.baseURL, name)
	}
	data, err := l.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("flat: failed to open image %v: %w", URL, err)
	}
	return NewImage(name, data, l.pageSize), nil
}

// Image is an in-memory flat binary.
type Image struct {
	name     string
	data     []byte
	pageSize int
}

// NewImage wraps raw bytes as a flat image. Useful for tests and callers
// that already hold the image contents.
func NewImage(name string, data []byte, pageSize int) *Image {
	return &Image{name: name, data: data, pageSize: pageSize}
}

// NumSections returns 1, or 0 for an empty image.
func (i *Image) NumSections() int {
	if len(i.data) == 0 {
		return 0
	}
	return 1
}

// Section returns the single data section.
func (i *Image) Section(int) loader.Section {
	return &section{image: i}
}

// EntryPoint returns 0; flat images start at their first byte.
func (i *Image) EntryPoint() int {
	return 0
}

// Close releases nothing; the image is held in memory.
func (i *Image) Close() error {
	return nil
}

type section struct {
	image *Image
}

func (s *section) Name() string {
	return "flat"
}

func (s *section) FirstVPN() int {
	return 0
}

func (s *section) Length() int {
	return (len(s.image.data) + s.image.pageSize - 1) / s.image.pageSize
}

func (s *section) ReadOnly() bool {
	return false
}

func (s *section) LoadPage(page int, frame []byte) error {
	if page < 0 || page >= s.Length() {
		return fmt.Errorf("flat: page %d out of range for image %v", page, s.image.name)
	}
	if len(frame) != s.image.pageSize {
		return fmt.Errorf("flat: frame size %d does not match page size %d", len(frame), s.image.pageSize)
	}
	start := page * s.image.pageSize
	end := start + s.image.pageSize
	if end > len(s.image.data) {
		end = len(s.image.data)
	}
	n := copy(frame, s.image.data[start:end])
	for i := n; i < len(frame); i++ {
		frame[i] = 0
	}
	return nil
}
