// Package loader defines how executable images enter the system. Image
// parsing is not this subsystem's business: the kernel only needs to know
// which virtual pages an image occupies and how to fill the frames backing
// them, and any format that can answer those questions can be plugged in.
package loader

import "context"

// Section is one loadable region of an image, a contiguous run of virtual
// pages sharing the same protection.
type Section interface {
	// Name identifies the section for diagnostics.
	Name() string
	// FirstVPN is the first virtual page the section occupies.
	FirstVPN() int
	// Length is the section size in pages.
	Length() int
	// ReadOnly reports whether the section's pages must be mapped read-only.
	ReadOnly() bool
	// LoadPage fills frame with the section's page-th page, zero-padding
	// any tail the image does not cover.
	LoadPage(page int, frame []byte) error
}

// Image is an opened executable image.
type Image interface {
	NumSections() int
	Section(i int) Section
	// EntryPoint is the virtual address execution starts at.
	EntryPoint() int
	Close() error
}

// Loader resolves an executable name to an opened image.
type Loader interface {
	Open(ctx context.Context, name string) (Image, error)
}
