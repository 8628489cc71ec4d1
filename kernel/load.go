package kernel

import (
	"context"
	"fmt"

	"github.com/minos-os/minos/loader"
)

// load opens the named image and builds p's address space for it: the
// image sections (contiguous from virtual page 0), the stack, and a final
// page holding the argument block. On any failure every page already
// acquired is returned to the pool before the error propagates, so a failed
// load never leaks memory.
//
// The argument page layout follows the usual argv convention: argc 4-byte
// pointers first, then the NUL-terminated strings they point at. The whole
// block must fit in one page.
func (k *Kernel) load(ctx context.Context, p *Process, name string, args []string) error {
	image, err := k.loader.Open(ctx, name)
	if err != nil {
		return err
	}
	defer image.Close()

	pageSize := k.machine.PageSize()

	// Sections must tile the address space from page 0 with no holes.
	numPages := 0
	for s := 0; s < image.NumSections(); s++ {
		section := image.Section(s)
		if section.FirstVPN() != numPages {
			return NewFragmentedExecutableError(name)
		}
		numPages += section.Length()
	}

	argv := make([][]byte, len(args))
	argsSize := 0
	for i, arg := range args {
		argv[i] = []byte(arg)
		// 4 bytes for the argv[] pointer, the string, one NUL.
		argsSize += pointerSize + len(argv[i]) + 1
	}
	if argsSize > pageSize {
		return NewArgumentsTooLongError(name, argsSize, pageSize)
	}

	initialPC := image.EntryPoint()
	numPages += k.machine.Config().StackPages
	initialSP := numPages * pageSize
	numPages++ // argument page

	if numPages > k.machine.NumPhysPages() {
		return NewInsufficientMemoryError(name, numPages, k.machine.NumPhysPages())
	}

	if err := k.loadSections(p, image, numPages); err != nil {
		p.Space.ReleaseAll()
		return err
	}

	entryOffset := (numPages - 1) * pageSize
	stringOffset := entryOffset + len(args)*pointerSize
	entry := EntryState{PC: initialPC, SP: initialSP, Argc: len(args), Argv: entryOffset}

	for _, arg := range argv {
		pointer := make([]byte, pointerSize)
		byteOrder.PutUint32(pointer, uint32(stringOffset))
		if n := p.WriteVirtualMemory(entryOffset, pointer); n != pointerSize {
			p.Space.ReleaseAll()
			return fmt.Errorf("argument pointer write moved %d of %d bytes", n, pointerSize)
		}
		entryOffset += pointerSize
		terminated := make([]byte, 0, len(arg)+1)
		terminated = append(append(terminated, arg...), 0)
		if n := p.WriteVirtualMemory(stringOffset, terminated); n != len(terminated) {
			p.Space.ReleaseAll()
			return fmt.Errorf("argument string write moved %d of %d bytes", n, len(terminated))
		}
		stringOffset += len(terminated)
	}

	p.setEntryState(entry)
	return nil
}

// loadSections maps numPages pages into p's address space and fills the
// section pages from the image. Section pages inherit the section's
// protection; stack and argument pages are writable. Section contents are
// written through the physical frame, which is how read-only text still
// gets initialized.
func (k *Kernel) loadSections(p *Process, image loader.Image, numPages int) error {
	mapped := 0
	for s := 0; s < image.NumSections(); s++ {
		section := image.Section(s)
		for i := 0; i < section.Length(); i++ {
			vpn := section.FirstVPN() + i
			entry, err := p.Space.MapPage(vpn, section.ReadOnly())
			if err != nil {
				return err
			}
			mapped++
			if err := section.LoadPage(i, k.machine.Frame(entry.PPN)); err != nil {
				return fmt.Errorf("failed to load page %d of section %v: %w", i, section.Name(), err)
			}
		}
	}
	for vpn := mapped; vpn < numPages; vpn++ {
		if _, err := p.Space.MapPage(vpn, false); err != nil {
			return err
		}
	}
	return nil
}
