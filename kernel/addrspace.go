package kernel

import (
	"fmt"
	"sync"

	"github.com/minos-os/minos/machine"
)

// AddressSpace is one process's view of memory: a page table indexed by
// virtual page number plus the list of physical pages leased from the shared
// pool to back it. The table is sized to the machine's physical page count,
// which bounds how many pages any single process can map.
type AddressSpace struct {
	machine *machine.Machine
	mu      sync.Mutex
	entries []machine.TranslationEntry
	pages   []machine.Page
}

// NewAddressSpace creates an empty address space; every entry starts
// unmapped.
func NewAddressSpace(m *machine.Machine) *AddressSpace {
	space := &AddressSpace{
		machine: m,
		entries: make([]machine.TranslationEntry, m.NumPhysPages()),
	}
	for vpn := range space.entries {
		space.entries[vpn].VPN = vpn
	}
	return space
}

// MapPage acquires a physical page from the pool and records a valid
// translation for vpn. Mapping an already-mapped vpn indicates a defect in
// the loader and panics; pool exhaustion returns ErrNoFreePages.
func (s *AddressSpace) MapPage(vpn int, readOnly bool) (machine.TranslationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vpn < 0 || vpn >= len(s.entries) {
		return machine.TranslationEntry{}, fmt.Errorf("virtual page %d out of range 0..%d", vpn, len(s.entries)-1)
	}
	if s.entries[vpn].Valid {
		panic(fmt.Sprintf("kernel: virtual page %d mapped twice", vpn))
	}
	page, ok := s.machine.Pool().Acquire()
	if !ok {
		return machine.TranslationEntry{}, ErrNoFreePages
	}
	s.pages = append(s.pages, page)
	s.entries[vpn] = machine.TranslationEntry{
		VPN:      vpn,
		PPN:      page.PPN,
		Valid:    true,
		ReadOnly: readOnly,
	}
	return s.entries[vpn], nil
}

// Lookup returns the translation for vpn. The second return value is false
// when no valid mapping exists; callers treat that as end of the mapped
// range, not as an error.
func (s *AddressSpace) Lookup(vpn int) (machine.TranslationEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vpn < 0 || vpn >= len(s.entries) || !s.entries[vpn].Valid {
		return machine.TranslationEntry{}, false
	}
	return s.entries[vpn], true
}

// translate resolves vpn for an access, updating the referenced/dirty bits.
// A write translation of a read-only entry is returned unmodified with
// ok=true; the accessor inspects ReadOnly and aborts.
func (s *AddressSpace) translate(vpn int, write bool) (machine.TranslationEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vpn < 0 || vpn >= len(s.entries) || !s.entries[vpn].Valid {
		return machine.TranslationEntry{}, false
	}
	entry := &s.entries[vpn]
	if write && entry.ReadOnly {
		return *entry, true
	}
	entry.Referenced = true
	if write {
		entry.Dirty = true
	}
	return *entry, true
}

// MappedPages returns how many physical pages the space currently holds.
func (s *AddressSpace) MappedPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

// ReleaseAll invalidates every translation and returns all leased pages to
// the pool. Frames are zeroed on the way out so the next owner never sees
// stale contents. Called once, on the process exit path.
func (s *AddressSpace) ReleaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for vpn := range s.entries {
		s.entries[vpn].Valid = false
	}
	for _, page := range s.pages {
		frame := s.machine.Frame(page.PPN)
		for i := range frame {
			frame[i] = 0
		}
		s.machine.Pool().Release(page)
	}
	s.pages = nil
}
