package machine

import (
	"fmt"
	"sync"
)

// PagePool tracks ownership of every physical page in the machine. A page is
// either on the free list or leased to exactly one address space; the pool is
// shared by all processes and every mutation happens under a single mutex.
//
// Acquire never blocks. Exhaustion is reported to the caller, which typically
// fails the enclosing load/exec rather than waiting.
type PagePool struct {
	mu    sync.Mutex
	free  []Page
	used  map[int]bool
	total int
}

// NewPagePool creates a pool owning pages 0..numPages-1, all free.
func NewPagePool(numPages int) *PagePool {
	pool := &PagePool{
		free:  make([]Page, 0, numPages),
		used:  make(map[int]bool, numPages),
		total: numPages,
	}
	for ppn := 0; ppn < numPages; ppn++ {
		pool.free = append(pool.free, Page{PPN: ppn})
	}
	return pool
}

// Acquire removes a page from the free list. The second return value is
// false when no page is available.
func (p *PagePool) Acquire() (Page, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free) == 0 {
		return Page{}, false
	}
	page := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.used[page.PPN] = true
	return page, true
}

// Release returns a leased page to the free list. The caller must have
// invalidated every translation entry referencing the page first; releasing
// a page the pool does not consider leased indicates a defect in the caller
// and panics.
func (p *PagePool) Release(page Page) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if page.PPN < 0 || page.PPN >= p.total || !p.used[page.PPN] {
		panic(fmt.Sprintf("machine: release of page %d not leased from pool", page.PPN))
	}
	delete(p.used, page.PPN)
	p.free = append(p.free, page)
}

// FreeCount returns the number of pages currently on the free list.
func (p *PagePool) FreeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// UsedCount returns the number of pages currently leased out.
func (p *PagePool) UsedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.used)
}

// Total returns the number of physical pages the pool was created with.
func (p *PagePool) Total() int {
	return p.total
}
