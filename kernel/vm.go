package kernel

import "fmt"

// Virtual memory access. Transfers move bytes between a caller-supplied
// buffer and the process's address space one byte at a time, translating
// each virtual address through the page table. Hitting an unmapped page
// ends the transfer: the return value is the number of bytes actually
// moved, and a short count is how callers detect the partial transfer.
// Bytes already moved stay moved; there is no rollback.
//
// Offset/length describing the caller's own buffer are a caller contract:
// they must be non-negative and fit in the buffer, and a violation panics
// rather than being reported as a short transfer.

// ReadVirtualMemory fills data from the process's virtual memory starting
// at vaddr and returns the number of bytes transferred.
func (p *Process) ReadVirtualMemory(vaddr int, data []byte) int {
	return p.ReadVirtualMemoryAt(vaddr, data, 0, len(data))
}

// ReadVirtualMemoryAt transfers length bytes from virtual memory at vaddr
// into data[offset:]. Returns the number of bytes transferred, which is
// short when an unmapped page is reached.
func (p *Process) ReadVirtualMemoryAt(vaddr int, data []byte, offset, length int) int {
	checkBufferRange(data, offset, length)
	if vaddr < 0 {
		return 0
	}
	memory := p.Space.machine.Memory()
	pageSize := p.Space.machine.PageSize()
	n := 0
	for n < length {
		v := vaddr + n
		entry, ok := p.Space.translate(v/pageSize, false)
		if !ok {
			break
		}
		data[offset+n] = memory[entry.PPN*pageSize+v%pageSize]
		n++
	}
	return n
}

// WriteVirtualMemory copies data into the process's virtual memory starting
// at vaddr and returns the number of bytes transferred.
func (p *Process) WriteVirtualMemory(vaddr int, data []byte) int {
	return p.WriteVirtualMemoryAt(vaddr, data, 0, len(data))
}

// WriteVirtualMemoryAt transfers length bytes from data[offset:] into
// virtual memory at vaddr. Returns the number of bytes transferred.
//
// A translation marked read-only aborts the call: syscall validation is
// supposed to make writes to read-only regions unreachable, so the policy
// here is to log the violation and return the short count instead of
// crashing the machine. Callers detect the short count exactly as they
// would an unmapped page.
func (p *Process) WriteVirtualMemoryAt(vaddr int, data []byte, offset, length int) int {
	checkBufferRange(data, offset, length)
	if vaddr < 0 {
		return 0
	}
	memory := p.Space.machine.Memory()
	pageSize := p.Space.machine.PageSize()
	n := 0
	for n < length {
		v := vaddr + n
		entry, ok := p.Space.translate(v/pageSize, true)
		if !ok {
			break
		}
		if entry.ReadOnly {
			p.log().Error("write to read-only page", "pid", p.ID, "vaddr", v, "vpn", entry.VPN)
			break
		}
		memory[entry.PPN*pageSize+v%pageSize] = data[offset+n]
		n++
	}
	return n
}

// ReadVirtualMemoryString reads a NUL-terminated string of at most
// maxLength bytes starting at vaddr. The second return value is false when
// no terminator was found within the bound, which includes running off the
// mapped range.
func (p *Process) ReadVirtualMemoryString(vaddr, maxLength int) (string, bool) {
	if maxLength < 0 {
		panic(fmt.Sprintf("kernel: negative string bound %d", maxLength))
	}
	buf := make([]byte, maxLength+1)
	n := p.ReadVirtualMemory(vaddr, buf)
	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return string(buf[:i]), true
		}
	}
	return "", false
}

func checkBufferRange(data []byte, offset, length int) {
	if offset < 0 || length < 0 || offset+length > len(data) {
		panic(fmt.Sprintf("kernel: buffer range [%d:%d) outside buffer of %d bytes", offset, offset+length, len(data)))
	}
}
