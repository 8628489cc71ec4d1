package kernel

// FileTable is the per-process file descriptor collaborator. The kernel
// routes syscalls 4..9 to it with their raw register arguments and closes
// every descriptor through CloseAll on exit; everything else about files
// lives outside this subsystem.
type FileTable interface {
	Create(nameAddr int) int
	Open(nameAddr int) int
	Read(fd, bufAddr, count int) int
	Write(fd, bufAddr, count int) int
	Close(fd int) int
	Unlink(nameAddr int) int
	CloseAll() error
}

// FileTableFactory builds the file table for a newly spawned process.
type FileTableFactory func(owner *Process) FileTable

// NopFileTable rejects every file operation. It is the default when no
// factory is supplied.
type NopFileTable struct{}

func (NopFileTable) Create(int) int { return -1 }
func (NopFileTable) Open(int) int { return -1 }
func (NopFileTable) Read(int, int, int) int { return -1 }
func (NopFileTable) Write(int, int, int) int { return -1 }
func (NopFileTable) Close(int) int { return -1 }
func (NopFileTable) Unlink(int) int { return -1 }
func (NopFileTable) CloseAll() error { return nil }
