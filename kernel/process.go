package kernel

import (
	"log/slog"
	"sync"
	"time"

	"github.com/minos-os/minos/internal/clock"
	"github.com/minos-os/minos/machine"
)

// Process state constants
const (
	StateReady   = "ready"
	StateRunning = "running"
	StateExited  = "exited"
)

// NoProcessID marks the absence of a process reference, e.g. the parent of
// an orphaned process.
const NoProcessID = -1

// RootProcessID is the id of the first process; its exit (or halt call)
// stops the whole machine.
const RootProcessID = 0

// EntryState captures what a CPU collaborator needs to start running a
// loaded program: entry point, initial stack pointer and the argument block
// location in the process's virtual memory.
type EntryState struct {
	PC   int `json:"pc"`
	SP   int `json:"sp"`
	Argc int `json:"argc"`
	Argv int `json:"argv"`
}

// Process represents one user process: its identity, lifecycle state,
// address space and parent/child bookkeeping.
//
// The parentID field and the children map are guarded by the Registry's
// mutex, not by the process's own: parent and child mutate those edges from
// different threads (exec inserts, exit/join clear) and the registry's
// critical section is what makes those steps indivisible. The process mutex
// covers only the local lifecycle fields.
type Process struct {
	ID        int
	Name      string
	CreatedAt time.Time

	Space *AddressSpace

	mu         sync.RWMutex
	logger     *slog.Logger
	state      string
	exitStatus int
	finishedAt *time.Time
	entry      EntryState
	thread     *Thread
	files      FileTable

	// guarded by Registry.mu
	parentID int
	children map[int]*Process
}

func newProcess(id int, name string, m *machine.Machine) *Process {
	return &Process{
		ID:        id,
		Name:      name,
		CreatedAt: clock.Now(),
		Space:     NewAddressSpace(m),
		logger:    slog.Default(),
		state:     StateReady,
		parentID:  NoProcessID,
		children:  make(map[int]*Process),
	}
}

// State returns the process lifecycle state.
func (p *Process) State() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Process) setRunning() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateRunning
}

func (p *Process) setExited(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateExited
	p.exitStatus = status
	now := clock.Now()
	p.finishedAt = &now
}

// ExitStatus returns the status passed to exit. Meaningful only once the
// process has exited.
func (p *Process) ExitStatus() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitStatus
}

// FinishedAt returns when the process exited, or nil while it is live.
func (p *Process) FinishedAt() *time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.finishedAt
}

// EntryState returns the register bootstrap values recorded by the loader.
func (p *Process) EntryState() EntryState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.entry
}

func (p *Process) setEntryState(entry EntryState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entry = entry
}

// Thread returns the execution thread forked for this process, nil before
// the process has been started.
func (p *Process) Thread() *Thread {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.thread
}

func (p *Process) setThread(t *Thread) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.thread = t
}

// Files returns the process's file table.
func (p *Process) Files() FileTable {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.files
}

// log returns the logger the process reports faults through.
func (p *Process) log() *slog.Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.logger
}

func (p *Process) setLogger(logger *slog.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = logger
}

func (p *Process) setFiles(files FileTable) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files = files
}
