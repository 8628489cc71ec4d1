package kernel

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"

	"github.com/minos-os/minos/loader"
	"github.com/minos-os/minos/machine"
	"github.com/minos-os/minos/tracing"
)

// Syscall numbers, as the simulated CPU presents them.
const (
	SyscallHalt = iota
	SyscallExit
	SyscallExec
	SyscallJoin
	SyscallCreate
	SyscallOpen
	SyscallRead
	SyscallWrite
	SyscallClose
	SyscallUnlink
)

// Syscall result sentinels. Failures are values, never panics or errors:
// nothing except the process's own exit ever terminates it from here.
const (
	// ExecFailure is returned by exec on any validation or load failure.
	ExecFailure = -1
	// JoinNoSuchChild is returned by join when the pid is not an unjoined
	// child of the caller.
	JoinNoSuchChild = -1
	// JoinStatusLost is returned by join when the child was reaped but the
	// status could not be fully written to the caller's memory.
	JoinStatusLost = 0
	// JoinOK is returned by join on success.
	JoinOK = 1
)

// pointerSize is the width of user-space pointers and of the exit status
// written by join.
const pointerSize = 4

// byteOrder is the simulated machine's native byte order.
var byteOrder = binary.LittleEndian

// Kernel is the process lifecycle controller: it spawns, runs, joins and
// reaps processes, tying together the registry, the page pool (through each
// process's address space) and the loader.
type Kernel struct {
	machine  *machine.Machine
	registry *Registry
	loader   loader.Loader
	resolve  ProgramResolver
	files    FileTableFactory
	logger   *slog.Logger
}

// New creates a kernel for the supplied machine. resolve and files may be
// nil: programs then default to exiting immediately and file syscalls are
// rejected.
func New(m *machine.Machine, ld loader.Loader, resolve ProgramResolver, files FileTableFactory, logger *slog.Logger) *Kernel {
	if resolve == nil {
		resolve = func(string) Program { return nil }
	}
	if files == nil {
		files = func(*Process) FileTable { return NopFileTable{} }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Kernel{
		machine:  m,
		registry: NewRegistry(),
		loader:   ld,
		resolve:  resolve,
		files:    files,
		logger:   logger,
	}
}

// Machine returns the machine this kernel drives.
func (k *Kernel) Machine() *machine.Machine {
	return k.machine
}

// Registry returns the process registry.
func (k *Kernel) Registry() *Registry {
	return k.registry
}

// Launch validates the executable name, spawns a process (as a child of
// parent when non-nil), loads the image into its address space and forks
// its thread. The root process is launched with a nil parent and literal
// arguments; exec goes through the same path after reading its arguments
// from the caller's memory.
func (k *Kernel) Launch(ctx context.Context, parent *Process, name string, args []string) (*Process, error) {
	suffix := k.machine.Config().ExecutableSuffix
	if !strings.HasSuffix(name, suffix) {
		return nil, fmt.Errorf("executable name %v does not end with %v", name, suffix)
	}
	process := k.registry.Spawn(k.machine, parent, name)
	process.setLogger(k.logger)
	process.setFiles(k.files(process))
	if err := k.load(ctx, process, name, args); err != nil {
		k.registry.Discard(process)
		k.logger.Warn("load failed", "pid", process.ID, "name", name, "error", err)
		return nil, err
	}
	thread := newThread(k, process)
	process.setThread(thread)
	process.setRunning()
	k.logger.Info("process started", "pid", process.ID, "name", name, "args", len(args), "pages", process.Space.MappedPages())
	thread.Fork(ctx, k.resolve(name))
	return process, nil
}

// Exec implements the exec syscall for caller: argc must match the argv
// address array, each argument string is read from the caller's memory
// with a bounded length, and the new process is registered as the caller's
// child before its image loads. Returns the child pid, or ExecFailure with
// no live child left behind.
func (k *Kernel) Exec(ctx context.Context, caller *Process, name string, argc int, argvAddrs []int) int {
	if !strings.HasSuffix(name, k.machine.Config().ExecutableSuffix) {
		return ExecFailure
	}
	if argc < 0 || argc != len(argvAddrs) {
		return ExecFailure
	}
	args := make([]string, argc)
	for i, addr := range argvAddrs {
		arg, ok := caller.ReadVirtualMemoryString(addr, k.machine.Config().MaxArgLength)
		if !ok {
			return ExecFailure
		}
		args[i] = arg
	}
	child, err := k.Launch(ctx, caller, name, args)
	if err != nil {
		return ExecFailure
	}
	return child.ID
}

// Exit implements the exit syscall. It closes the caller's descriptors,
// orphans its children, returns every page to the pool, records the exit
// status and terminates the calling goroutine; it never returns. The root
// process's exit halts the machine.
//
// Must be called on the process's own thread.
func (k *Kernel) Exit(caller *Process, status int) {
	if files := caller.Files(); files != nil {
		if err := files.CloseAll(); err != nil {
			k.logger.Warn("failed to close descriptors on exit", "pid", caller.ID, "error", err)
		}
	}
	orphans := k.registry.OrphanChildren(caller)
	caller.Space.ReleaseAll()
	caller.setExited(status)
	k.registry.Remove(caller.ID)
	k.logger.Info("process exited", "pid", caller.ID, "status", status, "orphans", orphans)
	if caller.ID == RootProcessID {
		k.machine.Halt()
	}
	runtime.Goexit()
}

// Join implements the join syscall: it blocks the caller until the child
// identified by pid terminates, consumes the child (a second join on the
// same pid finds no such child) and writes the 4-byte exit status to
// statusAddr in the caller's memory.
//
// The wait has no timeout and no cancellation; a child that never exits
// blocks the caller forever.
func (k *Kernel) Join(caller *Process, pid, statusAddr int) int {
	child := k.registry.Child(caller, pid)
	if child == nil {
		return JoinNoSuchChild
	}
	child.Thread().Join()

	status := child.ExitStatus()
	k.registry.ReleaseChild(caller, pid)

	buf := make([]byte, pointerSize)
	byteOrder.PutUint32(buf, uint32(status))
	if n := caller.WriteVirtualMemory(statusAddr, buf); n != pointerSize {
		k.logger.Warn("join status write truncated", "pid", caller.ID, "child", pid, "written", n)
		return JoinStatusLost
	}
	return JoinOK
}

// Halt implements the halt syscall. Only the root process may stop the
// machine; for the root caller it never returns. Anyone else's attempt is
// ignored with a failure code.
func (k *Kernel) Halt(caller *Process) int {
	if caller.ID != RootProcessID {
		k.logger.Warn("halt ignored", "pid", caller.ID)
		return -1
	}
	k.logger.Info("machine halting", "pid", caller.ID)
	k.machine.Halt()
	runtime.Goexit()
	return 0
}

// Syscall dispatches a numbered syscall with its raw register arguments,
// decoding pointer arguments from the caller's memory the way the trap
// handler would. An unknown number is a defect in the simulated CPU and
// panics.
func (t *Thread) Syscall(ctx context.Context, number, a0, a1, a2, a3 int) int {
	ctx, span := tracing.StartSpan(ctx, "syscall."+syscallName(number), "INTERNAL")
	span.WithAttributes(map[string]string{
		"pid":     strconv.Itoa(t.proc.ID),
		"process": t.proc.Name,
	})
	defer tracing.EndSpan(span, nil)

	kernel := t.kernel
	switch number {
	case SyscallHalt:
		return kernel.Halt(t.proc)
	case SyscallExit:
		kernel.Exit(t.proc, a0)
		return 0 // unreachable
	case SyscallExec:
		name, ok := t.proc.ReadVirtualMemoryString(a0, kernel.machine.Config().MaxArgLength)
		if !ok {
			return ExecFailure
		}
		// The argv pointer table must fit in the argument page, which bounds
		// argc long before allocation; a register value past the bound is a
		// plain validation failure.
		if a1 < 0 || a1 > kernel.machine.PageSize()/pointerSize {
			return ExecFailure
		}
		addrs, ok := t.proc.readPointerArray(a2, a1)
		if !ok {
			return ExecFailure
		}
		return kernel.Exec(ctx, t.proc, name, a1, addrs)
	case SyscallJoin:
		return kernel.Join(t.proc, a0, a1)
	case SyscallCreate:
		return t.proc.Files().Create(a0)
	case SyscallOpen:
		return t.proc.Files().Open(a0)
	case SyscallRead:
		return t.proc.Files().Read(a0, a1, a2)
	case SyscallWrite:
		return t.proc.Files().Write(a0, a1, a2)
	case SyscallClose:
		return t.proc.Files().Close(a0)
	case SyscallUnlink:
		return t.proc.Files().Unlink(a0)
	default:
		panic(fmt.Sprintf("kernel: unknown syscall %d", number))
	}
}

// Exit is a convenience wrapper for programs; see Kernel.Exit.
func (t *Thread) Exit(status int) {
	t.kernel.Exit(t.proc, status)
}

// Exec is a convenience wrapper for programs; see Kernel.Exec.
func (t *Thread) Exec(ctx context.Context, name string, argvAddrs ...int) int {
	return t.kernel.Exec(ctx, t.proc, name, len(argvAddrs), argvAddrs)
}

// JoinChild is a convenience wrapper for programs; see Kernel.Join.
func (t *Thread) JoinChild(pid, statusAddr int) int {
	return t.kernel.Join(t.proc, pid, statusAddr)
}

// Halt is a convenience wrapper for programs; see Kernel.Halt.
func (t *Thread) Halt() int {
	return t.kernel.Halt(t.proc)
}

// readPointerArray reads count 4-byte pointers starting at addr.
func (p *Process) readPointerArray(addr, count int) ([]int, bool) {
	buf := make([]byte, count*pointerSize)
	if n := p.ReadVirtualMemory(addr, buf); n != len(buf) {
		return nil, false
	}
	out := make([]int, count)
	for i := range out {
		out[i] = int(byteOrder.Uint32(buf[i*pointerSize:]))
	}
	return out, true
}

func syscallName(number int) string {
	switch number {
	case SyscallHalt:
		return "halt"
	case SyscallExit:
		return "exit"
	case SyscallExec:
		return "exec"
	case SyscallJoin:
		return "join"
	case SyscallCreate:
		return "create"
	case SyscallOpen:
		return "open"
	case SyscallRead:
		return "read"
	case SyscallWrite:
		return "write"
	case SyscallClose:
		return "close"
	case SyscallUnlink:
		return "unlink"
	default:
		return strconv.Itoa(number)
	}
}
