package kernel

import (
	"context"

	"github.com/minos-os/minos/internal/idgen"
)

// Program is the runnable behaviour bound to an executable image: a
// function executed on the process's own thread that interacts with the
// system only through syscalls on the supplied thread. Returning without
// calling Exit is an implicit exit(0).
type Program func(ctx context.Context, t *Thread)

// ProgramResolver maps an executable name to its Program. Returning nil
// binds the default program, which exits immediately with status 0.
type ProgramResolver func(name string) Program

// Thread is a process's single execution context, one goroutine. Its done
// channel is closed when the goroutine finishes, which is the completion
// signal join blocks on. There is deliberately no timeout or cancellation
// on that wait.
type Thread struct {
	id     string
	kernel *Kernel
	proc   *Process
	done   chan struct{}
}

func newThread(k *Kernel, p *Process) *Thread {
	return &Thread{
		id:     idgen.New(),
		kernel: k,
		proc:   p,
		done:   make(chan struct{}),
	}
}

// ID returns the thread's opaque identifier.
func (t *Thread) ID() string {
	return t.id
}

// Process returns the process this thread executes.
func (t *Thread) Process() *Process {
	return t.proc
}

// Done returns a channel closed once the thread has terminated.
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

// Fork starts the thread's goroutine running program.
func (t *Thread) Fork(ctx context.Context, program Program) {
	go t.run(ctx, program)
}

func (t *Thread) run(ctx context.Context, program Program) {
	defer close(t.done)
	if program != nil {
		program(ctx, t)
	}
	// Exit never returns, so reaching this point means the program fell off
	// the end without the syscall.
	t.kernel.Exit(t.proc, 0)
}

// Join blocks the calling thread until this thread has terminated. Returns
// immediately if it already has.
func (t *Thread) Join() {
	<-t.done
}
