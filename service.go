package minos

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/minos-os/minos/kernel"
	"github.com/minos-os/minos/loader"
	"github.com/minos-os/minos/loader/flat"
	"github.com/minos-os/minos/machine"
)

// Service is the simulator façade: one machine, one kernel, and the table
// of registered programs that give loaded images their runnable behaviour.
type Service struct {
	config  machine.Config
	machine *machine.Machine
	kernel  *kernel.Kernel
	loader  loader.Loader
	files   kernel.FileTableFactory
	logger  *slog.Logger

	mu       sync.RWMutex
	programs map[string]kernel.Program
	booting  bool
	root     *kernel.Process
}

// New creates a simulator. Without options it runs the default machine
// geometry, a flat image loader resolving names as URLs, and no registered
// programs (every image exits immediately).
func New(options ...Option) (*Service, error) {
	s := &Service{
		config:   machine.DefaultConfig(),
		programs: make(map[string]kernel.Program),
	}
	for _, option := range options {
		option(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.loader == nil {
		s.loader = flat.New("", s.config.PageSize)
	}
	s.machine = machine.New(s.config)
	s.kernel = kernel.New(s.machine, s.loader, s.resolveProgram, s.files, s.logger)
	return s, nil
}

// Machine returns the simulated machine.
func (s *Service) Machine() *machine.Machine {
	return s.machine
}

// Kernel returns the lifecycle controller.
func (s *Service) Kernel() *kernel.Kernel {
	return s.kernel
}

// RegisterProgram binds a program to an executable name. Registration after
// Boot affects only images exec'd later.
func (s *Service) RegisterProgram(name string, program kernel.Program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programs[name] = program
}

func (s *Service) resolveProgram(name string) kernel.Program {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.programs[name]
}

// Boot launches the root process (pid 0) from the named image. It may be
// called once; the machine stops when the root process exits or halts.
func (s *Service) Boot(ctx context.Context, name string, args ...string) (*kernel.Process, error) {
	s.mu.Lock()
	if s.booting || s.root != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("minos: machine already booted")
	}
	// Reserve the root slot for the duration of the launch so a concurrent
	// Boot cannot start a second root process. A failed launch gives the
	// slot back.
	s.booting = true
	s.mu.Unlock()

	process, err := s.kernel.Launch(ctx, nil, name, args)

	s.mu.Lock()
	s.booting = false
	if err == nil {
		s.root = process
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return process, nil
}

// Wait blocks until the machine halts or the context is cancelled.
func (s *Service) Wait(ctx context.Context) error {
	select {
	case <-s.machine.Halted():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops the machine regardless of process state.
func (s *Service) Shutdown() {
	s.machine.Halt()
}
