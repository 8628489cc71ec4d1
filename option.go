package minos

import (
	"log/slog"

	"github.com/minos-os/minos/kernel"
	"github.com/minos-os/minos/loader"
	"github.com/minos-os/minos/machine"
)

// Option customises a Service.
type Option func(s *Service)

// WithConfig sets the machine geometry.
func WithConfig(config machine.Config) Option {
	return func(s *Service) { s.config = config }
}

// WithLoader sets the executable image loader.
func WithLoader(ld loader.Loader) Option {
	return func(s *Service) { s.loader = ld }
}

// WithFileTables sets the per-process file table factory.
func WithFileTables(factory kernel.FileTableFactory) Option {
	return func(s *Service) { s.files = factory }
}

// WithLogger sets the kernel logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithProgram registers a program for an executable name.
func WithProgram(name string, program kernel.Program) Option {
	return func(s *Service) { s.programs[name] = program }
}
