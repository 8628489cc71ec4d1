// Package minos provides the process and address-space core of a teaching
// operating system simulator.
//
// The simulator manages each process's virtual-to-physical page mapping,
// mediates virtual-memory reads and writes on behalf of the simulated CPU,
// and implements the process-lifecycle syscalls (exec, exit, join, halt)
// including parent/child bookkeeping. The layers underneath are:
//
//   - machine: physical memory, page frames and the shared page pool
//   - kernel: address spaces, virtual-memory access, process registry
//     and the syscall handlers
//   - loader: the executable-image contract plus a flat binary loader
//
// Hosts interact with the simulator via the Service façade exposed by the
// root package:
//
//	srv, _ := minos.New(minos.WithLoader(flat.New("file:///images", 1024)))
//	root, _ := srv.Boot(ctx, "shell.bin")
//	srv.Wait(ctx)
//
// Demand paging, swapping and copy-on-write are deliberately absent; every
// program is fully resident from load to exit.
package minos
