// Package kernel implements the process side of the simulator: address
// spaces built from pooled physical pages, byte-accurate virtual-memory
// access with partial-transfer semantics, the process registry with its
// parent/child forest, and the halt/exit/exec/join syscalls.
//
// Every syscall returns a value; failures are sentinel codes and never
// escape as errors or panics. The only blocking point in the package is
// join, which waits on the child thread's completion signal with no
// timeout and no cancellation.
package kernel
