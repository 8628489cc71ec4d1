package kernel

import (
	"errors"
	"fmt"
)

// ErrNoFreePages reports physical page pool exhaustion. It never crosses the
// syscall boundary; exec translates it into the failure sentinel.
var ErrNoFreePages = errors.New("no free physical pages")

func NewFragmentedExecutableError(name string) error {
	return fmt.Errorf("executable %v is fragmented: sections are not contiguous from page 0", name)
}

func NewArgumentsTooLongError(name string, size, pageSize int) error {
	return fmt.Errorf("arguments for %v occupy %d bytes, do not fit in one %d byte page", name, size, pageSize)
}

func NewInsufficientMemoryError(name string, needed, available int) error {
	return fmt.Errorf("executable %v needs %d pages, machine has %d", name, needed, available)
}
