package instance

import (
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned by EnsureSingle when another process with the
// same executable name exists.
var ErrAlreadyRunning = errors.New("another instance is already running")

// lister returns the process table.
type lister func() ([]ps.Process, error)

// Finder looks processes up in the process table, skipping itself.
type Finder struct {
	list lister
	self int
	kill func(pid int) error
}

// NewFinder creates a Finder over the host process table.
func NewFinder() *Finder {
	return &Finder{
		list: ps.Processes,
		self: os.Getpid(),
		kill: killProcess,
	}
}

// EnsureSingle fails with ErrAlreadyRunning when another process named name runs.
func EnsureSingle(name string) error {
	return NewFinder().EnsureSingle(name)
}

// Terminate kills every other process whose executable is in names.
func Terminate(names ...string) error {
	return NewFinder().Terminate(names...)
}

// Find returns the ids of the other processes named name.
func (f *Finder) Find(name string) ([]int, error) {
	return f.find(map[string]struct{}{name: {}})
}

// EnsureSingle fails with ErrAlreadyRunning when another process named name runs.
func (f *Finder) EnsureSingle(name string) error {
	pids, err := f.Find(name)
	if err != nil {
		return err
	}

	if len(pids) > 0 {
		return fmt.Errorf("%s (pid %d): %w", name, pids[0], ErrAlreadyRunning)
	}

	return nil
}

// Terminate kills every other process whose executable is in names.
func (f *Finder) Terminate(names ...string) error {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}

	pids, err := f.find(set)
	if err != nil {
		return err
	}

	for _, pid := range pids {
		if err = f.kill(pid); err != nil {
			return fmt.Errorf("kill process %d: %w", pid, err)
		}
	}

	return nil
}

func (f *Finder) find(names map[string]struct{}) ([]int, error) {
	processList, err := f.list()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	var pids []int

	for _, process := range processList {
		if process.Pid() == f.self {
			continue
		}

		if _, found := names[process.Executable()]; !found {
			continue
		}

		pids = append(pids, process.Pid())
	}

	return pids, nil
}

func killProcess(pid int) error {
	runningProcess, err := os.FindProcess(pid)
	if err != nil {
		return err
	}

	return runningProcess.Kill()
}
