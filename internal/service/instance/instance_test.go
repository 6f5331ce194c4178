package instance

import (
	"errors"
	"testing"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"
)

var errTestList = errors.New("no procfs")

type fakeProcess struct {
	pid  int
	name string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.name }

func newTestFinder(killed *[]int, processes ...ps.Process) *Finder {
	return &Finder{
		list: func() ([]ps.Process, error) { return processes, nil },
		self: 100,
		kill: func(pid int) error {
			*killed = append(*killed, pid)

			return nil
		},
	}
}

func TestEnsureSingle(t *testing.T) {
	t.Parallel()

	var killed []int

	alone := newTestFinder(&killed,
		fakeProcess{pid: 100, name: "home-hub"},
		fakeProcess{pid: 7, name: "sshd"},
	)
	require.NoError(t, alone.EnsureSingle("home-hub"))

	twice := newTestFinder(&killed,
		fakeProcess{pid: 100, name: "home-hub"},
		fakeProcess{pid: 42, name: "home-hub"},
	)

	err := twice.EnsureSingle("home-hub")
	require.ErrorIs(t, err, ErrAlreadyRunning)
	require.Contains(t, err.Error(), "pid 42")
	require.Empty(t, killed)
}

func TestTerminate_SkipsSelf(t *testing.T) {
	t.Parallel()

	var killed []int

	f := newTestFinder(&killed,
		fakeProcess{pid: 100, name: "home-ctl"},
		fakeProcess{pid: 11, name: "home-hub"},
		fakeProcess{pid: 12, name: "home-ctl"},
		fakeProcess{pid: 13, name: "bash"},
	)

	require.NoError(t, f.Terminate("home-hub", "home-ctl"))
	require.Equal(t, []int{11, 12}, killed)
}

func TestFind_ListError(t *testing.T) {
	t.Parallel()

	f := &Finder{list: func() ([]ps.Process, error) { return nil, errTestList }}

	_, err := f.Find("home-hub")
	require.ErrorIs(t, err, errTestList)
}
