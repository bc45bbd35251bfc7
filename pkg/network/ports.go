package network

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/vuer-ai/zaku-go/pkg/log"
)

const (
	procTCP  = "/proc/net/tcp"
	procTCP6 = "/proc/net/tcp6"

	// Socket state code for LISTEN in /proc/net/tcp
	stateListen = "0A"
)

// EnsureFree verifies that the broker's port can be bound. With
// takeOver set, processes already listening on the port are terminated
// first, which is how development brokers reclaim their port after an
// unclean restart. Production deployments run with takeOver disabled
// and fail fast on conflicts.
func EnsureFree(port int, takeOver bool) error {
	if bindable(port) {
		return nil
	}
	if !takeOver {
		return fmt.Errorf("port %d is already in use", port)
	}

	if err := KillListeners(port); err != nil {
		return fmt.Errorf("failed to free port %d: %w", port, err)
	}

	// Give the old owner a moment to exit
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if bindable(port) {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("port %d is still in use after terminating listeners", port)
}

// KillListeners sends SIGTERM to every process with a listening TCP
// socket on the port. The calling process is never signalled; holding
// the port ourselves is reported as an error instead.
func KillListeners(port int) error {
	pids, err := ListeningPIDs(port)
	if err != nil {
		return err
	}

	self := os.Getpid()
	for _, pid := range pids {
		if pid == self {
			return fmt.Errorf("port %d is held by this process", port)
		}
		proc, err := os.FindProcess(pid)
		if err != nil {
			continue
		}
		log.Warn(fmt.Sprintf("Terminating process %d holding port %d", pid, port))
		if err := proc.Signal(syscall.SIGTERM); err != nil {
			return fmt.Errorf("failed to signal process %d: %w", pid, err)
		}
	}
	return nil
}

// ListeningPIDs walks /proc to find the processes holding a listening
// TCP socket on the port. Linux only.
func ListeningPIDs(port int) ([]int, error) {
	targets := make(map[string]bool)
	for _, table := range []string{procTCP, procTCP6} {
		if err := listenSockets(table, port, targets); err != nil {
			return nil, err
		}
	}
	if len(targets) == 0 {
		return nil, nil
	}

	procs, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("failed to read /proc: %w", err)
	}

	var pids []int
	for _, entry := range procs {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}

		fdDir := filepath.Join("/proc", entry.Name(), "fd")
		fds, err := os.ReadDir(fdDir)
		if err != nil {
			// Other users' processes are not readable
			continue
		}
		for _, fd := range fds {
			link, err := os.Readlink(filepath.Join(fdDir, fd.Name()))
			if err != nil {
				continue
			}
			if targets[link] {
				pids = append(pids, pid)
				break
			}
		}
	}
	return pids, nil
}

// listenSockets collects the fd link targets ("socket:[inode]") of
// LISTEN sockets on the port from one /proc/net table.
func listenSockets(table string, port int, targets map[string]bool) error {
	f, err := os.Open(table)
	if err != nil {
		if os.IsNotExist(err) {
			// IPv6 may be disabled
			return nil
		}
		return fmt.Errorf("failed to open %s: %w", table, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Scan() // header

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 10 || fields[3] != stateListen {
			continue
		}
		// local_address is hex "IP:PORT"
		_, hexPort, ok := strings.Cut(fields[1], ":")
		if !ok {
			continue
		}
		p, err := strconv.ParseUint(hexPort, 16, 32)
		if err != nil || int(p) != port {
			continue
		}
		targets[fmt.Sprintf("socket:[%s]", fields[9])] = true
	}
	return scanner.Err()
}

func bindable(port int) bool {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	_ = l.Close()
	return true
}
