//go:build linux || darwin || freebsd

package notify

import (
	"errors"
	"io"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// peekSize bounds the MSG_PEEK probe. Anything queued beyond it is picked up
// by bufio on the following read.
const peekSize = 64

// socketPending asks the kernel how many bytes are queued on the socket.
// ok is false when conn has no file descriptor to query.
func socketPending(conn net.Conn) (n int, ok bool, err error) {
	sc, isSyscall := conn.(syscall.Conn)
	if !isSyscall {
		return 0, false, nil
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0, false, nil
	}

	var ioErr error
	cerr := raw.Control(func(fd uintptr) {
		n, ioErr = queuedBytes(int(fd))
		if ioErr != nil || n > 0 {
			return
		}
		// A zero queue length cannot tell an idle socket from a closed one.
		var b [peekSize]byte
		m, _, perr := unix.Recvfrom(int(fd), b[:], unix.MSG_PEEK|unix.MSG_DONTWAIT)
		switch {
		case perr == nil && m == 0:
			ioErr = io.EOF
		case perr == nil:
			n = m
		case errors.Is(perr, unix.EAGAIN), errors.Is(perr, unix.EWOULDBLOCK), errors.Is(perr, unix.EINTR):
		default:
			ioErr = perr
		}
	})
	if cerr != nil {
		return 0, true, cerr
	}
	return n, true, ioErr
}
