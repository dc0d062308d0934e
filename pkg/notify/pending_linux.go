package notify

import "golang.org/x/sys/unix"

// queuedBytes returns the length of the socket's receive queue.
func queuedBytes(fd int) (int, error) {
	return unix.IoctlGetInt(fd, unix.SIOCINQ)
}
