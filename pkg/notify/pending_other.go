//go:build !(linux || darwin || freebsd)

package notify

import "net"

func socketPending(net.Conn) (int, bool, error) {
	return 0, false, nil
}
