package platform

import (
	"bufio"
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrAlreadyRunning indicates another widget instance already holds the lock.
var ErrAlreadyRunning = errors.New("instance already running")

const (
	minGuardPort = 20000
	maxGuardPort = 39999

	activateRequest  = "activate"
	activateReply    = "ok"
	handshakeTimeout = 2 * time.Second
)

// InstanceGuard holds the single-instance lock for the lifetime of the app
// and answers activation requests from later launches.
type InstanceGuard struct {
	listener net.Listener
	done     chan struct{}

	mu         sync.Mutex
	onActivate func()
}

// AcquireSingleInstance binds a localhost port derived from appName. When the
// port is already held by a running widget, that instance is asked to bring
// itself to the front and ErrAlreadyRunning is returned.
func AcquireSingleInstance(appName string) (*InstanceGuard, error) {
	address := guardAddress(appName)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		if activateErr := requestActivation(address); activateErr != nil {
			return nil, fmt.Errorf("acquire instance lock %s: %w", address, errors.Join(err, activateErr))
		}
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, address)
	}

	guard := &InstanceGuard{
		listener: listener,
		done:     make(chan struct{}),
	}
	go guard.serve()
	return guard, nil
}

// OnActivate sets the handler run when another launch asks this instance to
// show itself. It runs on the guard's goroutine.
func (guard *InstanceGuard) OnActivate(handler func()) {
	if guard == nil {
		return
	}
	guard.mu.Lock()
	defer guard.mu.Unlock()
	guard.onActivate = handler
}

// Release frees the lock. It is safe on a nil guard.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	err := guard.listener.Close()
	<-guard.done
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Address returns the bound address.
func (guard *InstanceGuard) Address() string {
	if guard == nil || guard.listener == nil {
		return ""
	}
	return guard.listener.Addr().String()
}

func (guard *InstanceGuard) serve() {
	defer close(guard.done)
	for {
		conn, err := guard.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Warn().Err(err).Msg("instance guard stopped")
			}
			return
		}
		guard.answer(conn)
	}
}

func (guard *InstanceGuard) answer(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(handshakeTimeout))

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil || strings.TrimSpace(line) != activateRequest {
		log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("ignoring unknown instance request")
		return
	}
	if _, err := fmt.Fprintln(conn, activateReply); err != nil {
		log.Debug().Err(err).Msg("failed to answer activation")
	}

	guard.mu.Lock()
	handler := guard.onActivate
	guard.mu.Unlock()
	if handler != nil {
		handler()
	}
}

// requestActivation tells the instance at address to show itself. It fails
// when whatever holds the port does not speak the handshake.
func requestActivation(address string) error {
	conn, err := net.DialTimeout("tcp", address, handshakeTimeout)
	if err != nil {
		return fmt.Errorf("dial instance: %w", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(handshakeTimeout))

	if _, err := fmt.Fprintln(conn, activateRequest); err != nil {
		return fmt.Errorf("send activation: %w", err)
	}
	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return fmt.Errorf("read activation reply: %w", err)
	}
	if strings.TrimSpace(reply) != activateReply {
		return fmt.Errorf("unexpected activation reply %q", reply)
	}
	return nil
}

func guardAddress(appName string) string {
	return fmt.Sprintf("127.0.0.1:%d", guardPort(appName))
}

func guardPort(appName string) int {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(appName))
	return minGuardPort + int(hash.Sum32()%uint32(maxGuardPort-minGuardPort+1))
}
