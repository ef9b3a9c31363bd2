// Package transport carries EAPOL packets between a Supplicant and an
// Authenticator. The in-memory Pipe stands in for the uncontrolled
// port of an IEEE Std 802.1X link and can simulate lossy delivery.
package transport

import (
	"math/rand"
	"sync"
	"time"

	"github.com/pion/transport/v3/test"
)

// NetworkCondition configures link behavior simulation. Use it to
// exercise handshake retransmission and replay handling under adverse
// conditions.
type NetworkCondition struct {
	// DropRate is the probability of dropping a packet (0.0 - 1.0).
	DropRate float64

	// DuplicateRate is the probability of delivering a packet twice
	// (0.0 - 1.0).
	DuplicateRate float64

	// DelayMin and DelayMax bound the artificial delay added to each
	// packet. The actual delay is uniformly distributed between them.
	DelayMin time.Duration
	DelayMax time.Duration
}

// PipeConfig configures a Pipe.
type PipeConfig struct {
	// AutoProcess enables automatic packet delivery in a background
	// goroutine.
	AutoProcess bool

	// ProcessInterval is how often the auto-processor delivers queued
	// packets. Default: 1ms.
	ProcessInterval time.Duration
}

// DefaultPipeConfig returns the default pipe configuration.
func DefaultPipeConfig() PipeConfig {
	return PipeConfig{
		AutoProcess:     true,
		ProcessInterval: 1 * time.Millisecond,
	}
}

// Pipe is a bidirectional in-memory EAPOL link between two ports. It
// wraps pion's test.Bridge and adds link condition simulation.
//
// By default packets are delivered by a background goroutine. Use
// SetAutoProcess(false) for deterministic, manually ticked tests.
type Pipe struct {
	bridge *test.Bridge

	mu              sync.RWMutex
	condition       NetworkCondition
	closed          bool
	rng             *rand.Rand
	autoProcess     bool
	processInterval time.Duration
	stopCh          chan struct{}
	wg              sync.WaitGroup
}

// NewPipe creates a pipe with auto-processing enabled.
func NewPipe() *Pipe {
	return NewPipeWithConfig(DefaultPipeConfig())
}

// NewPipeWithConfig creates a pipe with the given configuration.
func NewPipeWithConfig(config PipeConfig) *Pipe {
	p := &Pipe{
		bridge:          test.NewBridge(),
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		autoProcess:     config.AutoProcess,
		processInterval: config.ProcessInterval,
		stopCh:          make(chan struct{}),
	}
	if p.processInterval == 0 {
		p.processInterval = 1 * time.Millisecond
	}
	if p.autoProcess {
		p.startAutoProcess()
	}
	return p
}

func (p *Pipe) startAutoProcess() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.processInterval)
		defer ticker.Stop()

		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				p.bridge.Tick()
			}
		}
	}()
}

// SetAutoProcess enables or disables automatic packet delivery. When
// disabled, call Tick or Process manually.
func (p *Pipe) SetAutoProcess(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.autoProcess == enabled {
		return
	}
	p.autoProcess = enabled

	if enabled {
		p.stopCh = make(chan struct{})
		p.startAutoProcess()
	} else {
		close(p.stopCh)
		p.wg.Wait()
	}
}

// SetCondition configures link condition simulation. The conditions
// apply to packets in both directions.
func (p *Pipe) SetCondition(cond NetworkCondition) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.condition = cond
}

// Port0 returns the port at endpoint 0. micSize is the EAPOL-Key MIC
// length used when parsing inbound packets.
func (p *Pipe) Port0(micSize int) *Port {
	return &Port{pipe: p, conn: p.bridge.GetConn0(), micSize: micSize}
}

// Port1 returns the port at endpoint 1.
func (p *Pipe) Port1(micSize int) *Port {
	return &Port{pipe: p, conn: p.bridge.GetConn1(), micSize: micSize}
}

// Tick delivers one queued packet in each direction and returns the
// number delivered. The bridge hands packets only to a reader already
// blocked on the destination port; without one the packet stays
// queued.
func (p *Pipe) Tick() int {
	return p.bridge.Tick()
}

// Process repeatedly ticks until no packet is delivered and returns
// the number delivered. Like Tick, it requires pending readers on the
// destination ports.
func (p *Pipe) Process() int {
	count := 0
	for {
		n := p.Tick()
		if n == 0 {
			return count
		}
		count += n
	}
}

// Close closes both ports and stops auto-processing.
func (p *Pipe) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.autoProcess {
		close(p.stopCh)
	}
	p.mu.Unlock()

	p.wg.Wait()

	err0 := p.bridge.GetConn0().Close()
	err1 := p.bridge.GetConn1().Close()
	if err0 != nil {
		return err0
	}
	return err1
}
