package transport

import (
	"net"
	"time"

	"github.com/backkem/rsn/pkg/eapol"
)

const maxPacketSize = 2048

// Port is one end of an EAPOL link. It serializes key frames onto the
// link and parses inbound packets.
type Port struct {
	pipe    *Pipe
	conn    net.Conn
	micSize int
}

// WriteFrame serializes the frame onto the link, applying the pipe's
// link conditions.
func (p *Port) WriteFrame(f *eapol.KeyFrame) error {
	raw := f.Bytes()

	p.pipe.mu.Lock()
	cond := p.pipe.condition
	drop := cond.DropRate > 0 && p.pipe.rng.Float64() < cond.DropRate
	duplicate := cond.DuplicateRate > 0 && p.pipe.rng.Float64() < cond.DuplicateRate
	var delay time.Duration
	if cond.DelayMax > 0 {
		delay = cond.DelayMin
		if cond.DelayMax > cond.DelayMin {
			delay += time.Duration(p.pipe.rng.Int63n(int64(cond.DelayMax - cond.DelayMin)))
		}
	}
	p.pipe.mu.Unlock()

	if drop {
		return nil
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if duplicate {
		if _, err := p.conn.Write(raw); err != nil {
			return err
		}
	}

	_, err := p.conn.Write(raw)
	return err
}

// ReadFrame reads the next packet from the link and parses it. It
// waits up to timeout for a packet to arrive.
func (p *Port) ReadFrame(timeout time.Duration) (eapol.Frame, error) {
	if err := p.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	buf := make([]byte, maxPacketSize)
	n, err := p.conn.Read(buf)
	if err != nil {
		return nil, err
	}
	return eapol.Parse(buf[:n], p.micSize)
}
