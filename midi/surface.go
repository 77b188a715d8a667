package midi

import (
	"fmt"
	"sync"
	"sync/atomic"

	"axum-engine/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

var sendCount uint64

// Surface is a MIDI controller on a pair of gomidi ports.
type Surface struct {
	id       string
	outPort  drivers.Out
	inPort   drivers.In
	send     func(msg gomidi.Message) error
	stopFunc func()

	mu     sync.Mutex
	closed bool
	events chan Event
}

// NewSurface opens the ports of a surface. Either port may be nil.
func NewSurface(id string, inPort drivers.In, outPort drivers.Out) (*Surface, error) {
	s := &Surface{
		id:      id,
		inPort:  inPort,
		outPort: outPort,
		events:  make(chan Event, 64),
	}

	// Open output
	if outPort != nil {
		send, err := gomidi.SendTo(outPort)
		if err != nil {
			return nil, fmt.Errorf("open output: %w", err)
		}
		s.send = send
	}

	// Open input
	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			ev, ok := translate(msg)
			if !ok {
				return
			}
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.closed {
				return
			}
			select {
			case s.events <- ev:
			default:
				debug.Log("midi", "%s: input queue full, dropped %v", s.id, ev)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		s.stopFunc = stop
	}

	return s, nil
}

func (s *Surface) ID() string {
	return s.id
}

func (s *Surface) Events() <-chan Event {
	return s.events
}

// Send writes one message. Surfaces without an output port drop it.
func (s *Surface) Send(msg gomidi.Message) error {
	if s.send == nil {
		return nil
	}
	count := atomic.AddUint64(&sendCount, 1)
	if count%500 == 0 {
		debug.Log("midi", "send count=%d", count)
	}
	return s.send(msg)
}

func (s *Surface) Close() error {
	if s.stopFunc != nil {
		s.stopFunc()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}
