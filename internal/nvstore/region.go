package nvstore

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNotOpen     = errors.New("region not open")
	ErrAlreadyOpen = errors.New("region already open")
	ErrOutOfRange  = errors.New("access outside region")
)

// Region is a fixed-size byte-addressable non-volatile area with an explicit
// commit step, in the shape of an EEPROM emulation window.
type Region interface {
	Open(size int) error
	Read(offset, length int) ([]byte, error)
	Write(offset int, data []byte) error
	Commit() error
	Close() error
}

// Backing is the durable medium under a buffered region. Load returns whatever
// bytes are currently persisted (nil or short when nothing was written yet).
// Persist must replace the stored bytes atomically.
type Backing interface {
	Load() ([]byte, error)
	Persist(data []byte) error
}

type bufferedRegion struct {
	backing Backing
	buf     []byte
	open    bool
}

// NewRegion returns a Region that keeps a RAM copy of the backing between Open
// and Close. Writes only reach the backing on Commit; Close discards anything
// uncommitted.
func NewRegion(b Backing) Region {
	return &bufferedRegion{backing: b}
}

func (r *bufferedRegion) Open(size int) error {
	if r.open {
		return ErrAlreadyOpen
	}
	if size <= 0 {
		return fmt.Errorf("invalid region size %d", size)
	}

	stored, err := r.backing.Load()
	if err != nil {
		return fmt.Errorf("load region: %w", err)
	}

	r.buf = make([]byte, size)
	copy(r.buf, stored)
	r.open = true
	return nil
}

func (r *bufferedRegion) Read(offset, length int) ([]byte, error) {
	if !r.open {
		return nil, ErrNotOpen
	}
	if offset < 0 || length < 0 || offset+length > len(r.buf) {
		return nil, fmt.Errorf("read %d bytes at %d: %w", length, offset, ErrOutOfRange)
	}
	out := make([]byte, length)
	copy(out, r.buf[offset:offset+length])
	return out, nil
}

func (r *bufferedRegion) Write(offset int, data []byte) error {
	if !r.open {
		return ErrNotOpen
	}
	if offset < 0 || offset+len(data) > len(r.buf) {
		return fmt.Errorf("write %d bytes at %d: %w", len(data), offset, ErrOutOfRange)
	}
	copy(r.buf[offset:], data)
	return nil
}

func (r *bufferedRegion) Commit() error {
	if !r.open {
		return ErrNotOpen
	}
	snapshot := make([]byte, len(r.buf))
	copy(snapshot, r.buf)
	if err := r.backing.Persist(snapshot); err != nil {
		return fmt.Errorf("persist region: %w", err)
	}
	return nil
}

func (r *bufferedRegion) Close() error {
	if !r.open {
		return ErrNotOpen
	}
	r.buf = nil
	r.open = false
	return nil
}

// MemoryBacking keeps the region in process memory. Contents do not survive a
// restart; it backs tests and the "memory" storage driver.
type MemoryBacking struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryBacking(initial []byte) *MemoryBacking {
	m := &MemoryBacking{}
	if initial != nil {
		m.data = append([]byte(nil), initial...)
	}
	return m
}

func (m *MemoryBacking) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryBacking) Persist(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append(m.data[:0], data...)
	return nil
}

// Bytes returns a copy of the persisted contents.
func (m *MemoryBacking) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}
