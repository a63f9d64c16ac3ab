// Package buffer implements the fixed-size buffer pool: it caches pages
// in memory, evicts with a clock-style policy, tracks dirty state, and
// flushes back to the disk manager.
//
// Go has no cheap "is this reference unique" check the way Rc::get_mut
// does in the source this engine is modelled on, so pinning here is an
// explicit per-frame counter (see Handle.Unpin) rather than a reference
// count on a shared pointer — the "more portable, mandatory" option for
// languages without that check.
package buffer

import (
	"errors"
	"fmt"
	"log"

	"github.com/barrowdb/barrow/internal/storage/disk"
	"github.com/barrowdb/barrow/internal/storage/page"
)

// ErrNoFreeBuffer is returned when every frame in the pool is pinned and
// none can be evicted to satisfy a Fetch or CreatePage.
var ErrNoFreeBuffer = errors.New("buffer: no free buffer available in pool")

// frame is one slot in the pool.
type frame struct {
	id       page.ID
	buf      []byte
	dirty    bool
	usage    uint64
	pinCount int
}

// Pool is a fixed-size array of frames plus a page-id index for frames
// currently resident, replaced by a clock-style (not LRU) policy.
type Pool struct {
	disk       *disk.Manager
	frames     []*frame
	pageTable  map[page.ID]int // page id -> frame index
	nextVictim int
}

// NewPool allocates a pool of size frames backed by disk.
func NewPool(d *disk.Manager, size int) *Pool {
	if size <= 0 {
		panic("buffer: pool size must be positive")
	}
	frames := make([]*frame, size)
	for i := range frames {
		frames[i] = &frame{id: page.InvalidID, buf: page.New()}
	}
	return &Pool{
		disk:      d,
		frames:    frames,
		pageTable: make(map[page.ID]int, size),
	}
}

// Size returns the number of frames in the pool.
func (p *Pool) Size() int {
	return len(p.frames)
}

// evict chooses a victim frame by the clock policy described in the
// component design: walk the ring, pick the first frame with a zero
// usage counter; decay the counter of each unpinned frame as we pass it;
// give up with ErrNoFreeBuffer once every frame has been found pinned on
// a full lap.
func (p *Pool) evict() (int, error) {
	poolSize := len(p.frames)
	consecutivePinned := 0
	for {
		idx := p.nextVictim
		f := p.frames[idx]
		if f.usage == 0 {
			if f.pinCount != 0 {
				panic("buffer: evict selected a pinned frame")
			}
			return idx, nil
		}
		if f.pinCount == 0 {
			f.usage--
			consecutivePinned = 0
		} else {
			consecutivePinned++
			if consecutivePinned >= poolSize {
				return -1, ErrNoFreeBuffer
			}
		}
		p.nextVictim = (idx + 1) % poolSize
	}
}

// Fetch returns a pinned Handle to the page at id, reading it from disk
// on a cache miss.
func (p *Pool) Fetch(id page.ID) (*Handle, error) {
	if idx, ok := p.pageTable[id]; ok {
		f := p.frames[idx]
		f.usage++
		f.pinCount++
		return &Handle{pool: p, frame: f}, nil
	}

	idx, err := p.evict()
	if err != nil {
		return nil, err
	}
	f := p.frames[idx]
	evictedID := f.id
	if f.dirty {
		if err := p.disk.WritePageData(evictedID, f.buf); err != nil {
			return nil, fmt.Errorf("buffer: write back page %d: %w", evictedID, err)
		}
	}
	if err := p.disk.ReadPageData(id, f.buf); err != nil {
		return nil, fmt.Errorf("buffer: fetch page %d: %w", id, err)
	}
	f.id = id
	f.dirty = false
	f.usage = 1
	f.pinCount = 1

	delete(p.pageTable, evictedID)
	p.pageTable[id] = idx
	return &Handle{pool: p, frame: f}, nil
}

// CreatePage allocates a fresh page id from the disk manager and returns
// a pinned Handle to a zeroed, dirty buffer for it.
func (p *Pool) CreatePage() (*Handle, error) {
	idx, err := p.evict()
	if err != nil {
		return nil, err
	}
	f := p.frames[idx]
	evictedID := f.id
	if f.dirty {
		if err := p.disk.WritePageData(evictedID, f.buf); err != nil {
			return nil, fmt.Errorf("buffer: write back page %d: %w", evictedID, err)
		}
	}
	id := p.disk.AllocatePage()
	for i := range f.buf {
		f.buf[i] = 0
	}
	f.id = id
	f.dirty = true
	f.usage = 1
	f.pinCount = 1

	delete(p.pageTable, evictedID)
	p.pageTable[id] = idx
	return &Handle{pool: p, frame: f}, nil
}

// Flush writes every resident frame's current bytes back to disk —
// regardless of its dirty flag — clears all dirty flags, then syncs the
// disk manager. The unconditional write is intentional, matching the
// source this engine follows: it wastes a little I/O but is the one
// operation callers run before process exit.
func (p *Pool) Flush() error {
	for id, idx := range p.pageTable {
		f := p.frames[idx]
		if err := p.disk.WritePageData(id, f.buf); err != nil {
			return fmt.Errorf("buffer: flush page %d: %w", id, err)
		}
		f.dirty = false
	}
	if err := p.disk.Sync(); err != nil {
		return fmt.Errorf("buffer: flush sync: %w", err)
	}
	log.Printf("buffer: flushed %d resident pages", len(p.pageTable))
	return nil
}

// ───────────────────────────────────────────────────────────────────────────
// Handle
// ───────────────────────────────────────────────────────────────────────────

// Handle is a pinned reference to one frame's buffer. A frame is eligible
// for eviction only once every Handle obtained for it has been released
// via Unpin. Releasing a handle at the end of its scope is the only
// correct release point; unpinning twice is a bug.
type Handle struct {
	pool  *Pool
	frame *frame
}

// PageID is the id of the page this handle refers to.
func (h *Handle) PageID() page.ID {
	return h.frame.id
}

// Bytes returns the frame's mutable backing buffer. The caller must call
// MarkDirty before Unpin if it wrote through this slice.
func (h *Handle) Bytes() []byte {
	return h.frame.buf
}

// MarkDirty flags the frame for write-back on the next eviction or flush.
func (h *Handle) MarkDirty() {
	h.frame.dirty = true
}

// Unpin releases this handle's pin on its frame, making the frame
// eligible for eviction again once no other handle holds it.
func (h *Handle) Unpin() {
	if h.frame.pinCount == 0 {
		panic("buffer: Unpin called with no outstanding pin")
	}
	h.frame.pinCount--
}
