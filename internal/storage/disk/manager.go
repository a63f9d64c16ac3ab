// Package disk maps page ids to fixed PAGE_SIZE byte ranges in a backing
// store and hands out new page ids. It has no notion of what a page's
// bytes mean — that is the B+Tree node formats' job.
package disk

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dsnet/golib/memfile"
	"github.com/ncw/directio"

	"github.com/barrowdb/barrow/internal/storage/page"
)

// backing is the minimal random-access surface a disk manager needs. A
// plain *os.File, an in-memory memfile.File, and a directio-wrapped file
// all satisfy it.
type backing interface {
	io.ReaderAt
	io.WriterAt
	Sync() error
}

// closableBacking is implemented by backings that hold an OS resource.
type closableBacking interface {
	Close() error
}

// Manager allocates page ids and reads/writes whole pages against a
// backing store. It keeps no cache of its own — that is the buffer
// pool's job, one layer up.
type Manager struct {
	mu         sync.Mutex
	store      backing
	nextPageID page.ID
}

// Open attaches to a file-backed store at path, creating it if absent.
// next-page-id is initialized from the file's current size so reopening
// a file continues allocation past existing pages.
func Open(path string) (*Manager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("disk: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("disk: stat %s: %w", path, err)
	}
	return &Manager{store: f, nextPageID: page.ID(info.Size() / page.Size)}, nil
}

// NewMemory returns a Manager backed by an in-memory buffer. Useful for
// tests and for scratch trees that never need to survive a restart.
func NewMemory() *Manager {
	return &Manager{store: memfile.New(nil), nextPageID: 0}
}

// NewDirect attaches to a file-backed store opened with O_DIRECT, so page
// reads and writes bypass the OS page cache — the buffer pool above this
// manager is the only cache in the path. Page size (4096) matches the
// common O_DIRECT alignment requirement on Linux.
func NewDirect(path string) (*Manager, error) {
	f, err := directio.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("disk: open %s (O_DIRECT): %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("disk: stat %s: %w", path, err)
	}
	return &Manager{
		store:      &directBacking{f: f},
		nextPageID: page.ID(info.Size() / page.Size),
	}, nil
}

// AllocatePage returns the next free page id and advances the allocation
// cursor. It does not write anything; the caller must write the page or
// the backing store remains logically sparse at that id.
func (m *Manager) AllocatePage() page.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextPageID
	m.nextPageID++
	return id
}

// ReadPageData copies page.Size bytes from the page at id into dst. A
// never-written but allocated page reads back as zeros.
func (m *Manager) ReadPageData(id page.ID, dst []byte) error {
	if len(dst) != page.Size {
		panic("disk: ReadPageData requires a page.Size-length buffer")
	}
	for i := range dst {
		dst[i] = 0
	}
	off := int64(id) * page.Size
	_, err := m.store.ReadAt(dst, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("disk: read page %d: %w", id, err)
	}
	return nil
}

// WritePageData writes page.Size bytes from src to the page at id.
func (m *Manager) WritePageData(id page.ID, src []byte) error {
	if len(src) != page.Size {
		panic("disk: WritePageData requires a page.Size-length buffer")
	}
	off := int64(id) * page.Size
	if _, err := m.store.WriteAt(src, off); err != nil {
		return fmt.Errorf("disk: write page %d: %w", id, err)
	}
	return nil
}

// Sync durably commits all prior writes to the backing store.
func (m *Manager) Sync() error {
	if err := m.store.Sync(); err != nil {
		return fmt.Errorf("disk: sync: %w", err)
	}
	return nil
}

// Close releases any OS resource held by the backing store. Memory-backed
// managers treat this as a no-op.
func (m *Manager) Close() error {
	if c, ok := m.store.(closableBacking); ok {
		return c.Close()
	}
	return nil
}

// ───────────────────────────────────────────────────────────────────────────
// O_DIRECT adapter
// ───────────────────────────────────────────────────────────────────────────

// directBacking wraps an O_DIRECT file descriptor. O_DIRECT requires the
// memory buffer handed to read/write, not just the file offset, to be
// aligned — callers of Manager don't know or care about that, so every
// transfer is staged through a directio.AlignedBlock buffer.
type directBacking struct {
	f *os.File
}

func (d *directBacking) ReadAt(p []byte, off int64) (int, error) {
	buf := directio.AlignedBlock(len(p))
	n, err := d.f.ReadAt(buf, off)
	copy(p, buf)
	return n, err
}

func (d *directBacking) WriteAt(p []byte, off int64) (int, error) {
	buf := directio.AlignedBlock(len(p))
	copy(buf, p)
	return d.f.WriteAt(buf, off)
}

func (d *directBacking) Sync() error {
	return d.f.Sync()
}

func (d *directBacking) Close() error {
	return d.f.Close()
}
