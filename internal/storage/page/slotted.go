package page

import "encoding/binary"

// ───────────────────────────────────────────────────────────────────────────
// Slotted region
// ───────────────────────────────────────────────────────────────────────────

const (
	slottedHeaderSize = 8 // num_slots(2) + free_space_offset(2) + pad(4)
	pointerEntrySize  = 4 // offset(2) + len(2)

	// PointerSize is the size in bytes of one slot's pointer entry. Node
	// formats need it to compute max_pair_size.
	PointerSize = pointerEntrySize
)

// Slotted overlays a fixed-size byte slice with the slotted-region layout:
// an 8-byte header, a forward-growing array of {offset,len} pointer
// entries, and a backward-growing data area. It is the arena both B+Tree
// node bodies and any other variable-length record page use.
//
// Offsets recorded in the header and in pointer entries are relative to
// the first byte after the 8-byte slotted header, not to the start of the
// page — the region may itself start partway through a page, after a
// node-specific header.
type Slotted struct {
	buf []byte
}

// Wrap views buf as a slotted region. buf must be at least slottedHeaderSize
// bytes; it is not initialized — call Initialize on a fresh region.
func Wrap(buf []byte) Slotted {
	if len(buf) < slottedHeaderSize {
		panic("page: region too small for slotted header")
	}
	return Slotted{buf: buf}
}

func (s Slotted) numSlots() uint16 {
	return binary.LittleEndian.Uint16(s.buf[0:2])
}

func (s Slotted) setNumSlots(v uint16) {
	binary.LittleEndian.PutUint16(s.buf[0:2], v)
}

func (s Slotted) freeSpaceOffset() uint16 {
	return binary.LittleEndian.Uint16(s.buf[2:4])
}

func (s Slotted) setFreeSpaceOffset(v uint16) {
	binary.LittleEndian.PutUint16(s.buf[2:4], v)
}

func (s Slotted) body() []byte {
	return s.buf[slottedHeaderSize:]
}

// Initialize resets the region to empty: zero slots, all space free.
func (s Slotted) Initialize() {
	s.setNumSlots(0)
	s.setFreeSpaceOffset(uint16(len(s.body())))
}

// Capacity is the usable region size, excluding the slotted header.
func (s Slotted) Capacity() int {
	return len(s.body())
}

// NumSlots is the current slot count.
func (s Slotted) NumSlots() int {
	return int(s.numSlots())
}

func (s Slotted) pointersSize() int {
	return pointerEntrySize * s.NumSlots()
}

// FreeSpace is the number of unused bytes between the pointer array and
// the start of live data.
func (s Slotted) FreeSpace() int {
	return int(s.freeSpaceOffset()) - s.pointersSize()
}

func (s Slotted) getPointer(index int) (offset, length uint16) {
	b := s.body()
	off := index * pointerEntrySize
	offset = binary.LittleEndian.Uint16(b[off : off+2])
	length = binary.LittleEndian.Uint16(b[off+2 : off+4])
	return
}

func (s Slotted) setPointer(index int, offset, length uint16) {
	b := s.body()
	off := index * pointerEntrySize
	binary.LittleEndian.PutUint16(b[off:off+2], offset)
	binary.LittleEndian.PutUint16(b[off+2:off+4], length)
}

// Insert reserves a new length-byte slot at the given logical index,
// shifting slots [index, NumSlots) one position right. It returns false
// without mutating the region if there is not enough free space. The
// reserved bytes are left uninitialized — the caller must fill them (via
// Get) before any read.
func (s Slotted) Insert(index, length int) bool {
	if s.FreeSpace() < pointerEntrySize+length {
		return false
	}
	numSlotsOrig := s.NumSlots()
	newFree := s.freeSpaceOffset() - uint16(length)
	s.setFreeSpaceOffset(newFree)
	s.setNumSlots(uint16(numSlotsOrig + 1))
	b := s.body()
	copy(b[(index+1)*pointerEntrySize:(numSlotsOrig+1)*pointerEntrySize], b[index*pointerEntrySize:numSlotsOrig*pointerEntrySize])
	s.setPointer(index, newFree, uint16(length))
	return true
}

// Remove deletes the slot at index, compacting both the pointer array and
// (via Resize) the data area.
func (s Slotted) Remove(index int) {
	s.Resize(index, 0)
	numSlots := s.NumSlots()
	b := s.body()
	copy(b[index*pointerEntrySize:(numSlots-1)*pointerEntrySize], b[(index+1)*pointerEntrySize:numSlots*pointerEntrySize])
	s.setNumSlots(uint16(numSlots - 1))
}

// Resize grows or shrinks the slot at index to newLen bytes, physically
// shifting the data area and rewriting every pointer whose offset lies in
// the shifted range. The slot keeps its end position: growing adds
// uninitialized bytes in front of the old contents, and shrinking drops
// bytes from the front, keeping the last newLen bytes. It returns false
// without mutating the region if there is not enough free space to grow
// into.
func (s Slotted) Resize(index, newLen int) bool {
	offsetOrig, lenOrig := s.getPointer(index)
	lenIncr := newLen - int(lenOrig)
	if lenIncr == 0 {
		return true
	}
	if lenIncr > s.FreeSpace() {
		return false
	}
	freeOffset := int(s.freeSpaceOffset())
	shiftLen := int(offsetOrig) - freeOffset
	newFreeOffset := freeOffset - lenIncr
	s.setFreeSpaceOffset(uint16(newFreeOffset))
	b := s.body()
	copy(b[newFreeOffset:newFreeOffset+shiftLen], b[freeOffset:int(offsetOrig)])

	numSlots := s.NumSlots()
	for i := 0; i < numSlots; i++ {
		off, ln := s.getPointer(i)
		if off <= offsetOrig {
			s.setPointer(i, uint16(int(off)-lenIncr), ln)
		}
	}
	if newLen == 0 {
		s.setPointer(index, uint16(newFreeOffset), 0)
	} else {
		off, _ := s.getPointer(index)
		s.setPointer(index, off, uint16(newLen))
	}
	return true
}

// Get returns the live byte slice for slot index. The returned slice
// aliases the region and is invalidated by any subsequent Insert, Remove,
// or Resize call.
func (s Slotted) Get(index int) []byte {
	offset, length := s.getPointer(index)
	b := s.body()
	return b[offset : offset+length]
}
