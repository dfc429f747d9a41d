// Package wbfs decodes the WBFS container format, a sparse on-disk layout
// used to store one or more Wii optical disc images inside a host file or
// partition. It is read-only: opening an image, walking occupied disc
// slots, and translating disc-local byte ranges through the sector
// indirection table into physical reads.
//
// Example usage:
//
//	f, err := os.Open("disc.wbfs")
//	if err != nil {
//	        panic(err)
//	}
//	defer f.Close()
//
//	c, err := wbfs.Open(io.NewSectionReader(f, 0, mustSize(f)))
//	if err != nil {
//	        panic(err)
//	}
//
//	for _, slot := range c.OccupiedSlots() {
//	        d, err := wbfs.OpenDisc(c, slot)
//	        if err != nil {
//	                panic(err)
//	        }
//
//	        info, err := wbfs.ReadPartitionInfo(d)
//	        if err != nil {
//	                panic(err)
//	        }
//	        _ = info
//	}
package wbfs

import (
	"go4.org/readerutil"
)

const (
	magic = "WBFS"

	headerPrefixSize = 12

	// dualLayerWiiBytes is the size of a dual-layer Wii disc image in
	// bytes, used to derive how many WBFS sectors a disc occupies
	// regardless of whether the actual disc is single- or dual-layer.
	dualLayerWiiBytes = int64(260620) * 0x8000
)

// Source is the backing random-access byte source a container is opened
// over. It is the positional-read variant the design notes call out:
// because it carries no shared seek cursor, a Source may safely be read
// from multiple goroutines at once, unlike the seek-then-read baseline the
// spec otherwise assumes.
type Source = readerutil.SizeReaderAt

// Container is a validated WBFS image: its decoded header, derived sector
// geometry, and disc occupancy table. It borrows its backing Source for its
// entire lifetime; it does not close it.
type Container struct {
	src Source

	hdSectorCount   uint32
	hdSectorShift   uint8
	wbfsSectorShift uint8
	version         uint8

	hdSectorSize       int64
	wbfsSectorSize     int64
	wbfsSectorsPerDisc int64

	occupancy []byte

	invalid bool
}

// Open reads and validates a WBFS container header from src, derives its
// sector geometry, and loads the disc occupancy table.
func Open(src Source) (*Container, error) {
	prefix := make([]byte, headerPrefixSize)
	if err := readFull(src, 0, prefix); err != nil {
		return nil, err
	}

	if string(prefix[0:4]) != magic {
		return nil, newErrorf(KindBadMagic, "got %q", prefix[0:4])
	}

	c := &Container{
		src:             src,
		hdSectorCount:   beUint32(prefix[4:8]),
		hdSectorShift:   prefix[8],
		wbfsSectorShift: prefix[9],
		version:         prefix[10],
	}

	if c.version != 0 {
		return nil, newErrorf(KindUnsupportedVersion, "version %d", c.version)
	}

	if !isPowerOfTwoShift(c.hdSectorShift) || !isPowerOfTwoShift(c.wbfsSectorShift) {
		return nil, newError(KindBadGeometry, "sector shifts out of range")
	}

	c.hdSectorSize = int64(1) << c.hdSectorShift
	c.wbfsSectorSize = int64(1) << c.wbfsSectorShift

	if c.wbfsSectorSize <= c.hdSectorSize {
		return nil, newError(KindBadGeometry, "wbfs sector size must exceed host sector size")
	}

	c.wbfsSectorsPerDisc = ceilDiv(dualLayerWiiBytes, c.wbfsSectorSize)

	if c.hdSectorSize <= headerPrefixSize {
		return nil, newError(KindBadGeometry, "host sector size too small to hold the header")
	}
	if c.hdSectorSize > src.Size() {
		return nil, newErrorf(KindTruncated, "header needs %d bytes, source has %d", c.hdSectorSize, src.Size())
	}

	occLen := c.hdSectorSize - headerPrefixSize
	c.occupancy = make([]byte, occLen)
	if err := readFull(src, headerPrefixSize, c.occupancy); err != nil {
		return nil, err
	}

	return c, nil
}

// Size returns the total byte size of the backing source.
func (c *Container) Size() int64 {
	return c.src.Size()
}

// HdSectorSize returns the host sector size in bytes.
func (c *Container) HdSectorSize() int64 {
	return c.hdSectorSize
}

// WbfsSectorSize returns the WBFS sector size in bytes.
func (c *Container) WbfsSectorSize() int64 {
	return c.wbfsSectorSize
}

// WbfsSectorsPerDisc returns the number of WBFS sectors a single Wii disc
// (sized as a dual-layer image) occupies.
func (c *Container) WbfsSectorsPerDisc() int64 {
	return c.wbfsSectorsPerDisc
}

// MaxDiscs returns the maximum number of disc slots this container's
// geometry permits, i.e. hd_sector_size - 12.
func (c *Container) MaxDiscs() int {
	return len(c.occupancy)
}

// SlotOccupied reports whether the given disc slot index holds a disc. Any
// nonzero occupancy byte counts as occupied; see the open question in
// DESIGN.md about whether other values carry additional meaning.
func (c *Container) SlotOccupied(slot int) bool {
	if slot < 0 || slot >= len(c.occupancy) {
		return false
	}
	return c.occupancy[slot] != 0
}

// OccupiedSlots returns every occupied slot index in ascending order.
func (c *Container) OccupiedSlots() []int {
	var slots []int
	for i, b := range c.occupancy {
		if b != 0 {
			slots = append(slots, i)
		}
	}
	return slots
}

func (c *Container) checkValid() error {
	if c.invalid {
		return newError(KindInvalidHandle, "container is permanently invalid after a prior failure")
	}
	return nil
}

func (c *Container) markInvalid() {
	c.invalid = true
}

func isPowerOfTwoShift(shift uint8) bool {
	// Any shift in [1, 61] yields a power of two by construction; the
	// format never stores a shift of 0 (that would make the WBFS sector
	// size equal to 1, failing the "strictly larger than host sector"
	// invariant anyway) or anything absurd enough to overflow int64.
	return shift > 0 && shift < 62
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

// readFull reads exactly len(buf) bytes from src at off, translating short
// reads and native errors into the package's error taxonomy.
func readFull(src Source, off int64, buf []byte) error {
	n, err := src.ReadAt(buf, off)
	if err != nil && n < len(buf) {
		if isEOF(err) {
			return newErrorf(KindTruncated, "short read at offset %d: got %d of %d bytes", off, n, len(buf))
		}
		return wrapIoError(err)
	}
	return nil
}
