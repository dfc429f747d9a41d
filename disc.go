package wbfs

// Disc is one materialized Wii disc view inside a Container: its WBFS
// origin offset and its sector indirection table. ReadAt is the
// virtual-to-physical sector translation engine — the core of this
// package — resolving arbitrary disc-local byte ranges across
// non-contiguous, possibly permuted WBFS blocks.
type Disc struct {
	container *Container
	slot      int
	origin    int64

	table []uint16

	zeroFillHoles bool
	invalid       bool
}

// DiscOption configures OpenDisc.
type DiscOption func(*Disc)

// WithZeroFillHoles causes ReadAt to return zero bytes for any logical
// block whose indirection entry is 0, instead of failing with
// KindSparseHole. Off by default: hitting a hole while reading partition
// data indicates caller error or a damaged image, and silently returning
// zeros would mask that.
func WithZeroFillHoles() DiscOption {
	return func(d *Disc) {
		d.zeroFillHoles = true
	}
}

const discSubHeaderSize = 0x100

// OpenDisc materializes the disc stored in the given occupied slot,
// loading its indirection table.
func OpenDisc(c *Container, slot int, opts ...DiscOption) (*Disc, error) {
	if err := c.checkValid(); err != nil {
		return nil, err
	}

	if slot < 0 || slot >= len(c.occupancy) || c.occupancy[slot] == 0 {
		return nil, newErrorf(KindNoSuchDisc, "slot %d", slot)
	}

	d := &Disc{
		container: c,
		slot:      slot,
		origin:    int64(slot) * c.hdSectorSize,
	}
	for _, opt := range opts {
		opt(d)
	}

	// A short/IO-failing read here means this one disc's indirection table
	// is unusable; it says nothing about the container or any other slot,
	// so only this (never-returned) disc attempt is abandoned, not the
	// container it came from.
	tableBytes := make([]byte, c.wbfsSectorsPerDisc*2)
	if err := readFull(c.src, d.origin+discSubHeaderSize, tableBytes); err != nil {
		return nil, err
	}

	d.table = make([]uint16, c.wbfsSectorsPerDisc)
	for i := range d.table {
		d.table[i] = beUint16(tableBytes[i*2 : i*2+2])
	}

	return d, nil
}

// Slot returns the occupancy-table index this disc was opened from.
func (d *Disc) Slot() int {
	return d.slot
}

// Origin returns the disc's WBFS-internal origin offset, slot*hd_sector_size.
func (d *Disc) Origin() int64 {
	return d.origin
}

// logicalSize is the size in bytes of the disc's logical address space, as
// covered by its indirection table.
func (d *Disc) logicalSize() int64 {
	return int64(len(d.table)) * d.container.wbfsSectorSize
}

func (d *Disc) checkValid() error {
	if d.invalid {
		return newError(KindInvalidHandle, "disc is permanently invalid after a prior failure")
	}
	return d.container.checkValid()
}

func (d *Disc) markInvalid() {
	d.invalid = true
}

// readPlan is one physical transfer needed to satisfy part of a ReadAt
// call: either a hole (no physical backing) or a concrete byte range to
// fetch from the container's backing source. Separating planning from I/O
// lets the translation algorithm be tested and reasoned about without a
// real backing source, per the design notes' guidance to express the
// engine as an iterator over transfer descriptors.
type readPlan struct {
	hole        bool
	physOffset  int64
	length      int64
	writeOffset int64
}

// plan computes the sequence of physical transfers needed to satisfy a
// ReadAt(discOffset, length) call, without performing any I/O.
func (d *Disc) plan(discOffset, length int64) ([]readPlan, error) {
	if discOffset < 0 || length < 0 {
		return nil, newError(KindOutOfRange, "negative offset or length")
	}
	if length == 0 {
		return nil, nil
	}
	if discOffset+length > d.logicalSize() {
		return nil, newErrorf(KindOutOfRange, "range [%d,%d) exceeds logical disc size %d", discOffset, discOffset+length, d.logicalSize())
	}

	S := d.container.wbfsSectorSize

	var plans []readPlan
	cursor := discOffset
	remaining := length
	written := int64(0)

	for remaining > 0 {
		virtSector := cursor / S
		intra := cursor % S

		phys := d.table[virtSector]
		chunk := S - intra
		if chunk > remaining {
			chunk = remaining
		}

		if phys == 0 {
			plans = append(plans, readPlan{hole: true, length: chunk, writeOffset: written})
		} else {
			physByteOffset := int64(phys)*S + intra
			plans = append(plans, readPlan{physOffset: physByteOffset, length: chunk, writeOffset: written})
		}

		cursor += chunk
		remaining -= chunk
		written += chunk
	}

	return plans, nil
}

// ReadAt copies exactly len(out) bytes starting at the logical disc-local
// byte address discOffset into out. Each call rereads from the backing
// source with positional reads; nothing is cached across calls (see the
// Source type for what that does and doesn't make safe).
func (d *Disc) ReadAt(discOffset int64, out []byte) error {
	if err := d.checkValid(); err != nil {
		return err
	}

	plans, err := d.plan(discOffset, int64(len(out)))
	if err != nil {
		// Out-of-range and negative-argument errors are caller bugs,
		// not handle damage: don't poison the disc for them.
		return err
	}

	for _, p := range plans {
		dst := out[p.writeOffset : p.writeOffset+p.length]

		if p.hole {
			if !d.zeroFillHoles {
				return newErrorf(KindSparseHole, "logical offset %d has no physical backing", discOffset+p.writeOffset)
			}
			for i := range dst {
				dst[i] = 0
			}
			continue
		}

		if err := readFull(d.container.src, p.physOffset, dst); err != nil {
			if errKind(err) == KindTruncated || errKind(err) == KindIoFailure {
				d.markInvalid()
			}
			return err
		}
	}

	return nil
}

func errKind(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindIoFailure
}
