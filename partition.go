package wbfs

const (
	partitionInfoOffset = 0x40000
	partitionGroupCount = 4

	// titleKeyOffset and titleIDOffset are documented here for
	// interoperability with the decryption pipeline (see the titlekey
	// package) but are not themselves read by this package.
	titleKeyOffset = 0x1BF
	titleIDOffset  = 0x1DC
	titleKeySize   = 16
	titleIDSize    = 8
)

// ByteOffset is a disc-local byte offset that has already been shifted out
// of the Wii format's 4-byte-granular on-disk representation. Keeping it a
// distinct type from a raw stored value makes it impossible to
// accidentally pass an un-shifted table offset to ReadAt.
type ByteOffset int64

// PartitionGroup is one of the four (partition_count, table_offset) pairs
// stored at disc offset 0x40000.
type PartitionGroup struct {
	Count       uint32
	TableOffset ByteOffset
}

// PartitionType enumerates the known Wii partition type tags. Unknown
// values are preserved as-is; they are not an error.
type PartitionType uint32

const (
	PartitionData    PartitionType = 0
	PartitionUpdate  PartitionType = 1
	PartitionChannel PartitionType = 2
)

// PartitionEntry is one partition-table entry: its byte offset on the disc
// and its type tag.
type PartitionEntry struct {
	Offset ByteOffset
	Type   PartitionType
}

// ReadPartitionInfo reads the four partition-group descriptors at disc
// offset 0x40000. All four are returned even when a group's Count is 0;
// callers decide which groups to enumerate.
func ReadPartitionInfo(d *Disc) ([4]PartitionGroup, error) {
	var groups [4]PartitionGroup

	buf := make([]byte, partitionGroupCount*8)
	if err := d.ReadAt(partitionInfoOffset, buf); err != nil {
		return groups, err
	}

	for i := 0; i < partitionGroupCount; i++ {
		rec := buf[i*8 : i*8+8]
		groups[i] = PartitionGroup{
			Count:       beUint32(rec[0:4]),
			TableOffset: ByteOffset(beUint32(rec[4:8])) << 2,
		}
	}

	return groups, nil
}

// ReadPartitionEntry reads a single partition-table entry at the given
// byte offset (as already shifted in a PartitionGroup.TableOffset, plus
// 8*index for the index'th entry in that group).
func ReadPartitionEntry(d *Disc, entryByteOffset ByteOffset) (PartitionEntry, error) {
	buf := make([]byte, 8)
	if err := d.ReadAt(int64(entryByteOffset), buf); err != nil {
		return PartitionEntry{}, err
	}

	return PartitionEntry{
		Offset: ByteOffset(beUint32(buf[0:4])) << 2,
		Type:   PartitionType(beUint32(buf[4:8])),
	}, nil
}

// ReadPartitionTable reads all Count entries of the given group in one
// call, a convenience wrapper around repeated ReadPartitionEntry calls.
func ReadPartitionTable(d *Disc, group PartitionGroup) ([]PartitionEntry, error) {
	entries := make([]PartitionEntry, group.Count)
	for i := range entries {
		e, err := ReadPartitionEntry(d, group.TableOffset+ByteOffset(i*8))
		if err != nil {
			return nil, err
		}
		entries[i] = e
	}
	return entries, nil
}

// TitleKeyCiphertextOffset returns the disc-local byte offset of the
// 16-byte AES-encrypted title key within the partition starting at
// partitionOffset.
func TitleKeyCiphertextOffset(partitionOffset ByteOffset) ByteOffset {
	return partitionOffset + titleKeyOffset
}

// TitleIDOffset returns the disc-local byte offset of the 8-byte title ID
// used (padded with 8 zero bytes) as the title key's decryption IV.
func TitleIDOffset(partitionOffset ByteOffset) ByteOffset {
	return partitionOffset + titleIDOffset
}
