package wbfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadPartitionInfoAndTable(t *testing.T) {
	buf := buildImage(t)

	S := int64(1) << testWbfsSectorShift
	// Logical offset 0x40000 maps to physical block 3 (table[0] = 3).
	physBase := 3*S + partitionInfoOffset

	tableByteOffset := int64(0x10000)
	tableRawOffset := uint32(tableByteOffset >> 2)

	// Partition group 0: one partition, table at 0x10000.
	putBEUint32(buf[physBase+0:physBase+4], 1)
	putBEUint32(buf[physBase+4:physBase+8], tableRawOffset)
	// Groups 1-3: empty.
	for i := int64(1); i < 4; i++ {
		putBEUint32(buf[physBase+i*8:physBase+i*8+4], 0)
		putBEUint32(buf[physBase+i*8+4:physBase+i*8+8], 0)
	}

	// Partition-table entry at logical 0x10000 (same physical block 3).
	entryPhys := 3*S + tableByteOffset
	partByteOffset := int64(0x20000)
	partRawOffset := uint32(partByteOffset >> 2)
	putBEUint32(buf[entryPhys+0:entryPhys+4], partRawOffset)
	putBEUint32(buf[entryPhys+4:entryPhys+8], uint32(PartitionData))

	c, err := Open(memSource(buf))
	require.NoError(t, err)
	d, err := OpenDisc(c, 0)
	require.NoError(t, err)

	groups, err := ReadPartitionInfo(d)
	require.NoError(t, err)

	require.Equal(t, uint32(1), groups[0].Count)
	require.Equal(t, ByteOffset(tableByteOffset), groups[0].TableOffset)
	for i := 1; i < 4; i++ {
		require.Equal(t, uint32(0), groups[i].Count)
	}

	entries, err := ReadPartitionTable(d, groups[0])
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, ByteOffset(partByteOffset), entries[0].Offset)
	require.Equal(t, PartitionData, entries[0].Type)
}

func TestTitleKeyOffsets(t *testing.T) {
	partOffset := ByteOffset(0x20000)
	require.Equal(t, partOffset+0x1BF, TitleKeyCiphertextOffset(partOffset))
	require.Equal(t, partOffset+0x1DC, TitleIDOffset(partOffset))
}
