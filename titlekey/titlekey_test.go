package titlekey_test

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"testing"

	"github.com/stretchr/testify/require"

	wbfs "github.com/illya-lockhart/wbfs-helper"
	"github.com/illya-lockhart/wbfs-helper/titlekey"
)

type memSource []byte

func (m memSource) Size() int64 { return int64(len(m)) }

func (m memSource) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, m[off:])
	return n, nil
}

const (
	hdSectorShift   = 9
	wbfsSectorShift = 21
)

// buildImageWithTitleKey constructs a one-disc WBFS image whose partition
// at partitionOffset carries an AES-CBC-encrypted title key, recoverable
// with commonKey and the embedded title ID, per spec.md §4.E / §6.
func buildImageWithTitleKey(t *testing.T, commonKey, plainKey, titleID []byte, partitionOffset int64) []byte {
	t.Helper()

	S := int64(1) << wbfsSectorShift
	size := 2 * S
	buf := make([]byte, size)

	copy(buf[0:4], "WBFS")
	buf[8] = hdSectorShift
	buf[9] = wbfsSectorShift
	buf[10] = 0
	buf[11] = 0
	buf[12] = 1 // occupy slot 0

	// Disc 0's indirection table: logical block 0 -> physical block 1.
	tableOff := int64(0x100)
	putBE16 := func(off int64, v uint16) {
		buf[off] = byte(v >> 8)
		buf[off+1] = byte(v)
	}
	putBE16(tableOff, 1)

	physBase := S // physical block 1

	block, err := aes.NewCipher(commonKey)
	require.NoError(t, err)

	iv := make([]byte, block.BlockSize())
	copy(iv, titleID)

	ciphertext := make([]byte, len(plainKey))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, plainKey)

	copy(buf[physBase+partitionOffset+0x1BF:], ciphertext)
	copy(buf[physBase+partitionOffset+0x1DC:], titleID)

	return buf
}

func TestDecrypt(t *testing.T) {
	commonKey := bytes.Repeat([]byte{0x42}, 16)
	plainKey := bytes.Repeat([]byte{0x24}, 16)
	titleID := []byte{0, 0, 0, 1, 0, 0, 0, 2}
	partitionOffset := int64(0x20000)

	buf := buildImageWithTitleKey(t, commonKey, plainKey, titleID, partitionOffset)

	c, err := wbfs.Open(memSource(buf))
	require.NoError(t, err)
	d, err := wbfs.OpenDisc(c, 0)
	require.NoError(t, err)

	got, err := titlekey.Decrypt(d, wbfs.ByteOffset(partitionOffset), commonKey)
	require.NoError(t, err)
	require.Equal(t, plainKey, got)
}
