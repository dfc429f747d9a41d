// Package titlekey is a downstream consumer of the offsets spec.md §4.E
// documents but does not itself read: given a disc and a partition's byte
// offset, it recovers the decrypted 16-byte title key. It is explicitly
// outside the core (see SPEC_FULL.md's DOMAIN STACK section) — the block
// cipher rounds it needs come from crypto/aes and crypto/cipher, not from
// this module's own FIPS-197 key schedule, which only expands round keys
// and never performs SubBytes/ShiftRows/MixColumns/AddRoundKey itself.
package titlekey

import (
	"crypto/aes"
	"crypto/cipher"
	"io"

	"github.com/bodgit/plumbing"
	"github.com/connesc/cipherio"

	wbfs "github.com/illya-lockhart/wbfs-helper"
)

const (
	keySize   = 16
	titleIDSz = 8
)

// discReaderAt adapts Disc.ReadAt's out-parameter signature to the
// io.ReaderAt shape cipherio's SectionReader-based pipeline expects.
type discReaderAt struct {
	disc *wbfs.Disc
}

func (r discReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if err := r.disc.ReadAt(off, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Decrypt recovers the decrypted title key for the partition at
// partitionOffset, using commonKey (16 bytes) as the AES-CBC decryption
// key and the partition's title ID (padded with zero bytes) as the IV, per
// the offsets documented in spec.md §4.E / §6.
func Decrypt(disc *wbfs.Disc, partitionOffset wbfs.ByteOffset, commonKey []byte) ([]byte, error) {
	block, err := aes.NewCipher(commonKey)
	if err != nil {
		return nil, err
	}

	idBuf := make([]byte, titleIDSz)
	if err := disc.ReadAt(int64(wbfs.TitleIDOffset(partitionOffset)), idBuf); err != nil {
		return nil, err
	}

	iv := make([]byte, block.BlockSize())
	copy(iv, idBuf)

	ra := discReaderAt{disc: disc}
	sr := io.NewSectionReader(ra, int64(wbfs.TitleKeyCiphertextOffset(partitionOffset)), int64(block.BlockSize()))

	cbc := cipherio.NewBlockReader(sr, cipher.NewCBCDecrypter(block, iv))
	lr := plumbing.LimitReader(cbc, keySize)

	key := make([]byte, keySize)
	if _, err := io.ReadFull(lr, key); err != nil {
		return nil, err
	}

	return key, nil
}
