// Package key implements the FIPS-197 AES key schedule: expanding a user
// key into the sequence of round keys consumed by AES encryption/decryption
// rounds. It does not implement the rounds themselves (SubBytes, ShiftRows,
// MixColumns, AddRoundKey) — those, and the block cipher built from them,
// are external collaborators (see crypto/aes and crypto/cipher for that).
package key

import "fmt"

// RoundKeyBytes is the size in bytes of a single AES round key.
const RoundKeyBytes = 16

// Schedule is an expanded AES key: Nr+1 round keys of 16 bytes each,
// generated deterministically from a user key per FIPS-197.
type Schedule struct {
	// Rounds is the number of AES encryption/decryption rounds (10, 12,
	// or 14 for a 128/192/256-bit key).
	Rounds int
	// RoundKeys holds Rounds+1 entries of 16 bytes each. RoundKeys[0] is
	// the first 16 bytes of the user key (the whole key for AES-128).
	RoundKeys [][]byte
}

// nkNr maps a key length in bytes to (Nk words, Nr rounds).
var nkNr = map[int][2]int{
	16: {4, 10},
	24: {6, 12},
	32: {8, 14},
}

// BadKeyLengthError reports a key whose length is not 16, 24, or 32 bytes.
type BadKeyLengthError struct {
	Got int
}

func (e *BadKeyLengthError) Error() string {
	return fmt.Sprintf("key: bad key length %d, want 16, 24, or 32", e.Got)
}

// Expand computes the AES round-key schedule for userKey per FIPS-197
// section 5.2. The number of round keys produced is always Nr+1 (11, 13,
// or 15): the source this package is modeled on contains a sibling
// implementation that stops one short, at Nr keys, which is a bug — this
// one does not reproduce it.
func Expand(userKey []byte) (*Schedule, error) {
	params, ok := nkNr[len(userKey)]
	if !ok {
		return nil, &BadKeyLengthError{Got: len(userKey)}
	}
	nk, nr := params[0], params[1]

	totalWords := 4 * (nr + 1)
	w := make([][4]byte, totalWords)

	for i := 0; i < nk; i++ {
		copy(w[i][:], userKey[4*i:4*i+4])
	}

	for i := nk; i < totalWords; i++ {
		tmp := w[i-1]

		switch {
		case i%nk == 0:
			tmp = xorWord(subWord(rotWord(tmp)), rcon(i/nk))
		case nk > 6 && i%nk == 4:
			tmp = subWord(tmp)
		}

		w[i] = xorWord(w[i-nk], tmp)
	}

	s := &Schedule{
		Rounds:    nr,
		RoundKeys: make([][]byte, nr+1),
	}
	for r := 0; r <= nr; r++ {
		rk := make([]byte, RoundKeyBytes)
		for c := 0; c < 4; c++ {
			copy(rk[4*c:4*c+4], w[4*r+c][:])
		}
		s.RoundKeys[r] = rk
	}

	return s, nil
}
