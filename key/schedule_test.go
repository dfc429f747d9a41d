package key

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex literal: %v", err)
	}
	return b
}

// TestExpandFIPS197Appendix is spec.md property 7: expanding the FIPS-197
// Appendix A.1 key yields the published 176-byte schedule, the first round
// key equal to the input, and 11 round keys for a 128-bit key.
func TestExpandFIPS197Appendix(t *testing.T) {
	userKey := mustHex(t, "2b7e151628aed2a6abf7158809cf4f3c")

	s, err := Expand(userKey)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}

	if s.Rounds != 10 {
		t.Fatalf("Rounds = %d, want 10", s.Rounds)
	}
	if len(s.RoundKeys) != 11 {
		t.Fatalf("len(RoundKeys) = %d, want 11 (Nr+1)", len(s.RoundKeys))
	}
	if !bytes.Equal(s.RoundKeys[0], userKey) {
		t.Fatalf("RoundKeys[0] = %x, want %x", s.RoundKeys[0], userKey)
	}

	// Known-good round keys from FIPS-197 Appendix A.1.
	want := []string{
		"2b7e151628aed2a6abf7158809cf4f3c",
		"a0fafe1788542cb123a339392a6c7605",
		"f2c295f27a96b9435935807a7359f67f",
		"3d80477d4716fe3e1e237e446d7a883b",
		"ef44a541a8525b7fb671253bdb0bad00",
		"d4d1c6f87c839d87caf2b8bc11f915bc",
		"6d88a37a110b3efddbf98641ca0093fd",
		"4e54f70e5f5fc9f384a64fb24ea6dc4f",
		"ead27321b58dbad2312bf5607f8d292f",
		"ac7766f319fadc2128d12941575c006e",
		"d014f9a8c9ee2589e13f0cc8b6630ca6",
	}
	for i, w := range want {
		got := hex.EncodeToString(s.RoundKeys[i])
		if got != w {
			t.Errorf("RoundKeys[%d] = %s, want %s", i, got, w)
		}
	}
}

// TestExpandAllZeros is spec.md scenario S6.
func TestExpandAllZeros(t *testing.T) {
	userKey := make([]byte, 16)

	s, err := Expand(userKey)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}

	if !bytes.Equal(s.RoundKeys[0], userKey) {
		t.Fatalf("first round key should equal the all-zeros input")
	}

	// Rcon[1] = 0x01 is XORed into SubWord(RotWord(0)) = 0x63636363 at
	// word 4 (byte 16 of the schedule, the first byte of round key 1):
	// 0x63 ^ 0x01 = 0x62.
	if s.RoundKeys[1][0] != 0x62 {
		t.Fatalf("RoundKeys[1][0] = %#x, want 0x62", s.RoundKeys[1][0])
	}
}

func TestExpandBadKeyLength(t *testing.T) {
	_, err := Expand(make([]byte, 15))
	if err == nil {
		t.Fatal("expected error for 15-byte key")
	}
	if _, ok := err.(*BadKeyLengthError); !ok {
		t.Fatalf("got %T, want *BadKeyLengthError", err)
	}
}

func TestExpand192And256(t *testing.T) {
	for _, tc := range []struct {
		length int
		rounds int
		nKeys  int
	}{
		{16, 10, 11},
		{24, 12, 13},
		{32, 14, 15},
	} {
		s, err := Expand(make([]byte, tc.length))
		if err != nil {
			t.Fatalf("Expand(%d bytes): %v", tc.length, err)
		}
		if s.Rounds != tc.rounds {
			t.Errorf("length %d: Rounds = %d, want %d", tc.length, s.Rounds, tc.rounds)
		}
		if len(s.RoundKeys) != tc.nKeys {
			t.Errorf("length %d: len(RoundKeys) = %d, want %d", tc.length, len(s.RoundKeys), tc.nKeys)
		}
		for _, rk := range s.RoundKeys {
			if len(rk) != RoundKeyBytes {
				t.Errorf("round key length = %d, want %d", len(rk), RoundKeyBytes)
			}
		}
	}
}

func TestSetCommonKey(t *testing.T) {
	if err := SetCommonKey(make([]byte, 16)); err != nil {
		t.Fatalf("SetCommonKey: %v", err)
	}
	if err := SetCommonKey(make([]byte, 8)); err == nil {
		t.Fatal("expected error for short common key")
	}
}
