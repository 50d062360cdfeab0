package cart

import "testing"

func TestParseHeader_Fields(t *testing.T) {
	rom := makeROM(32*1024, 0x01)
	rom[0x0148] = 0x01 // 64 KiB, 4 banks
	rom[0x0149] = 0x02 // 8 KiB RAM
	rom[0x014C] = 0x02
	fixChecksum(rom)

	h, err := ParseHeader(rom)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.Title != "TESTCART" {
		t.Errorf("Title got %q want %q", h.Title, "TESTCART")
	}
	if h.CartType != 0x01 || h.CartTypeStr != "MBC1 (variants)" {
		t.Errorf("cart type got %#02x %q", h.CartType, h.CartTypeStr)
	}
	if h.ROMSizeBytes != 64*1024 || h.ROMBanks != 4 {
		t.Errorf("ROM size got %d bytes / %d banks", h.ROMSizeBytes, h.ROMBanks)
	}
	if h.RAMSizeBytes != 8*1024 {
		t.Errorf("RAM size got %d", h.RAMSizeBytes)
	}
	if h.ROMVersion != 0x02 {
		t.Errorf("ROM version got %d", h.ROMVersion)
	}
}

func TestParseHeader_TooSmall(t *testing.T) {
	if _, err := ParseHeader(make([]byte, 0x100)); err == nil {
		t.Fatal("expected error for ROM smaller than the header")
	}
}

func TestDecodeROMSize(t *testing.T) {
	cases := []struct {
		code  byte
		size  int
		banks int
	}{
		{0x00, 32 * 1024, 2},
		{0x04, 512 * 1024, 32},
		{0x08, 8 * 1024 * 1024, 512},
		{0x52, 0, 0},
	}
	for _, tc := range cases {
		size, banks := decodeROMSize(tc.code)
		if size != tc.size || banks != tc.banks {
			t.Errorf("code %#02x: got %d/%d want %d/%d", tc.code, size, banks, tc.size, tc.banks)
		}
	}
}
