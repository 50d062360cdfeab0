package cart

import (
	"errors"
	"strings"
)

const (
	headerEnd = 0x014F

	// checksummed header span and the byte it is compared against
	checksumStart = 0x0134
	checksumEnd   = 0x014C
	checksumAddr  = 0x014D
)

// Header holds the cartridge header fields the core consumes, plus a
// few decoded helpers for log lines.
type Header struct {
	Title          string // 0x0134–0x0143, trimmed ASCII
	CartType       byte   // 0x0147
	ROMSizeCode    byte   // 0x0148
	RAMSizeCode    byte   // 0x0149
	ROMVersion     byte   // 0x014C
	HeaderChecksum byte   // 0x014D

	ROMSizeBytes int
	ROMBanks     int
	RAMSizeBytes int
	CartTypeStr  string
}

// ParseHeader decodes the header region of a ROM image. It does not
// validate the checksum; see ChecksumOK.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < headerEnd+1 {
		return nil, errors.New("ROM too small to contain header")
	}

	h := &Header{
		Title:          strings.TrimRight(string(rom[0x0134:0x0144]), "\x00"),
		CartType:       rom[0x0147],
		ROMSizeCode:    rom[0x0148],
		RAMSizeCode:    rom[0x0149],
		ROMVersion:     rom[0x014C],
		HeaderChecksum: rom[checksumAddr],
	}
	h.ROMSizeBytes, h.ROMBanks = decodeROMSize(h.ROMSizeCode)
	h.RAMSizeBytes = decodeRAMSize(h.RAMSizeCode)
	h.CartTypeStr = cartTypeString(h.CartType)
	return h, nil
}

// ChecksumOK verifies the header checksum: the byte at 0x014D must
// equal the running 0 - b - 1 sum over 0x0134..0x014C.
func ChecksumOK(rom []byte) bool {
	if len(rom) < checksumAddr+1 {
		return false
	}
	var sum byte
	for addr := checksumStart; addr <= checksumEnd; addr++ {
		sum = sum - rom[addr] - 1
	}
	return sum == rom[checksumAddr]
}

func decodeROMSize(code byte) (size, banks int) {
	if code <= 0x08 {
		return 32 * 1024 << code, 2 << code
	}
	// 0x52..0x54 oddballs exist in the wild but not on supported MBCs
	return 0, 0
}

func decodeRAMSize(code byte) int {
	switch code {
	case 0x02:
		return 8 * 1024
	case 0x03:
		return 32 * 1024
	case 0x04:
		return 128 * 1024
	case 0x05:
		return 64 * 1024
	default:
		return 0
	}
}

func cartTypeString(code byte) string {
	switch code {
	case 0x00:
		return "ROM ONLY"
	case 0x01, 0x02, 0x03:
		return "MBC1 (variants)"
	case 0x05, 0x06:
		return "MBC2 (variants)"
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		return "MBC3 (variants)"
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		return "MBC5 (variants)"
	default:
		return "Other/unknown"
	}
}
