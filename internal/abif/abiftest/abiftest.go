// Package abiftest builds small valid ABIF files for tests.
package abiftest

import (
	"bytes"
	"encoding/binary"
	"os"
)

// Bytes returns a minimal ABIF file holding a PBAS2 base-call entry.
func Bytes(bases string) []byte {
	var b bytes.Buffer
	payload := []byte(bases)
	dataOffset := int32(34)
	dirOffset := dataOffset + int32(len(payload))

	b.WriteString("ABIF")
	_ = binary.Write(&b, binary.BigEndian, uint16(101))
	writeEntry(&b, "tdir", 1, 1023, 28, 1, 28, dirOffset)
	b.Write(payload)
	writeEntry(&b, "PBAS", 2, 2, 1, int32(len(payload)), int32(len(payload)), dataOffset)
	return b.Bytes()
}

// TB is the subset of testing.TB used here; Ginkgo's GinkgoT satisfies it.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// Write stores a minimal ABIF file at path.
func Write(t TB, path string) {
	t.Helper()
	if err := os.WriteFile(path, Bytes("ACGTACGTNN"), 0o644); err != nil {
		t.Fatalf("write abif fixture: %v", err)
	}
}

func writeEntry(b *bytes.Buffer, name string, number int32, typ, size int16, n, dataSize, offset int32) {
	b.WriteString(name)
	_ = binary.Write(b, binary.BigEndian, number)
	_ = binary.Write(b, binary.BigEndian, typ)
	_ = binary.Write(b, binary.BigEndian, size)
	_ = binary.Write(b, binary.BigEndian, n)
	_ = binary.Write(b, binary.BigEndian, dataSize)
	_ = binary.Write(b, binary.BigEndian, offset)
	_ = binary.Write(b, binary.BigEndian, int32(0))
}
