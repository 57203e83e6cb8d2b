package dat

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMinimalDAT(t *testing.T, path string) {
	t.Helper()
	var buf []byte
	buf = putU32(buf, 0x5170E904) // 9.86 signature
	buf = putU16(buf, 0)          // item count
	buf = putU16(buf, 0)          // outfit count
	buf = putU16(buf, 0)          // effect count
	buf = putU16(buf, 0)          // missile count
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write dat: %v", err)
	}
}

func writeMinimalSPR(t *testing.T, path string) {
	t.Helper()
	var buf []byte
	buf = putU32(buf, 0x4C220594) // 8.60 signature
	buf = putU16(buf, 0)          // sprite_count (16-bit for 8.6x)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write spr: %v", err)
	}
}

func TestOnlyOneSessionActiveAtATime(t *testing.T) {
	dir := t.TempDir()
	datPath := filepath.Join(dir, "Tibia.dat")
	sprPath := filepath.Join(dir, "Tibia.spr")
	writeMinimalDAT(t, datPath)
	writeMinimalSPR(t, sprPath)

	s1, err := OpenSession(datPath, sprPath)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}

	if _, err := OpenSession(datPath, sprPath); err == nil {
		t.Fatal("expected second concurrent session to be rejected")
	}

	if err := s1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := OpenSession(datPath, sprPath)
	if err != nil {
		t.Fatalf("OpenSession after close: %v", err)
	}
	defer s2.Close()
}
