package backup

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

// gzSuffix marks a compacted backup payload. The sidecar ".meta" file
// stays uncompressed and is renamed to follow the ".gz" payload, so
// readRecord keeps working without knowing whether the payload behind it
// is gzipped.
const gzSuffix = ".gz"

// CompactOlderThan gzip-compresses every backup of originalPath in dir
// whose timestamp is older than age and that is not already
// compacted, returning the number of files compacted. Compaction
// never touches the newest backup, so Latest always has an
// uncompressed, immediately restorable file available.
func CompactOlderThan(dir, originalPath string, age time.Duration) (int, error) {
	backups, err := ForOriginal(dir, originalPath)
	if err != nil {
		return 0, err
	}
	if len(backups) == 0 {
		return 0, nil
	}

	cutoff := time.Now().Add(-age)
	compacted := 0
	for i, r := range backups {
		if i == 0 {
			continue // keep the newest backup uncompressed
		}
		if r.Timestamp.After(cutoff) {
			continue
		}
		if strings.HasSuffix(r.BackupPath, gzSuffix) {
			continue
		}
		if err := compressFile(r.BackupPath); err != nil {
			return compacted, err
		}
		compacted++
	}
	return compacted, nil
}

func compressFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	gzPath := path + gzSuffix
	out, err := os.Create(gzPath)
	if err != nil {
		return err
	}
	defer out.Close()

	w := gzip.NewWriter(out)
	if _, err := io.Copy(w, in); err != nil {
		w.Close()
		os.Remove(gzPath)
		return err
	}
	if err := w.Close(); err != nil {
		os.Remove(gzPath)
		return err
	}
	if err := out.Sync(); err != nil {
		return err
	}

	in.Close()
	if err := os.Remove(path); err != nil {
		return err
	}

	// Carry the sidecar along so readRecord keeps finding it at
	// metaPath(newBackupPath).
	oldMeta, newMeta := metaPath(path), metaPath(gzPath)
	if data, err := os.ReadFile(oldMeta); err == nil {
		if err := os.WriteFile(newMeta, data, 0o644); err != nil {
			return err
		}
		os.Remove(oldMeta)
	}
	return nil
}

// decompressToReader transparently opens a possibly-compacted backup
// payload for restore, decompressing on the fly when path carries the
// gzSuffix marker.
func decompressToReader(path string) (io.ReadCloser, error) {
	if !strings.HasSuffix(path, gzSuffix) {
		return os.Open(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &gzipReadCloser{gz: gz, f: f}, nil
}

type gzipReadCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipReadCloser) Close() error {
	g.gz.Close()
	return g.f.Close()
}
