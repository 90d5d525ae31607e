package corpus

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// FileFormat represents the on-disk formats a corpus can be stored in.
type FileFormat int

const (
	FormatUnknown  FileFormat = iota
	FormatSQLite              // SQLite database with the n-gram tables
	FormatSnapshot            // msgpack snapshot
)

// FormatInfo contains metadata about a corpus file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Magic       []byte
	MinSize     int64
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatSQLite: {
		Format:      FormatSQLite,
		Description: "SQLite n-gram database",
		Magic:       []byte("SQLite format 3\x00"),
		MinSize:     512, // smallest page size
	},
	FormatSnapshot: {
		Format:      FormatSnapshot,
		Description: "msgpack corpus snapshot",
		Magic:       []byte(snapshotMagic),
		MinSize:     int64(len(snapshotMagic)) + 2, // magic, version, empty map
	},
}

func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return "unknown"
}

// DetectFileFormat reads the file header at path and reports its format.
func DetectFileFormat(path string) (FileFormat, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("%w: %v", ErrStoreConfig, err)
	}
	defer f.Close()

	head := make([]byte, 16)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return FormatUnknown, fmt.Errorf("%w: read header of %s: %v", ErrStoreConfig, path, err)
	}
	head = head[:n]

	for format, info := range supportedFormats {
		if bytes.HasPrefix(head, info.Magic) {
			if err := ValidateFileFormat(path, format); err != nil {
				return FormatUnknown, err
			}
			log.Debugf("Detected %s at %s", info.Description, path)
			return format, nil
		}
	}
	return FormatUnknown, fmt.Errorf("%w: unable to detect format of %s", ErrStoreConfig, path)
}

// ValidateFileFormat checks that the file at path is large enough to hold
// the expected format.
func ValidateFileFormat(path string, expected FileFormat) error {
	info, ok := supportedFormats[expected]
	if !ok {
		return fmt.Errorf("%w: unknown format %d", ErrStoreConfig, expected)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreConfig, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrStoreConfig, path)
	}
	if fi.Size() < info.MinSize {
		return fmt.Errorf("%w: %s is too small (%d bytes) for %s (minimum: %d bytes)",
			ErrStoreConfig, path, fi.Size(), info.Description, info.MinSize)
	}
	return nil
}
