// Package cachecodec is a length-prefixed, schema-tagged binary format for
// cache buffers: encoding/gob as the payload codec, with a magic-prefix
// header and atomic-rename save framing layered on top.
package cachecodec

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"svfrontend/internal/model"
	"time"
)

// magicSize is the width, in bytes, of the identifier magic every cache
// buffer begins with.
const magicSize = 4

// Open reads path if present and syntactically a recognized buffer (magic
// matches expectedMagic). On any I/O or framing error, or a magic mismatch,
// it returns (nil, false) rather than an error.
func Open(path string, expectedMagic uint32) ([]byte, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	if len(raw) < magicSize {
		return nil, false
	}

	magic := binary.BigEndian.Uint32(raw[:magicSize])
	if magic != expectedMagic {
		return nil, false
	}

	return raw[magicSize:], true
}

// Save writes a cache buffer atomically: it writes to a temporary sibling
// file and renames it over path, so a concurrent reader never observes a
// partial file.
func Save(path string, magic uint32, payload []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cachecodec: creating cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("cachecodec: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	var magicBuf [magicSize]byte
	binary.BigEndian.PutUint32(magicBuf[:], magic)

	if _, err := tmp.Write(magicBuf[:]); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("cachecodec: writing magic: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("cachecodec: writing payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cachecodec: closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cachecodec: renaming into place: %w", err)
	}

	return nil
}

// EncodeGob gob-encodes a cache record payload. Exported so ppcache/
// parsecache can round-trip PPCacheRecord/ParseCacheRecord without this
// package needing to know their shape.
func EncodeGob(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("cachecodec: gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeGob decodes a cache record payload produced by EncodeGob.
func DecodeGob(payload []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(v); err != nil {
		return fmt.Errorf("cachecodec: gob decode: %w", err)
	}
	return nil
}

// CreateHeader builds a cache header for a freshly computed cache record,
// attaching origin's current mtime if it can be stat'd.
func CreateHeader(schemaVersion, originPath, buildIdentifier string) model.CacheHeader {
	h := model.CacheHeader{
		SchemaVersion:   schemaVersion,
		SourceFilePath:  originPath,
		BuildIdentifier: buildIdentifier,
	}

	if info, err := os.Stat(originPath); err == nil {
		h.SourceFileMtimeUnix = info.ModTime().UnixNano()
	}

	return h
}

// CheckHeader returns true iff header.SchemaVersion == expectedVersion AND
// the origin file's mtime is not newer than the cache file's mtime.
func CheckHeader(header model.CacheHeader, expectedVersion, cachePath string) bool {
	if header.SchemaVersion != expectedVersion {
		return false
	}

	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false
	}

	if header.SourceFileMtimeUnix == 0 {
		// Origin mtime could not be determined when the header was
		// created; treat as "not newer" rather than failing the check.
		return true
	}

	originMtime := time.Unix(0, header.SourceFileMtimeUnix)
	return !originMtime.After(cacheInfo.ModTime())
}
