package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/adamsih300u/bastion/core"
)

// Key prefixes for different data types
const (
	documentRecordPrefix = "docrec"
	documentStatusPrefix = "docstat"
)

// makeDocumentKey generates a key for a document record by ID.
func makeDocumentKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", documentRecordPrefix, id))
}

// makeDocumentStatusKey generates a composite key for the status index.
// Format: prefix:status:id
func makeDocumentStatusKey(status core.JobStatus, id string) []byte {
	prefix := documentStatusPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 + 1 + len(id) // 8 bytes for status + separator
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort groups by status
	binary.BigEndian.PutUint64(buf[offset:], uint64(status))
	offset += 8
	buf[offset] = ':'
	offset++
	copy(buf[offset:], []byte(id))
	return buf
}

// makePartialDocumentStatusKey generates a partial key for status scans.
// Format: prefix:status:
func makePartialDocumentStatusKey(status core.JobStatus) []byte {
	prefix := documentStatusPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 + 1
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort groups by status
	binary.BigEndian.PutUint64(buf[offset:], uint64(status))
	offset += 8
	buf[offset] = ':'
	return buf
}
