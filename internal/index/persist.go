package index

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/codexankiiit31/career-retrieval/internal/corpus"
)

// Blob layout: 4-byte magic, 2-byte big-endian format version, then a
// gob-encoded payload. The version tag is mandatory so future layout
// changes reject or migrate old blobs instead of silently misreading them.
var blobMagic = [4]byte{'C', 'R', 'V', 'X'}

// FormatVersion is the current persisted-index layout version.
const FormatVersion uint16 = 1

type payload struct {
	Dimension int
	Chunks    []corpus.Chunk
}

// Persist serializes the index (vectors plus chunk metadata) to w.
func (ix *Index) Persist(w io.Writer) error {
	if _, err := w.Write(blobMagic[:]); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, FormatVersion); err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	if err := gob.NewEncoder(w).Encode(payload{Dimension: ix.dim, Chunks: ix.chunks}); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return nil
}

// Load reads an index persisted with Persist. A truncated or unreadable
// blob fails with ErrIndexCorrupt, as does an unknown format version.
// If wantDim is nonzero and the blob's dimensionality differs, Load fails
// with ErrDimensionMismatch; the caller's policy is to rebuild from
// source documents rather than serve a partially loaded index.
func Load(r io.Reader, wantDim int) (*Index, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read magic: %w: %v", corpus.ErrIndexCorrupt, err)
	}
	if !bytes.Equal(magic[:], blobMagic[:]) {
		return nil, fmt.Errorf("bad magic %q: %w", magic, corpus.ErrIndexCorrupt)
	}

	var version uint16
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("read version: %w: %v", corpus.ErrIndexCorrupt, err)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("unsupported format version %d: %w", version, corpus.ErrIndexCorrupt)
	}

	var p payload
	if err := gob.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode index: %w: %v", corpus.ErrIndexCorrupt, err)
	}

	if wantDim != 0 && p.Dimension != wantDim {
		return nil, fmt.Errorf("blob has %d dimensions, want %d: %w",
			p.Dimension, wantDim, corpus.ErrDimensionMismatch)
	}
	for i := range p.Chunks {
		if len(p.Chunks[i].Vector) != p.Dimension {
			return nil, fmt.Errorf("chunk %s vector length %d, header says %d: %w",
				p.Chunks[i].ID, len(p.Chunks[i].Vector), p.Dimension, corpus.ErrIndexCorrupt)
		}
	}

	return &Index{dim: p.Dimension, chunks: p.Chunks}, nil
}
