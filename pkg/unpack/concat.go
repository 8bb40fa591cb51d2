package unpack

import (
	"io"
)

type Part struct {
	Reader io.ReaderAt
	Offset int64 // Start offset in the underlying reader
	Size   int64 // Size of this part
}

// ConcatenatedReaderAt presents consecutive parts (split archive volumes) as
// one contiguous io.ReaderAt.
type ConcatenatedReaderAt struct {
	parts []Part
	total int64
}

func NewConcatenatedReaderAt(parts []Part) *ConcatenatedReaderAt {
	var total int64
	for _, p := range parts {
		total += p.Size
	}
	return &ConcatenatedReaderAt{
		parts: parts,
		total: total,
	}
}

func (c *ConcatenatedReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, io.ErrUnexpectedEOF
	}
	if off >= c.total {
		return 0, io.EOF
	}

	// Find starting part
	partIdx := 0
	partOff := off
	for partIdx < len(c.parts) && partOff >= c.parts[partIdx].Size {
		partOff -= c.parts[partIdx].Size
		partIdx++
	}

	totalRead := 0
	for partIdx < len(c.parts) && totalRead < len(p) {
		part := c.parts[partIdx]

		toRead := int64(len(p) - totalRead)
		if available := part.Size - partOff; toRead > available {
			toRead = available
		}

		n, err := part.Reader.ReadAt(p[totalRead:totalRead+int(toRead)], part.Offset+partOff)
		totalRead += n
		if int64(n) < toRead {
			// a short part would shift every later byte
			if err == nil || err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return totalRead, err
		}

		partIdx++
		partOff = 0
	}

	if totalRead < len(p) {
		return totalRead, io.EOF
	}
	return totalRead, nil
}

func (c *ConcatenatedReaderAt) Size() int64 {
	return c.total
}
