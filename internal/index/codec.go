package index

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// FormatVersion is the current serialisation format version.
// Version 2 added the chunking settings to the header.
const FormatVersion uint16 = 2

var magic = [4]byte{'P', 'Q', 'I', 'X'}

const (
	maxShortString = math.MaxUint16
	checksumSize   = 4
)

// MarshalBinary serialises the index in the versioned PQIX format.
func (x *Index) MarshalBinary() ([]byte, error) {
	if len(x.model) > maxShortString {
		return nil, fmt.Errorf("%w: model name too long", domain.ErrInvalidInput)
	}

	size := len(magic) + 2 + 2 + len(x.model) + 4 + 4 + 4 + 4 + checksumSize
	for _, c := range x.chunks {
		size += 2 + len(c.Metadata.Source) + 4 + 4 + 4 + len(c.Content) + 4*x.dimension
	}

	buf := make([]byte, 0, size)
	buf = append(buf, magic[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, FormatVersion)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(x.model)))
	buf = append(buf, x.model...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(x.chunking.Size))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(x.chunking.Overlap))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(x.dimension))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(x.chunks)))

	for i, c := range x.chunks {
		if len(c.Metadata.Source) > maxShortString {
			return nil, fmt.Errorf("%w: source name of chunk %d too long", domain.ErrInvalidInput, i)
		}
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(c.Metadata.Source)))
		buf = append(buf, c.Metadata.Source...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(c.Metadata.Page))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(c.Position))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(c.Content)))
		buf = append(buf, c.Content...)
		for _, f := range x.vectors[i] {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
	}

	return binary.LittleEndian.AppendUint32(buf, crc32.ChecksumIEEE(buf)), nil
}

// Unmarshal decodes an index written by MarshalBinary.
// Any structural problem is reported as domain.ErrCorruptIndex.
func Unmarshal(data []byte) (*Index, error) {
	if len(data) < len(magic)+2+checksumSize {
		return nil, fmt.Errorf("%w: %d bytes is too short", domain.ErrCorruptIndex, len(data))
	}

	body := data[:len(data)-checksumSize]
	want := binary.LittleEndian.Uint32(data[len(data)-checksumSize:])
	if got := crc32.ChecksumIEEE(body); got != want {
		return nil, fmt.Errorf("%w: checksum mismatch", domain.ErrCorruptIndex)
	}

	r := &reader{data: body}
	var head [4]byte
	copy(head[:], r.bytes(len(magic)))
	if head != magic {
		return nil, fmt.Errorf("%w: bad magic", domain.ErrCorruptIndex)
	}
	if version := r.uint16(); version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", domain.ErrCorruptIndex, version)
	}

	model := string(r.bytes(int(r.uint16())))
	chunking := domain.ChunkingSettings{Size: int(r.uint32()), Overlap: int(r.uint32())}
	dimension := int(r.uint32())
	count := int(r.uint32())
	if r.err != nil {
		return nil, r.err
	}
	if dimension == 0 || count == 0 {
		return nil, fmt.Errorf("%w: empty index header", domain.ErrCorruptIndex)
	}
	// Every chunk needs at least its fixed fields and vector.
	if count > r.remaining()/(14+4*dimension) {
		return nil, fmt.Errorf("%w: chunk count %d exceeds payload", domain.ErrCorruptIndex, count)
	}

	chunks := make([]domain.Chunk, count)
	vectors := make([][]float32, count)
	for i := 0; i < count; i++ {
		source := string(r.bytes(int(r.uint16())))
		page := int(r.uint32())
		position := int(r.uint32())
		content := string(r.bytes(int(r.uint32())))
		vec := make([]float32, dimension)
		for j := range vec {
			vec[j] = math.Float32frombits(r.uint32())
		}
		if r.err != nil {
			return nil, r.err
		}
		chunks[i] = domain.Chunk{
			Content:  content,
			Metadata: domain.ChunkMetadata{Source: source, Page: page},
			Position: position,
		}
		if !finite(vec) {
			return nil, fmt.Errorf("%w: embedding %d has a NaN or infinite component", domain.ErrCorruptIndex, i)
		}
		vectors[i] = vec
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", domain.ErrCorruptIndex, r.remaining())
	}

	return &Index{
		model:     model,
		chunking:  chunking,
		dimension: dimension,
		vectors:   vectors,
		chunks:    chunks,
	}, nil
}

// reader is a bounds-checked cursor. The first short read sets err and
// all later reads return zero values.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.remaining() {
		r.err = fmt.Errorf("%w: unexpected end of data at offset %d", domain.ErrCorruptIndex, r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) uint16() uint16 {
	b := r.bytes(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) uint32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}
