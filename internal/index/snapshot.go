package index

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Snapshot layout (little-endian):
//
//	magic     [4]byte  "LFLT"
//	version   uint32
//	dimension uint32
//	count     uint32
//	vectors   count*dimension float32, row-major
var snapshotMagic = [4]byte{'L', 'F', 'L', 'T'}

const snapshotVersion uint32 = 1

// ErrCorruptSnapshot is returned when a snapshot fails validation
// during load (bad magic, unknown version, or truncated payload).
var ErrCorruptSnapshot = errors.New("corrupt index snapshot")

// WriteTo serializes the index. It implements io.WriterTo.
func (f *Flat) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64

	if n, err := bw.Write(snapshotMagic[:]); err != nil {
		return written + int64(n), fmt.Errorf("writing snapshot magic: %w", err)
	}
	written += int64(len(snapshotMagic))

	header := []uint32{snapshotVersion, uint32(f.dimension), uint32(f.count)}
	for _, v := range header {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return written, fmt.Errorf("writing snapshot header: %w", err)
		}
		written += 4
	}

	buf := make([]byte, 4)
	for _, v := range f.vectors {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		if _, err := bw.Write(buf); err != nil {
			return written, fmt.Errorf("writing snapshot vectors: %w", err)
		}
		written += 4
	}

	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("flushing snapshot: %w", err)
	}
	return written, nil
}

// ReadSnapshot deserializes an index written by WriteTo. The snapshot
// is fully validated before a usable index is returned.
func ReadSnapshot(r io.Reader) (*Flat, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: reading magic: %v", ErrCorruptSnapshot, err)
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorruptSnapshot, magic[:])
	}

	var version, dimension, count uint32
	for _, dst := range []*uint32{&version, &dimension, &count} {
		if err := binary.Read(br, binary.LittleEndian, dst); err != nil {
			return nil, fmt.Errorf("%w: reading header: %v", ErrCorruptSnapshot, err)
		}
	}
	if version != snapshotVersion {
		return nil, fmt.Errorf("%w: unknown version %d", ErrCorruptSnapshot, version)
	}
	if dimension == 0 {
		return nil, fmt.Errorf("%w: zero dimension", ErrCorruptSnapshot)
	}

	total := int64(count) * int64(dimension)
	if total > math.MaxInt32 {
		return nil, fmt.Errorf("%w: implausible size %d x %d", ErrCorruptSnapshot, count, dimension)
	}

	// Grow the slice as the payload actually arrives instead of
	// preallocating from the header: a forged count would otherwise
	// demand a huge allocation before truncation is detected.
	vectors := make([]float32, 0, int(min(total, 4096)))
	buf := make([]byte, 4)
	for i := int64(0); i < total; i++ {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("%w: truncated vector payload: %v", ErrCorruptSnapshot, err)
		}
		vectors = append(vectors, math.Float32frombits(binary.LittleEndian.Uint32(buf)))
	}

	// Trailing bytes mean the file was not produced by WriteTo.
	if _, err := br.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after vectors", ErrCorruptSnapshot)
	}

	return &Flat{
		dimension: int(dimension),
		vectors:   vectors,
		count:     int(count),
	}, nil
}
