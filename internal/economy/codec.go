package economy

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrUnknownVersion is returned when data was written by a newer catalog.
	ErrUnknownVersion = errors.New("unknown catalog version")
	// ErrTruncated is returned when counter data ends early.
	ErrTruncated = errors.New("truncated counter data")
)

// Codec serializes per-good counter arrays. Every array is preceded by the
// catalog version it was written with, so data written by an older catalog
// can be remapped onto the current goods by key.
type Codec struct {
	version int
	counts  []int   // goods per version
	remap   [][]int // per version: old position -> current ID, -1 if removed
	size    int     // goods in the current version
}

func newCodec(c *Catalog) *Codec {
	codec := &Codec{
		version: len(c.history) - 1,
		counts:  make([]int, len(c.history)),
		remap:   make([][]int, len(c.history)),
		size:    len(c.goods),
	}
	for v, keys := range c.history {
		codec.counts[v] = len(keys)
		m := make([]int, len(keys))
		for i, k := range keys {
			if id, ok := c.byKey[k]; ok {
				m[i] = int(id)
			} else {
				m[i] = -1
			}
		}
		codec.remap[v] = m
	}
	return codec
}

// Version returns the version written by Append.
func (c *Codec) Version() int {
	return c.version
}

// Append writes a version header and counters to buf and returns the extended buffer.
func (c *Codec) Append(buf []byte, counters []uint16) []byte {
	assert(len(counters) == c.size, "codec: %d counters, want %d", len(counters), c.size)
	buf = binary.AppendUvarint(buf, uint64(c.version))
	for _, v := range counters {
		buf = binary.LittleEndian.AppendUint16(buf, v)
	}
	return buf
}

// Reader decodes a sequence of counter arrays.
type Reader struct {
	codec *Codec
	data  []byte
	off   int
}

// NewReader starts decoding data.
func (c *Codec) NewReader(data []byte) *Reader {
	return &Reader{codec: c, data: data}
}

// Read decodes the next array into out, which must be sized for the current
// catalog. Goods unknown to the writing version are left at zero; counters of
// goods removed since are discarded.
func (r *Reader) Read(out []uint16) error {
	if len(out) != r.codec.size {
		return fmt.Errorf("read counters: destination holds %d goods, catalog has %d", len(out), r.codec.size)
	}

	v, n := binary.Uvarint(r.data[r.off:])
	if n <= 0 {
		return fmt.Errorf("read version header: %w", ErrTruncated)
	}
	if v > uint64(r.codec.version) {
		return fmt.Errorf("version %d (newest known %d): %w", v, r.codec.version, ErrUnknownVersion)
	}
	r.off += n

	count := r.codec.counts[v]
	if len(r.data)-r.off < count*2 {
		return fmt.Errorf("read %d counters of version %d: %w", count, v, ErrTruncated)
	}

	clear(out)
	remap := r.codec.remap[v]
	for i := 0; i < count; i++ {
		value := binary.LittleEndian.Uint16(r.data[r.off:])
		r.off += 2
		if id := remap[i]; id >= 0 {
			out[id] = value
		}
	}
	return nil
}

// Done reports an error if undecoded bytes remain.
func (r *Reader) Done() error {
	if r.off != len(r.data) {
		return fmt.Errorf("%d trailing bytes after counter data", len(r.data)-r.off)
	}
	return nil
}
