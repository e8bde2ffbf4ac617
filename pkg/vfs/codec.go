// Package vfs implements the compressed storage adapter of §4.7: a
// page-compressing container file (BlockStore) backed by a pooled zstd
// Codec, fed through a bounded worker Pool, and addressed by name through a
// Manager. It does not hook the host engine's internal VFS table (see the
// doc comment on Manager for why), but gives the connection opener
// (C5) and the vacuum-into emitter (C6) a real compression layer to apply.
package vfs

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Codec compresses and decompresses individual outer blocks. dst may be nil;
// implementations append to it the way append() does, to let callers reuse
// buffers across calls.
type Codec interface {
	Encode(dst, src []byte) []byte
	Decode(dst, src []byte) ([]byte, error)
	Close()
}

// zstdCodec pools encoders and decoders, since zstd.Encoder/Decoder are
// expensive to construct and are not safe for concurrent use by multiple
// goroutines against the same instance.
type zstdCodec struct {
	level zstd.EncoderLevel

	encoders sync.Pool
	decoders sync.Pool
}

// NewZstdCodec returns a Codec at the given zstd level, clamped to
// Config.ZstdLevel's documented domain of [-5, 22] by the caller (§4.5).
func NewZstdCodec(level int) (Codec, error) {
	encLevel := zstdLevelFromConfig(level)

	c := &zstdCodec{level: encLevel}
	c.encoders.New = func() any {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(c.level))
		if err != nil {
			return nil
		}
		return enc
	}
	c.decoders.New = func() any {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil
		}
		return dec
	}
	return c, nil
}

// zstdLevelFromConfig maps Config.ZstdLevel's [-5,22] integer domain onto
// the zstd package's named EncoderLevel buckets. Negative values ask for
// the fastest setting; the library does not expose per-integer negative
// levels the way the C zstd CLI does, so every negative value flattens to
// SpeedFastest.
func zstdLevelFromConfig(level int) zstd.EncoderLevel {
	switch {
	case level <= 0:
		return zstd.SpeedFastest
	case level <= 3:
		return zstd.SpeedDefault
	case level <= 9:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

func (c *zstdCodec) Encode(dst, src []byte) []byte {
	enc := c.encoders.Get().(*zstd.Encoder)
	defer c.encoders.Put(enc)
	enc.Reset(nil)
	out := enc.EncodeAll(src, dst)
	return out
}

func (c *zstdCodec) Decode(dst, src []byte) ([]byte, error) {
	dec := c.decoders.Get().(*zstd.Decoder)
	defer c.decoders.Put(dec)
	out, err := dec.DecodeAll(src, dst)
	if err != nil {
		return nil, fmt.Errorf("vfs: zstd decode: %w", err)
	}
	return out, nil
}

func (c *zstdCodec) Close() {}
