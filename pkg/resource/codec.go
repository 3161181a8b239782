package resource

import (
	"fmt"

	"github.com/DataDog/zstd"
	kzstd "github.com/klauspost/compress/zstd"
)

// DefaultCompressionLevel is the page compression level used when none is set.
const DefaultCompressionLevel = zstd.BestSpeed

// Codec compresses and decompresses whole pages. Both implementations produce
// standard zstd frames, so pages written by one can be read by the other.
// Codecs are not safe for concurrent use.
type Codec interface {
	// Compress compresses src, reusing dst's storage when it is large enough.
	Compress(dst, src []byte) ([]byte, error)
	// Decompress decompresses src, reusing dst's storage when it is large enough.
	Decompress(dst, src []byte) ([]byte, error)
}

// ZstdCodec is the cgo zstd codec. It keeps one compression context for reuse
// across pages.
type ZstdCodec struct {
	level int
	ctx   zstd.Ctx
}

// NewZstdCodec creates a codec compressing at the given level.
func NewZstdCodec(level int) *ZstdCodec {
	return &ZstdCodec{
		level: level,
		ctx:   zstd.NewCtx(),
	}
}

// Compress implements Codec.
func (c *ZstdCodec) Compress(dst, src []byte) ([]byte, error) {
	return c.ctx.CompressLevel(dst, src, c.level)
}

// Decompress implements Codec.
func (c *ZstdCodec) Decompress(dst, src []byte) ([]byte, error) {
	return c.ctx.Decompress(dst, src)
}

// StreamCodec is the pure Go zstd codec, for builds without cgo.
type StreamCodec struct {
	enc *kzstd.Encoder
	dec *kzstd.Decoder
}

// NewStreamCodec creates a pure Go codec. Close releases its decoder.
func NewStreamCodec() (*StreamCodec, error) {
	enc, err := kzstd.NewWriter(nil, kzstd.WithEncoderLevel(kzstd.SpeedFastest), kzstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("create encoder: %w", err)
	}
	dec, err := kzstd.NewReader(nil, kzstd.WithDecoderConcurrency(1))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	return &StreamCodec{enc: enc, dec: dec}, nil
}

// Compress implements Codec.
func (c *StreamCodec) Compress(dst, src []byte) ([]byte, error) {
	return c.enc.EncodeAll(src, dst[:0]), nil
}

// Decompress implements Codec.
func (c *StreamCodec) Decompress(dst, src []byte) ([]byte, error) {
	return c.dec.DecodeAll(src, dst[:0])
}

// Close releases the encoder and decoder.
func (c *StreamCodec) Close() error {
	c.dec.Close()
	return c.enc.Close()
}
