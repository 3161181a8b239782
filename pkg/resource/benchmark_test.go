package resource

import (
	"bytes"
	"testing"
)

// BenchmarkPageCodecs benchmarks page framing with both codecs.
func BenchmarkPageCodecs(b *testing.B) {
	data := make([]byte, 256*1024) // 256KB
	for i := range data {
		data[i] = byte(i % 256)
	}

	stream, err := NewStreamCodec()
	if err != nil {
		b.Fatal(err)
	}
	defer stream.Close()

	codecs := []struct {
		name  string
		codec Codec
	}{
		{"zstd", NewZstdCodec(DefaultCompressionLevel)},
		{"stream", stream},
	}
	for _, c := range codecs {
		var page bytes.Buffer
		pg, err := EncodePage(&page, data, c.codec)
		if err != nil {
			b.Fatal(err)
		}

		b.Run("Encode_"+c.name, func(b *testing.B) {
			var buf bytes.Buffer
			b.SetBytes(int64(len(data)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				buf.Reset()
				if _, err := EncodePage(&buf, data, c.codec); err != nil {
					b.Fatal(err)
				}
			}
		})

		b.Run("Decode_"+c.name, func(b *testing.B) {
			r := bytes.NewReader(page.Bytes())
			b.SetBytes(int64(len(data)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := DecodePage(r, pg, c.codec); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkPagedCacheLoad benchmarks entry loads with page memoization.
func BenchmarkPagedCacheLoad(b *testing.B) {
	c := NewPagedCache(Resources)
	for i := 0; i < 64; i++ {
		c.Add(bytes.Repeat([]byte{byte(i)}, 4096))
	}
	file := seekableBuffer{Buffer: new(bytes.Buffer)}
	if err := c.Save(&file); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		opened, err := OpenPagedCache(bytes.NewReader(file.Bytes()))
		if err != nil {
			b.Fatal(err)
		}
		for j := 0; j < opened.Len(); j++ {
			if _, err := opened.Load(j); err != nil {
				b.Fatal(err)
			}
		}
	}
}
