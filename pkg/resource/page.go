package resource

import (
	"errors"
	"fmt"
	"io"
)

// pageMarker starts every page frame in a cache file. The frame carries no sizes
// of its own: the page table entry records where the frame starts, how many
// compressed bytes follow the marker and how large the page decompresses to.
var pageMarker = [4]byte{'P', 'A', 'G', 'E'}

const pageMarkerSize = len(pageMarker)

// ErrCorruptPage is returned when a page frame does not match its table entry.
var ErrCorruptPage = errors.New("corrupt page")

// FrameSize returns the number of bytes the page occupies in the file.
func (pg Page) FrameSize() int64 {
	return int64(pageMarkerSize) + int64(pg.CompressedSize)
}

// EncodePage compresses data with codec and writes it as a page frame. The
// returned table entry has its sizes set; the caller fills in Offset.
func EncodePage(w io.Writer, data []byte, codec Codec) (Page, error) {
	if len(data) == 0 {
		return Page{}, fmt.Errorf("encode page: empty page")
	}
	compressed, err := codec.Compress(nil, data)
	if err != nil {
		return Page{}, fmt.Errorf("compress page: %w", err)
	}
	if _, err := w.Write(pageMarker[:]); err != nil {
		return Page{}, fmt.Errorf("write page marker: %w", err)
	}
	if _, err := w.Write(compressed); err != nil {
		return Page{}, fmt.Errorf("write page data: %w", err)
	}
	return Page{CompressedSize: uint32(len(compressed)), Length: uint32(len(data))}, nil
}

// readFrame reads the whole frame of pg, marker included, and checks the marker.
func readFrame(r io.ReaderAt, pg Page) ([]byte, error) {
	if pg.CompressedSize == 0 || pg.Length == 0 {
		return nil, fmt.Errorf("%w: empty table entry at 0x%X", ErrCorruptPage, pg.Offset)
	}
	frame := make([]byte, pg.FrameSize())
	if _, err := r.ReadAt(frame, int64(pg.Offset)); err != nil {
		return nil, fmt.Errorf("read page at 0x%X: %w", pg.Offset, err)
	}
	if [4]byte(frame[:pageMarkerSize]) != pageMarker {
		return nil, fmt.Errorf("%w: bad marker %x at 0x%X", ErrCorruptPage, frame[:pageMarkerSize], pg.Offset)
	}
	return frame, nil
}

// DecodePage reads the page described by pg and decompresses it.
func DecodePage(r io.ReaderAt, pg Page, codec Codec) ([]byte, error) {
	frame, err := readFrame(r, pg)
	if err != nil {
		return nil, err
	}
	data, err := codec.Decompress(make([]byte, 0, pg.Length), frame[pageMarkerSize:])
	if err != nil {
		return nil, fmt.Errorf("decompress page: %w", err)
	}
	if len(data) != int(pg.Length) {
		return nil, fmt.Errorf("%w: %d bytes at 0x%X, table says %d", ErrCorruptPage, len(data), pg.Offset, pg.Length)
	}
	return data, nil
}
