package resource

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"slices"
)

// Save writes the cache, staged entries included, as a complete cache file to w.
// w must be positioned at the start of the file. Pages holding no staged entry
// are copied without recompression; the rest are repacked. The header is written
// as a placeholder and patched once the table offset is known.
//
// The receiver keeps reading from its original source; reopen the written file to
// continue from the saved state.
func (p *PagedCache) Save(w io.WriteSeeker) error {
	start, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("get position: %w", err)
	}

	header := CacheHeader{
		Magic:      CacheMagic,
		Version:    CacheVersion,
		Category:   uint32(p.category),
		EntryCount: uint32(len(p.entries)),
	}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("write placeholder header: %w", err)
	}
	offset := uint64(binary.Size(header))

	dirty := make(map[uint32]bool)
	for index := range p.staged {
		if e := p.entries[index]; e.Page != noPage {
			dirty[e.Page] = true
		}
	}

	entries := slices.Clone(p.entries)
	pages := make([]Page, 0, len(p.pages))
	remap := make(map[uint32]uint32, len(p.pages))

	for i, old := range p.pages {
		index := uint32(i)
		if dirty[index] {
			continue
		}
		raw, err := p.ReadRawPage(index)
		if err != nil {
			return err
		}
		if _, err := w.Write(raw); err != nil {
			return fmt.Errorf("copy page %d: %w", index, err)
		}
		remap[index] = uint32(len(pages))
		pages = append(pages, Page{Offset: offset, CompressedSize: old.CompressedSize, Length: old.Length})
		offset += uint64(len(raw))
	}
	copied := len(pages)

	var page bytes.Buffer
	flush := func() error {
		if page.Len() == 0 {
			return nil
		}
		pg, err := EncodePage(w, page.Bytes(), p.codec)
		if err != nil {
			return fmt.Errorf("write page %d: %w", len(pages), err)
		}
		pg.Offset = offset
		pages = append(pages, pg)
		offset += uint64(pg.FrameSize())
		page.Reset()
		return nil
	}

	for i := range entries {
		e := &entries[i]
		_, isStaged := p.staged[i]
		if !isStaged && e.Page != noPage && !dirty[e.Page] {
			e.Page = remap[e.Page]
			continue
		}
		data, err := p.Load(i)
		if err != nil {
			return err
		}
		if len(data) == 0 {
			*e = Entry{Page: noPage, Flags: e.Flags}
			continue
		}
		if page.Len() > 0 && page.Len()+len(data) > p.pageSize {
			if err := flush(); err != nil {
				return err
			}
		}
		e.Page = uint32(len(pages))
		e.Offset = uint32(page.Len())
		e.Size = uint32(len(data))
		page.Write(data)
	}
	if err := flush(); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, entries); err != nil {
		return fmt.Errorf("write entry table: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, pages); err != nil {
		return fmt.Errorf("write page table: %w", err)
	}

	end, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("get position: %w", err)
	}

	header.PageCount = uint32(len(pages))
	header.TableOffset = offset
	if _, err := w.Seek(start, io.SeekStart); err != nil {
		return fmt.Errorf("seek to start: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Seek(end, io.SeekStart); err != nil {
		return fmt.Errorf("seek to end: %w", err)
	}

	p.logger.Debug("saved cache", "category", p.category, "entries", len(entries),
		"copied_pages", copied, "packed_pages", len(pages)-copied)
	return nil
}
