package resource

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
)

// CacheMagic identifies a paged resource cache file.
var CacheMagic = [4]byte{'r', 's', 'r', 'c'}

const (
	// CacheVersion is the file format version written by Save.
	CacheVersion = 1

	// DefaultPageSize is the uncompressed size at which Save starts a new page.
	DefaultPageSize = 1 << 20

	noPage = ^uint32(0)
)

// CacheHeader is the fixed header at the start of a paged cache file.
type CacheHeader struct {
	Magic       [4]byte
	Version     uint32
	Category    uint32
	EntryCount  uint32
	PageCount   uint32
	_           [4]byte // Padding
	TableOffset uint64  // File offset of the entry table; the page table follows it
}

// Entry locates one resource inside a decompressed page.
type Entry struct {
	Page   uint32 // Index into the page table, noPage for empty entries
	Offset uint32 // Byte offset within the decompressed page
	Size   uint32
	Flags  uint32
}

// Page locates one framed, compressed page in the file.
type Page struct {
	Offset         uint64 // File offset of the page frame
	CompressedSize uint32
	Length         uint32 // Decompressed size
}

// PagedCache is the deferred addressing strategy: a cache file of compressed
// pages, each holding several resources. Opening reads only the tables; a page
// is decompressed the first time one of its resources is touched and kept.
// New and replaced resources are staged in memory until Save.
//
// A PagedCache is not safe for concurrent use.
type PagedCache struct {
	category Category
	src      io.ReaderAt
	header   CacheHeader
	entries  []Entry
	pages    []Page

	loaded map[uint32][]byte
	staged map[int][]byte

	codec    Codec
	pageSize int
	logger   *slog.Logger
}

// CacheOption configures a PagedCache.
type CacheOption func(*PagedCache)

// WithCodec sets the page codec. The default is a ZstdCodec at DefaultCompressionLevel.
func WithCodec(c Codec) CacheOption {
	return func(p *PagedCache) {
		p.codec = c
	}
}

// WithPageSize sets the uncompressed page size used when saving.
func WithPageSize(size int) CacheOption {
	return func(p *PagedCache) {
		p.pageSize = size
	}
}

// WithLogger sets the logger for page load and save records.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(p *PagedCache) {
		p.logger = logger
	}
}

func newPagedCache(cat Category, opts []CacheOption) *PagedCache {
	p := &PagedCache{
		category: cat,
		loaded:   make(map[uint32][]byte),
		staged:   make(map[int][]byte),
		pageSize: DefaultPageSize,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.codec == nil {
		p.codec = NewZstdCodec(DefaultCompressionLevel)
	}
	return p
}

// NewPagedCache creates an empty cache for a category.
func NewPagedCache(cat Category, opts ...CacheOption) *PagedCache {
	p := newPagedCache(cat, opts)
	p.header = CacheHeader{Magic: CacheMagic, Version: CacheVersion, Category: uint32(cat)}
	return p
}

// OpenPagedCache reads the header and tables of a cache file. Pages are read
// from r on demand, so r must stay open while the cache is used.
func OpenPagedCache(r io.ReaderAt, opts ...CacheOption) (*PagedCache, error) {
	var header CacheHeader
	hdrSize := binary.Size(header)
	buf := make([]byte, hdrSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("read cache header: %w", err)
	}
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("parse cache header: %w", err)
	}
	if header.Magic != CacheMagic {
		return nil, fmt.Errorf("invalid cache magic: expected %x, got %x", CacheMagic, header.Magic)
	}
	if header.Version != CacheVersion {
		return nil, fmt.Errorf("unsupported cache version %d", header.Version)
	}

	p := newPagedCache(Category(header.Category), opts)
	p.src = r
	p.header = header

	tableSize := int64(header.EntryCount)*int64(binary.Size(Entry{})) + int64(header.PageCount)*int64(binary.Size(Page{}))
	table := io.NewSectionReader(r, int64(header.TableOffset), tableSize)

	p.entries = make([]Entry, header.EntryCount)
	if err := binary.Read(table, binary.LittleEndian, &p.entries); err != nil {
		return nil, fmt.Errorf("read entry table: %w", err)
	}
	p.pages = make([]Page, header.PageCount)
	if err := binary.Read(table, binary.LittleEndian, &p.pages); err != nil {
		return nil, fmt.Errorf("read page table: %w", err)
	}

	for i, e := range p.entries {
		if e.Page == noPage {
			continue
		}
		if int(e.Page) >= len(p.pages) {
			return nil, fmt.Errorf("entry %d: invalid page index %d", i, e.Page)
		}
		if uint64(e.Offset)+uint64(e.Size) > uint64(p.pages[e.Page].Length) {
			return nil, fmt.Errorf("entry %d: range %d+%d beyond page %d", i, e.Offset, e.Size, e.Page)
		}
	}

	p.logger.Debug("opened cache", "category", p.category, "entries", len(p.entries), "pages", len(p.pages))
	return p, nil
}

// Category returns the cache's resource category.
func (p *PagedCache) Category() Category {
	return p.category
}

// Len returns the number of entries, staged ones included.
func (p *PagedCache) Len() int {
	return len(p.entries)
}

// Entry returns the table entry for index.
func (p *PagedCache) Entry(index int) (Entry, bool) {
	if index < 0 || index >= len(p.entries) {
		return Entry{}, false
	}
	return p.entries[index], true
}

// LoadedPages returns the number of pages decompressed so far.
func (p *PagedCache) LoadedPages() int {
	return len(p.loaded)
}

func (p *PagedCache) page(index uint32) ([]byte, error) {
	if data, ok := p.loaded[index]; ok {
		return data, nil
	}
	if int(index) >= len(p.pages) || p.src == nil {
		return nil, fmt.Errorf("invalid page index %d", index)
	}
	data, err := DecodePage(p.src, p.pages[index], p.codec)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", index, err)
	}
	p.loaded[index] = data
	p.logger.Debug("loaded page", "category", p.category, "page", index, "size", len(data))
	return data, nil
}

// ReadRawPage returns the framed, still compressed bytes of a page.
func (p *PagedCache) ReadRawPage(index uint32) ([]byte, error) {
	if int(index) >= len(p.pages) || p.src == nil {
		return nil, fmt.Errorf("invalid page index %d", index)
	}
	raw, err := readFrame(p.src, p.pages[index])
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", index, err)
	}
	return raw, nil
}

// Load returns the contents of an entry. The slice aliases the cache.
func (p *PagedCache) Load(index int) ([]byte, error) {
	if index < 0 || index >= len(p.entries) {
		return nil, fmt.Errorf("invalid entry index %d of %d", index, len(p.entries))
	}
	if data, ok := p.staged[index]; ok {
		return data, nil
	}
	e := p.entries[index]
	if e.Page == noPage || e.Size == 0 {
		return []byte{}, nil
	}
	page, err := p.page(e.Page)
	if err != nil {
		return nil, fmt.Errorf("entry %d: %w", index, err)
	}
	return page[e.Offset : e.Offset+e.Size], nil
}

// Add stages a new entry and returns its index. data is copied.
func (p *PagedCache) Add(data []byte) int {
	index := len(p.entries)
	p.entries = append(p.entries, Entry{Page: noPage, Size: uint32(len(data))})
	p.staged[index] = bytes.Clone(data)
	return index
}

// Put replaces the contents of an existing entry. data is copied.
func (p *PagedCache) Put(index int, data []byte) error {
	if index < 0 || index >= len(p.entries) {
		return fmt.Errorf("invalid entry index %d of %d", index, len(p.entries))
	}
	p.staged[index] = bytes.Clone(data)
	p.entries[index].Size = uint32(len(data))
	return nil
}

func (p *PagedCache) entryIndex(op string, addr Address, size int) (int, error) {
	if addr.Type() != Resource {
		return 0, unresolvable(op, addr, size, "paged cache holds only resources")
	}
	if addr.Category() != p.category {
		return 0, unresolvable(op, addr, size, "cache holds "+p.category.String())
	}
	if addr.Index() >= len(p.entries) {
		return 0, outOfBounds(op, addr, size, fmt.Sprintf("%d entries", len(p.entries)))
	}
	return addr.Index(), nil
}

// Resolve implements Context. Offsets within a resource are not addressable, so
// size bounds the prefix of the entry returned.
func (p *PagedCache) Resolve(addr Address, size int) ([]byte, error) {
	index, err := p.entryIndex("resolve", addr, size)
	if err != nil {
		return nil, err
	}
	data, err := p.Load(index)
	if err != nil {
		return nil, &AddressingError{Op: "resolve", Addr: addr, Size: size, Err: ErrUnresolvable, Detail: err.Error()}
	}
	_, end, err := span("resolve", addr, 0, size, len(data))
	if err != nil {
		return nil, err
	}
	return data[:end], nil
}

// Allocate implements Context by staging a zeroed entry. Alignment is implied:
// every entry starts its own range.
func (p *PagedCache) Allocate(space AddressType, size, align int) (Address, error) {
	if space != Resource {
		return Null, unresolvable("allocate", NewAddress(space, 0), size, "paged cache allocates only resources")
	}
	if len(p.entries) > indexMask {
		return Null, outOfBounds("allocate", NewAddress(space, 0), size, "entry table full")
	}
	index := p.Add(make([]byte, size))
	return NewResourceAddress(p.category, index), nil
}

// Write implements Context. Writing past the end of an entry grows it.
func (p *PagedCache) Write(addr Address, b []byte) error {
	index, err := p.entryIndex("write", addr, len(b))
	if err != nil {
		return err
	}
	cur, err := p.Load(index)
	if err != nil {
		return &AddressingError{Op: "write", Addr: addr, Size: len(b), Err: ErrUnresolvable, Detail: err.Error()}
	}
	data := bytes.Clone(cur)
	if len(b) > len(data) {
		data = append(data, make([]byte, len(b)-len(data))...)
	}
	copy(data, b)
	return p.Put(index, data)
}
