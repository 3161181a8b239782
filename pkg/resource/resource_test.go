package resource

import (
	"bytes"
	"errors"
	"testing"
)

func TestAddress(t *testing.T) {
	t.Run("Pack", func(t *testing.T) {
		a := NewAddress(Definition, 0x1234)
		if a.Type() != Definition || a.Offset() != 0x1234 {
			t.Errorf("got %s offset 0x%X", a.Type(), a.Offset())
		}
		if uint32(a) != 0x20001234 {
			t.Errorf("raw: got 0x%08X, want 0x20001234", uint32(a))
		}
	})

	t.Run("Resource", func(t *testing.T) {
		a := NewResourceAddress(Audio, 0xABCDE)
		if a.Type() != Resource {
			t.Fatalf("type: got %s", a.Type())
		}
		if a.Category() != Audio || a.Index() != 0xABCDE {
			t.Errorf("got %s/%d", a.Category(), a.Index())
		}
	})

	t.Run("Truncate", func(t *testing.T) {
		a := NewAddress(Data, 0xFFFFFFFF)
		if a.Type() != Data || a.Offset() != 0x1FFFFFFF {
			t.Errorf("got %s offset 0x%X", a.Type(), a.Offset())
		}
	})
}

func TestStream(t *testing.T) {
	s := NewStream([]byte{1, 2, 3})

	addr, err := s.Allocate(Definition, 8, 4)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if addr != NewAddress(Definition, 4) {
		t.Errorf("aligned allocation: got %s, want definition:0x4", addr)
	}
	if s.Len() != 12 {
		t.Errorf("Len: got %d, want 12", s.Len())
	}

	if err := s.Write(addr, []byte{9, 8, 7}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Resolve(addr, 3)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !bytes.Equal(got, []byte{9, 8, 7}) {
		t.Errorf("Resolve: got %v", got)
	}

	rest, err := s.Resolve(NewAddress(Data, 10), -1)
	if err != nil {
		t.Fatalf("Resolve whole: %v", err)
	}
	if len(rest) != 2 {
		t.Errorf("whole-object resolve: got %d bytes, want 2", len(rest))
	}

	t.Run("OutOfBounds", func(t *testing.T) {
		_, err := s.Resolve(NewAddress(Definition, 10), 8)
		if !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("got %v, want out of bounds", err)
		}
		var addrErr *AddressingError
		if !errors.As(err, &addrErr) || addrErr.Op != "resolve" {
			t.Errorf("expected *AddressingError from resolve, got %v", err)
		}
	})

	t.Run("Unresolvable", func(t *testing.T) {
		if _, err := s.Resolve(NewResourceAddress(Textures, 0), 4); !errors.Is(err, ErrUnresolvable) {
			t.Errorf("resource address: got %v, want unresolvable", err)
		}
		if _, err := s.Resolve(NewAddress(Memory, 0x1000), 4); !errors.Is(err, ErrUnresolvable) {
			t.Errorf("memory without base: got %v, want unresolvable", err)
		}
	})

	t.Run("BaseAddress", func(t *testing.T) {
		s := NewStream([]byte{0xAA, 0xBB, 0xCC, 0xDD}, WithBaseAddress(0x1000))
		got, err := s.Resolve(NewAddress(Memory, 0x1002), 2)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if !bytes.Equal(got, []byte{0xCC, 0xDD}) {
			t.Errorf("got %x", got)
		}
		if _, err := s.Resolve(NewAddress(Memory, 0x0FFF), 1); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("below base: got %v", err)
		}
	})
}

func TestMux(t *testing.T) {
	defs := NewStream(nil)
	data := NewStream(nil)
	m := NewMux().Handle(Definition, defs).Handle(Data, data)

	a, err := m.Allocate(Data, 4, 1)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := m.Write(a, []byte("abcd")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if data.Len() != 4 || defs.Len() != 0 {
		t.Errorf("routed to wrong stream: data=%d defs=%d", data.Len(), defs.Len())
	}

	if _, err := m.Resolve(NewResourceAddress(Resources, 1), 1); !errors.Is(err, ErrUnresolvable) {
		t.Errorf("unregistered space: got %v", err)
	}
	if _, err := m.Allocate(Memory, 4, 1); !errors.Is(err, ErrUnresolvable) {
		t.Errorf("unregistered allocate: got %v", err)
	}
}

func TestPageFrame(t *testing.T) {
	data := bytes.Repeat([]byte("page"), 256)
	codec := NewZstdCodec(DefaultCompressionLevel)

	var file bytes.Buffer
	file.WriteString("head")
	pg, err := EncodePage(&file, data, codec)
	if err != nil {
		t.Fatalf("EncodePage: %v", err)
	}
	pg.Offset = 4
	if pg.Length != uint32(len(data)) || pg.FrameSize() != int64(file.Len()-4) {
		t.Fatalf("table entry %+v for %d byte frame", pg, file.Len()-4)
	}

	t.Run("Decode", func(t *testing.T) {
		got, err := DecodePage(bytes.NewReader(file.Bytes()), pg, codec)
		if err != nil {
			t.Fatalf("DecodePage: %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("data mismatch: got %d bytes, want %d", len(got), len(data))
		}
	})

	t.Run("WrongOffset", func(t *testing.T) {
		bad := pg
		bad.Offset = 0
		if _, err := DecodePage(bytes.NewReader(file.Bytes()), bad, codec); !errors.Is(err, ErrCorruptPage) {
			t.Errorf("got %v, want ErrCorruptPage", err)
		}
	})

	t.Run("WrongLength", func(t *testing.T) {
		bad := pg
		bad.Length++
		if _, err := DecodePage(bytes.NewReader(file.Bytes()), bad, codec); !errors.Is(err, ErrCorruptPage) {
			t.Errorf("got %v, want ErrCorruptPage", err)
		}
	})

	t.Run("EmptyEntry", func(t *testing.T) {
		if _, err := DecodePage(bytes.NewReader(file.Bytes()), Page{Offset: 4}, codec); !errors.Is(err, ErrCorruptPage) {
			t.Errorf("got %v, want ErrCorruptPage", err)
		}
	})
}

func TestPageCodecs(t *testing.T) {
	original := bytes.Repeat([]byte("Hello, World! This is test data for compression. "), 20)

	stream, err := NewStreamCodec()
	if err != nil {
		t.Fatalf("NewStreamCodec: %v", err)
	}
	defer stream.Close()

	codecs := map[string]Codec{
		"zstd":   NewZstdCodec(DefaultCompressionLevel),
		"stream": stream,
	}
	for writeName, writer := range codecs {
		for readName, reader := range codecs {
			t.Run(writeName+"To"+readName, func(t *testing.T) {
				var buf bytes.Buffer
				pg, err := EncodePage(&buf, original, writer)
				if err != nil {
					t.Fatalf("EncodePage: %v", err)
				}
				decoded, err := DecodePage(bytes.NewReader(buf.Bytes()), pg, reader)
				if err != nil {
					t.Fatalf("DecodePage: %v", err)
				}
				if !bytes.Equal(decoded, original) {
					t.Errorf("data mismatch: got %d bytes, want %d", len(decoded), len(original))
				}
			})
		}
	}
}
