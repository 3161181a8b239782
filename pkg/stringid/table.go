package stringid

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is returned when an identifier's flat index has no string.
var ErrNotFound = errors.New("string id not found")

// Table is a flat string list addressed through a Resolver.
type Table struct {
	resolver *Resolver
	strings  []string
	lookup   map[string]int
}

// NewTable creates a table over the given strings. The slice is not copied.
func NewTable(resolver *Resolver, strings []string) *Table {
	return &Table{
		resolver: resolver,
		strings:  strings,
	}
}

// ReadTable reads a newline-separated string list.
func ReadTable(resolver *Resolver, r io.Reader) (*Table, error) {
	var strings []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		strings = append(strings, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read string list: %w", err)
	}
	return NewTable(resolver, strings), nil
}

// Resolver returns the table's resolver.
func (t *Table) Resolver() *Resolver {
	return t.resolver
}

// Len returns the number of strings.
func (t *Table) Len() int {
	return len(t.strings)
}

// String resolves an identifier to its text.
func (t *Table) String(id ID) (string, error) {
	if id == Invalid {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	index, err := t.resolver.ToFlat(id)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(t.strings) {
		return "", fmt.Errorf("%w: %s (flat index %d of %d)", ErrNotFound, id, index, len(t.strings))
	}
	return t.strings[index], nil
}

// Lookup returns the identifier of the first occurrence of s.
func (t *Table) Lookup(s string) (ID, bool) {
	if t.lookup == nil {
		t.lookup = make(map[string]int, len(t.strings))
		for i, str := range t.strings {
			if _, exists := t.lookup[str]; !exists {
				t.lookup[str] = i
			}
		}
	}
	index, ok := t.lookup[s]
	if !ok {
		return Invalid, false
	}
	return t.resolver.FromFlat(index), true
}

// Add appends s, or returns the existing identifier if s is already present.
func (t *Table) Add(s string) ID {
	if id, ok := t.Lookup(s); ok {
		return id
	}
	t.strings = append(t.strings, s)
	t.lookup[s] = len(t.strings) - 1
	return t.resolver.FromFlat(len(t.strings) - 1)
}

// WriteTo writes the table as a newline-separated list.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, s := range t.strings {
		m, err := bw.WriteString(s + "\n")
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}
