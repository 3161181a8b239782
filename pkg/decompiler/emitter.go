package decompiler

import (
	"fmt"
	"slices"
	"strings"
)

// State is the position of the emitter in the program walk.
type State uint8

const (
	AwaitingClause State = iota
	EmittingVector
	EmittingScalar
	Done
)

func (s State) String() string {
	switch s {
	case EmittingVector:
		return "emitting vector"
	case EmittingScalar:
		return "emitting scalar"
	case Done:
		return "done"
	}
	return "awaiting clause"
}

// Register is an implicit register slot.
type Register struct {
	Name  string
	Valid bool
}

// Registers holds the implicit registers. pv and ps are the previous vector and
// scalar results and are only valid within a clause; a0 is the address register
// and p0 the predicate.
type Registers struct {
	PV Register
	PS Register
	A0 Register
	P0 Register
}

func newRegisters() Registers {
	return Registers{
		PV: Register{Name: "pv"},
		PS: Register{Name: "ps"},
		A0: Register{Name: "a0"},
		P0: Register{Name: "p0"},
	}
}

// Emitter accumulates the output of one shader program. Statements go to the
// body in order; helper functions are kept once each.
type Emitter struct {
	State     State
	Registers Registers

	shader  ShaderType
	body    []string
	helpers []string
	seen    map[string]struct{}
	decls   map[string]string
	indent  int
	notes   []string
}

// NewEmitter creates an empty emitter.
func NewEmitter(shader ShaderType) *Emitter {
	return &Emitter{
		Registers: newRegisters(),
		shader:    shader,
		seen:      make(map[string]struct{}),
		decls:     make(map[string]string),
	}
}

// Emit appends one statement at the current indentation.
func (e *Emitter) Emit(format string, args ...any) {
	e.emit(fmt.Sprintf(format, args...))
}

func (e *Emitter) emit(stmt string) {
	if len(e.notes) > 0 {
		stmt += " // " + strings.Join(e.notes, ", ")
		e.notes = e.notes[:0]
	}
	e.body = append(e.body, strings.Repeat("\t", e.indent+1)+stmt)
}

// Comment appends a comment statement.
func (e *Emitter) Comment(text string) {
	e.emit("// " + text)
}

// Open emits a block header and indents what follows.
func (e *Emitter) Open(header string) {
	e.emit(header + " {")
	e.indent++
}

// Close ends the innermost block.
func (e *Emitter) Close() {
	if e.indent > 0 {
		e.indent--
	}
	e.emit("}")
}

// Helper adds a helper function definition unless the same text was added
// before. It reports whether the helper was new.
func (e *Emitter) Helper(text string) bool {
	if _, ok := e.seen[text]; ok {
		return false
	}
	e.seen[text] = struct{}{}
	e.helpers = append(e.helpers, text)
	return true
}

// Declare records a global declaration by name.
func (e *Emitter) Declare(name, decl string) {
	if _, ok := e.decls[name]; !ok {
		e.decls[name] = decl
	}
}

// read returns the name of an implicit register, noting the read when the
// register holds no defined value.
func (e *Emitter) read(r *Register) string {
	if !r.Valid {
		note := r.Name + " undefined"
		if !slices.Contains(e.notes, note) {
			e.notes = append(e.notes, note)
		}
	}
	return r.Name
}

// BeginClause starts a clause: previous results do not carry over.
func (e *Emitter) BeginClause() {
	e.Registers.PV.Valid = false
	e.Registers.PS.Valid = false
	e.State = AwaitingClause
}

// Body returns the statements emitted so far.
func (e *Emitter) Body() []string {
	return e.body
}

// Helpers returns the helper definitions in first-use order.
func (e *Emitter) Helpers() []string {
	return e.helpers
}

const prologue = `static float4 r[64];
static float4 pv;
static float ps;
static int a0;
static int aL;
static bool p0;
`

// Source renders the program: declarations, helpers, then main.
func (e *Emitter) Source() string {
	var b strings.Builder
	b.WriteString(prologue)
	names := make([]string, 0, len(e.decls))
	for name := range e.decls {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		b.WriteString(e.decls[name])
		b.WriteByte('\n')
	}
	for _, h := range e.helpers {
		b.WriteByte('\n')
		b.WriteString(h)
		b.WriteByte('\n')
	}
	b.WriteString("\nvoid main() {\n")
	for _, stmt := range e.body {
		b.WriteString(stmt)
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
	return b.String()
}
