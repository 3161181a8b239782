// Package decompiler translates Xenos shader microcode into HLSL-like source.
//
// The output is meant to be read, not compiled for the original hardware. Every
// ALU half and fetch becomes one statement; the implicit registers pv, ps, a0
// and p0 become variables, and operations without a direct equivalent are
// written as helper functions emitted once per program. Instructions that cannot
// be translated are kept as comments holding their assembly.
package decompiler

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/EchoTools/tagtool/pkg/ucode"
)

// ShaderType decides the names given to export registers.
type ShaderType uint8

const (
	Vertex ShaderType = iota
	Pixel
)

func (t ShaderType) String() string {
	if t == Pixel {
		return "pixel"
	}
	return "vertex"
}

type config struct {
	shader ShaderType
	logger *slog.Logger
}

// Option configures Decompile.
type Option func(*config)

// WithShaderType sets the shader stage. The default is Vertex.
func WithShaderType(t ShaderType) Option {
	return func(c *config) {
		c.shader = t
	}
}

// WithLogger sets the logger for per-instruction records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Result is a decompiled program.
type Result struct {
	// Source is the complete program text.
	Source string
	// Body holds the statements of main, indented, one entry per statement.
	Body    []string
	Helpers []string
}

// Decompile translates a program. Only a malformed program is an error.
func Decompile(words []uint32, opts ...Option) (*Result, error) {
	c := config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&c)
	}

	e := NewEmitter(c.shader)
	d := ucode.NewDecoder(words)
	for d.Next() {
		inst := d.Instruction()
		cf := inst.ControlFlow
		c.logger.Debug("control flow", "index", inst.Index, "op", cf.Opcode, "clause", len(inst.Clause))
		e.translateControlFlow(inst)
		if cf.Opcode.EndsShader() {
			e.State = Done
		}
	}
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("decompile: %w", err)
	}
	return &Result{
		Source:  e.Source(),
		Body:    e.Body(),
		Helpers: e.Helpers(),
	}, nil
}

func (e *Emitter) translateControlFlow(inst ucode.Instruction) {
	cf := inst.ControlFlow
	switch op := cf.Operands.(type) {
	case ucode.Exec:
		e.clause(inst.Clause)
	case ucode.CondExec:
		b := fmt.Sprintf("b%d", op.BoolAddress)
		e.Declare(b, "bool "+b+";")
		e.Open(fmt.Sprintf("if (%s == %t)", b, op.Condition))
		e.clause(inst.Clause)
		e.Close()
	case ucode.CondExecPred:
		e.Open(fmt.Sprintf("if (%s == %t)", e.read(&e.Registers.P0), op.Condition))
		if cf.Opcode.ResetsPredicate() {
			e.Emit("p0 = false;")
			e.Registers.P0.Valid = true
		}
		e.clause(inst.Clause)
		e.Close()
	case ucode.LoopStart, ucode.LoopEnd, ucode.CondCall, ucode.Return, ucode.CondJmp:
		e.Comment(cf.String())
	}
}

func (e *Emitter) clause(clause []ucode.ClauseInstruction) {
	e.BeginClause()
	for _, ci := range clause {
		switch {
		case ci.Fetch != nil:
			e.TranslateFetch(ci.Fetch)
		case ci.ALU != nil:
			e.TranslateALU(ci.ALU)
		}
	}
	e.State = AwaitingClause
}
