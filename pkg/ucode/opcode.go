package ucode

import "fmt"

// CFOpcode is a control-flow opcode.
type CFOpcode uint8

const (
	CFNop CFOpcode = iota
	CFExec
	CFExecEnd
	CFCondExec
	CFCondExecEnd
	CFCondExecPred
	CFCondExecPredEnd
	CFLoopStart
	CFLoopEnd
	CFCondCall
	CFReturn
	CFCondJmp
	CFAlloc
	CFCondExecPredClean
	CFCondExecPredCleanEnd
	CFMarkVSFetchDone
)

var cfNames = [...]string{
	"nop", "exec", "exece", "cexec", "cexece", "cexec_pred", "cexece_pred",
	"loop", "endloop", "ccall", "ret", "cjmp", "alloc",
	"cexec_pred_clean", "cexece_pred_clean", "mark_vs_fetch_done",
}

func (op CFOpcode) String() string {
	if int(op) < len(cfNames) {
		return cfNames[op]
	}
	return fmt.Sprintf("cf_%d", op)
}

// Executes reports whether the opcode runs an ALU/fetch clause.
func (op CFOpcode) Executes() bool {
	switch op {
	case CFExec, CFExecEnd, CFCondExec, CFCondExecEnd,
		CFCondExecPred, CFCondExecPredEnd, CFCondExecPredClean, CFCondExecPredCleanEnd:
		return true
	}
	return false
}

// EndsShader reports whether the program terminates after the opcode executes.
func (op CFOpcode) EndsShader() bool {
	switch op {
	case CFExecEnd, CFCondExecEnd, CFCondExecPredEnd, CFCondExecPredCleanEnd:
		return true
	}
	return false
}

// ResetsPredicate reports whether the predicate is reset before execution.
func (op CFOpcode) ResetsPredicate() bool {
	return op == CFCondExecPredClean || op == CFCondExecPredCleanEnd
}

// VectorOpcode is a vector ALU opcode.
type VectorOpcode uint8

const (
	VecAdd VectorOpcode = iota
	VecMul
	VecMax
	VecMin
	VecSetEQ
	VecSetGT
	VecSetGE
	VecSetNE
	VecFrac
	VecTrunc
	VecFloor
	VecMad
	VecCndEQ
	VecCndGE
	VecCndGT
	VecDot4
	VecDot3
	VecDot2Add
	VecCube
	VecMax4
	VecSetpEQPush
	VecSetpNEPush
	VecSetpGTPush
	VecSetpGEPush
	VecKillEQ
	VecKillGT
	VecKillGE
	VecKillNE
	VecDst
	VecMaxA
	VecOpcode30
	VecOpcode31
)

var vectorNames = [32]string{
	"add", "mul", "max", "min", "seq", "sgt", "sge", "sne",
	"frc", "trunc", "floor", "mad", "cndeq", "cndge", "cndgt", "dp4",
	"dp3", "dp2add", "cube", "max4", "setp_eq_push", "setp_ne_push", "setp_gt_push", "setp_ge_push",
	"kill_eq", "kill_gt", "kill_ge", "kill_ne", "dst", "maxa", "opcode_30", "opcode_31",
}

func (op VectorOpcode) String() string {
	return vectorNames[op&0x1F]
}

// Operands returns the number of source operands the opcode reads.
func (op VectorOpcode) Operands() int {
	switch op {
	case VecFrac, VecTrunc, VecFloor, VecMax4:
		return 1
	case VecMad, VecCndEQ, VecCndGE, VecCndGT, VecDot2Add:
		return 3
	}
	return 2
}

// Supported reports whether the opcode has known semantics.
func (op VectorOpcode) Supported() bool {
	return op < VecOpcode30
}

// ScalarOpcode is a scalar ALU opcode.
type ScalarOpcode uint8

const (
	ScaAdd ScalarOpcode = iota
	ScaAddPrev
	ScaMul
	ScaMulPrev
	ScaMulPrev2
	ScaMax
	ScaMin
	ScaSetEQ
	ScaSetGT
	ScaSetGE
	ScaSetNE
	ScaFrac
	ScaTrunc
	ScaFloor
	ScaExp
	ScaLogClamp
	ScaLog
	ScaRcpClamp
	ScaRcpFlush
	ScaRcp
	ScaRsqClamp
	ScaRsqFlush
	ScaRsq
	ScaMaxA
	ScaMaxAFloor
	ScaSub
	ScaSubPrev
	ScaSetpEQ
	ScaSetpNE
	ScaSetpGT
	ScaSetpGE
	ScaSetpInv
	ScaSetpPop
	ScaSetpClear
	ScaSetpRestore
	ScaKillEQ
	ScaKillGT
	ScaKillGE
	ScaKillNE
	ScaKillOne
	ScaSqrt
	ScaOpcode41
	ScaMulConst0
	ScaMulConst1
	ScaAddConst0
	ScaAddConst1
	ScaSubConst0
	ScaSubConst1
	ScaSin
	ScaCos
	ScaRetainPrev
)

var scalarNames = [51]string{
	"adds", "adds_prev", "muls", "muls_prev", "muls_prev2", "maxs", "mins", "seqs",
	"sgts", "sges", "snes", "frcs", "truncs", "floors", "exp", "logc",
	"log", "rcpc", "rcpf", "rcp", "rsqc", "rsqf", "rsq", "maxas",
	"maxasf", "subs", "subs_prev", "setp_eq", "setp_ne", "setp_gt", "setp_ge", "setp_inv",
	"setp_pop", "setp_clr", "setp_rstr", "kills_eq", "kills_gt", "kills_ge", "kills_ne", "kills_one",
	"sqrt", "opcode_41", "mulsc0", "mulsc1", "addsc0", "addsc1", "subsc0", "subsc1",
	"sin", "cos", "retain_prev",
}

func (op ScalarOpcode) String() string {
	if int(op) < len(scalarNames) {
		return scalarNames[op]
	}
	return fmt.Sprintf("opcode_%d", op)
}

// Supported reports whether the opcode has known semantics.
func (op ScalarOpcode) Supported() bool {
	return op <= ScaRetainPrev && op != ScaOpcode41
}

// ScalarOperands describes which source components a scalar opcode reads.
type ScalarOperands uint8

const (
	// ScalarNone reads no source.
	ScalarNone ScalarOperands = iota
	// ScalarA reads one component of the third source.
	ScalarA
	// ScalarAB reads two components of the third source.
	ScalarAB
	// ScalarConst reads one constant component and one temporary component.
	ScalarConst
)

// Operands returns the source shape of the opcode.
func (op ScalarOpcode) Operands() ScalarOperands {
	switch op {
	case ScaAdd, ScaMul, ScaMulPrev2, ScaMax, ScaMin, ScaMaxA, ScaMaxAFloor, ScaSub:
		return ScalarAB
	case ScaMulConst0, ScaMulConst1, ScaAddConst0, ScaAddConst1, ScaSubConst0, ScaSubConst1:
		return ScalarConst
	case ScaSetpClear, ScaRetainPrev, ScaOpcode41:
		return ScalarNone
	}
	if !op.Supported() {
		return ScalarNone
	}
	return ScalarA
}

// FetchOpcode is a fetch opcode.
type FetchOpcode uint8

const (
	FetchVertex                  FetchOpcode = 0
	FetchTexture                 FetchOpcode = 1
	FetchTextureBorderColorFrac  FetchOpcode = 16
	FetchTextureComputedLod      FetchOpcode = 17
	FetchTextureGradients        FetchOpcode = 18
	FetchTextureWeights          FetchOpcode = 19
	FetchSetTextureLod           FetchOpcode = 24
	FetchSetTextureGradientsHorz FetchOpcode = 25
	FetchSetTextureGradientsVert FetchOpcode = 26
)

var fetchNames = map[FetchOpcode]string{
	FetchVertex:                  "vfetch",
	FetchTexture:                 "tfetch",
	FetchTextureBorderColorFrac:  "getBCF",
	FetchTextureComputedLod:      "getCompTexLOD",
	FetchTextureGradients:        "getGradients",
	FetchTextureWeights:          "getWeights",
	FetchSetTextureLod:           "setTexLOD",
	FetchSetTextureGradientsHorz: "setGradientH",
	FetchSetTextureGradientsVert: "setGradientV",
}

func (op FetchOpcode) String() string {
	if name, ok := fetchNames[op]; ok {
		return name
	}
	return fmt.Sprintf("fetch_%d", op)
}
