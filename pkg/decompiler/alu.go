package decompiler

import (
	"fmt"

	"github.com/EchoTools/tagtool/pkg/ucode"
)

const components = "xyzw"

const fltMax = "static const float FLT_MAX = 3.402823466e+38f;"

// Helper functions for operations with no single HLSL equivalent.
const (
	cubeFunc = `float4 cube_func(float4 src0, float4 src1)
{
	float3 v = float3(src0.z, src0.w, src0.x);
	float3 a = abs(v);
	float ma, sc, tc, face;
	if (a.z >= a.x && a.z >= a.y) {
		ma = v.z; sc = v.z < 0.0f ? -v.x : v.x; tc = -v.y; face = v.z < 0.0f ? 5.0f : 4.0f;
	} else if (a.y >= a.x) {
		ma = v.y; sc = v.x; tc = v.y < 0.0f ? -v.z : v.z; face = v.y < 0.0f ? 3.0f : 2.0f;
	} else {
		ma = v.x; sc = v.x < 0.0f ? v.z : -v.z; tc = -v.y; face = v.x < 0.0f ? 1.0f : 0.0f;
	}
	return float4(tc, sc, 2.0f * abs(ma), face);
}`
	max4Func = `float4 max4_func(float4 src0)
{
	return max(max(src0.x, src0.y), max(src0.z, src0.w)).xxxx;
}`
	maxaFunc = `float4 maxa_func(float4 src0, float4 src1)
{
	a0 = clamp(int(floor(src0.w + 0.5f)), -256, 255);
	return max(src0, src1);
}`
	maxasFunc = `float maxas_func(float a, float b)
{
	a0 = clamp(int(floor(a + 0.5f)), -256, 255);
	return max(a, b);
}`
	maxasfFunc = `float maxasf_func(float a, float b)
{
	a0 = clamp(int(floor(a)), -256, 255);
	return max(a, b);
}`
	addsPrevFunc = `float adds_prev_func(float a)
{
	return a + ps;
}`
	mulsPrevFunc = `float muls_prev_func(float a)
{
	return a * ps;
}`
	subsPrevFunc = `float subs_prev_func(float a)
{
	return a - ps;
}`
	setpInvFunc = `float setp_inv_func(float a)
{
	p0 = a == 1.0f;
	return a == 0.0f ? 1.0f : (a == 1.0f ? 0.0f : a);
}`
	setpPopFunc = `float setp_pop_func(float a)
{
	p0 = a - 1.0f <= 0.0f;
	return a - 1.0f <= 0.0f ? 0.0f : a - 1.0f;
}`
	setpClrFunc = `float setp_clr_func()
{
	p0 = false;
	return FLT_MAX;
}`
	setpRstrFunc = `float setp_rstr_func(float a)
{
	p0 = a == 0.0f;
	return a;
}`
	killsOneFunc = `float kills_one_func(float a)
{
	if (a == 1.0f) {
		clip(-1.0f);
		return 1.0f;
	}
	return 0.0f;
}`
)

func vectorSetpFunc(name, op string) string {
	return fmt.Sprintf(`float4 %s_func(float4 src0, float4 src1)
{
	p0 = src0.w %s 0.0f && src1.w == 0.0f;
	return src0.w %s 0.0f && src1.w == 0.0f ? 0.0f : src0.w + 1.0f;
}`, name, op, op)
}

func vectorKillFunc(name, op string) string {
	return fmt.Sprintf(`float4 %s_func(float4 src0, float4 src1)
{
	if (any(src0 %s src1)) {
		clip(-1.0f);
		return 1.0f;
	}
	return 0.0f;
}`, name, op)
}

func scalarSetpFunc(name, op string) string {
	return fmt.Sprintf(`float %s_func(float a)
{
	p0 = a %s 0.0f;
	return p0 ? 0.0f : 1.0f;
}`, name, op)
}

func scalarKillFunc(name, op string) string {
	return fmt.Sprintf(`float %s_func(float a)
{
	if (a %s 0.0f) {
		clip(-1.0f);
		return 1.0f;
	}
	return 0.0f;
}`, name, op)
}

var compareOps = map[string]string{"eq": "==", "gt": ">", "ge": ">=", "ne": "!="}

// TranslateALU emits the vector half, then the scalar half, of an ALU
// instruction. Each half that does something yields exactly one statement.
// The caller's instruction is left unchanged.
func (e *Emitter) TranslateALU(in *ucode.ALU) {
	alu := *in
	a := &alu
	fix := PreFixup(a)
	if a.HasVectorOp() {
		e.State = EmittingVector
		e.vector(a, fix)
	}
	if a.HasScalarOp() {
		e.State = EmittingScalar
		e.scalar(a)
	}
}

// operand renders source i without a swizzle.
func (e *Emitter) operand(a *ucode.ALU, i int, constant bool) string {
	src := a.Src[i]
	var s string
	if src.Temp && !constant {
		s = fmt.Sprintf("r[%d]", src.Index())
		if src.Relative() {
			s = fmt.Sprintf("r[%d + aL]", src.Index())
		}
		if src.Abs() {
			s = "abs(" + s + ")"
		}
	} else {
		e.Declare("c", "float4 c[256];")
		s = fmt.Sprintf("c[%d]", src.Reg)
		if relativeConst(a, i) {
			s = fmt.Sprintf("c[%d + %s]", src.Reg, e.read(&e.Registers.A0))
		}
		if a.AbsConstants {
			s = "abs(" + s + ")"
		}
	}
	return s
}

func relativeConst(a *ucode.ALU, i int) bool {
	n := 0
	for j := 0; j < i; j++ {
		if !a.Src[j].Temp {
			n++
		}
	}
	return a.ConstRelative(n)
}

func (e *Emitter) vectorSource(a *ucode.ALU, i int) string {
	s := e.operand(a, i, false)
	if swz := a.Src[i].SwizzleString(); swz != "" {
		s += "." + swz
	}
	if a.Src[i].Negate {
		s = "-" + s
	}
	return s
}

func (e *Emitter) scalarSource(a *ucode.ALU, comp int, constant bool) string {
	s := e.operand(a, 2, constant) + "." + components[comp:comp+1]
	if a.Src[2].Negate {
		s = "-" + s
	}
	return s
}

func (e *Emitter) predicate(predicated, cond bool) string {
	if !predicated {
		return ""
	}
	p := e.read(&e.Registers.P0)
	if cond {
		return "if (" + p + ") "
	}
	return "if (!" + p + ") "
}

func (e *Emitter) exportName(reg uint8) string {
	var name string
	switch {
	case e.shader == Vertex && reg == 62:
		name = "oPos"
	case e.shader == Vertex && reg == 63:
		name = "oPts"
	case e.shader == Vertex && reg < 16:
		name = fmt.Sprintf("o%d", reg)
	case e.shader == Pixel && reg < 4:
		name = fmt.Sprintf("oC%d", reg)
	case e.shader == Pixel && reg == 61:
		name = "oDepth"
	default:
		name = fmt.Sprintf("export%d", reg)
	}
	e.Declare(name, "static float4 "+name+";")
	return name
}

func (e *Emitter) dest(a *ucode.ALU, reg uint8, relative bool) string {
	switch {
	case a.Export:
		return e.exportName(a.VectorDest)
	case relative:
		return fmt.Sprintf("r[%d + aL]", reg)
	}
	return fmt.Sprintf("r[%d]", reg)
}

func (e *Emitter) vector(a *ucode.ALU, fix Fixups) {
	var src [3]string
	for i := 0; i < a.VectorOp.Operands(); i++ {
		src[i] = e.vectorSource(a, i)
	}
	var expr string
	switch op := a.VectorOp; op {
	case ucode.VecAdd:
		expr = src[0] + " + " + src[1]
	case ucode.VecMul:
		expr = src[0] + " * " + src[1]
	case ucode.VecMax:
		expr = "max(" + src[0] + ", " + src[1] + ")"
		if fix&FixVectorMove != 0 {
			expr = src[0]
		}
	case ucode.VecMin:
		expr = "min(" + src[0] + ", " + src[1] + ")"
	case ucode.VecSetEQ, ucode.VecSetGT, ucode.VecSetGE, ucode.VecSetNE:
		expr = fmt.Sprintf("float4(%s %s %s)", src[0], compareOps[op.String()[1:]], src[1])
	case ucode.VecFrac:
		expr = "frac(" + src[0] + ")"
	case ucode.VecTrunc:
		expr = "trunc(" + src[0] + ")"
	case ucode.VecFloor:
		expr = "floor(" + src[0] + ")"
	case ucode.VecMad:
		expr = src[0] + " * " + src[1] + " + " + src[2]
	case ucode.VecCndEQ:
		expr = fmt.Sprintf("(%s == 0.0f) ? %s : %s", src[0], src[1], src[2])
	case ucode.VecCndGE:
		expr = fmt.Sprintf("(%s >= 0.0f) ? %s : %s", src[0], src[1], src[2])
	case ucode.VecCndGT:
		expr = fmt.Sprintf("(%s > 0.0f) ? %s : %s", src[0], src[1], src[2])
	case ucode.VecDot4:
		expr = fmt.Sprintf("dot(%s, %s)", src[0], src[1])
	case ucode.VecDot3:
		expr = fmt.Sprintf("dot((%s).xyz, (%s).xyz)", src[0], src[1])
	case ucode.VecDot2Add:
		expr = fmt.Sprintf("dot((%s).xy, (%s).xy) + (%s).x", src[0], src[1], src[2])
	case ucode.VecCube:
		e.Helper(cubeFunc)
		expr = fmt.Sprintf("cube_func(%s, %s)", src[0], src[1])
	case ucode.VecMax4:
		e.Helper(max4Func)
		expr = "max4_func(" + src[0] + ")"
	case ucode.VecSetpEQPush, ucode.VecSetpNEPush, ucode.VecSetpGTPush, ucode.VecSetpGEPush:
		name := op.String()
		e.Helper(vectorSetpFunc(name, compareOps[name[5:7]]))
		expr = fmt.Sprintf("%s_func(%s, %s)", name, src[0], src[1])
		e.Registers.P0.Valid = true
	case ucode.VecKillEQ, ucode.VecKillGT, ucode.VecKillGE, ucode.VecKillNE:
		name := op.String()
		e.Helper(vectorKillFunc(name, compareOps[name[5:]]))
		expr = fmt.Sprintf("%s_func(%s, %s)", name, src[0], src[1])
	case ucode.VecDst:
		expr = fmt.Sprintf("dst(%s, %s)", src[0], src[1])
	case ucode.VecMaxA:
		e.Helper(maxaFunc)
		expr = fmt.Sprintf("maxa_func(%s, %s)", src[0], src[1])
		e.Registers.A0.Valid = true
	default:
		e.Comment(a.VectorAsm())
		return
	}
	if a.VectorClamp {
		expr = "saturate(" + expr + ")"
	}

	pred := e.predicate(a.Predicated, a.PredCondition)
	var stmt string
	switch mask := a.VectorWriteMask; {
	case mask == 0 && !a.Export:
		// pv keeps its value; only side effects remain.
		e.emit(pred + expr + ";")
		return
	case mask == 0xF || mask == 0:
		stmt = fmt.Sprintf("%s = pv = %s;", e.dest(a, a.VectorDest, a.VectorDestRelative), expr)
	default:
		m := ucode.MaskString(mask)
		stmt = fmt.Sprintf("%s.%s = (pv = %s).%s;", e.dest(a, a.VectorDest, a.VectorDestRelative), m, expr, m)
	}
	e.emit(pred + stmt)
	// A failed predicate leaves pv undefined.
	e.Registers.PV.Valid = pred == ""
}

func (e *Emitter) scalar(a *ucode.ALU) {
	c0, c1 := a.ScalarComponents()
	var x, y string
	switch a.ScalarOp.Operands() {
	case ucode.ScalarA:
		x = e.scalarSource(a, c0, false)
	case ucode.ScalarAB:
		x, y = e.scalarSource(a, c0, false), e.scalarSource(a, c1, false)
	case ucode.ScalarConst:
		x = e.scalarSource(a, c0, true)
		y = fmt.Sprintf("r[%d].%c", a.ScalarTemp, components[c1])
	}

	var expr string
	switch op := a.ScalarOp; op {
	case ucode.ScaAdd, ucode.ScaAddConst0:
		expr = x + " + " + y
	case ucode.ScaSub, ucode.ScaSubConst0:
		expr = x + " - " + y
	case ucode.ScaMul, ucode.ScaMulConst0:
		expr = x + " * " + y
	case ucode.ScaAddPrev:
		e.Helper(addsPrevFunc)
		expr = "adds_prev_func(" + x + ")"
		e.read(&e.Registers.PS)
	case ucode.ScaMulPrev:
		e.Helper(mulsPrevFunc)
		expr = "muls_prev_func(" + x + ")"
		e.read(&e.Registers.PS)
	case ucode.ScaSubPrev:
		e.Helper(subsPrevFunc)
		expr = "subs_prev_func(" + x + ")"
		e.read(&e.Registers.PS)
	case ucode.ScaMulPrev2:
		ps := e.read(&e.Registers.PS)
		expr = fmt.Sprintf("(%s == -FLT_MAX || isinf(%s) || isnan(%s) || %s <= 0.0f) ? -FLT_MAX : %s * %s", ps, ps, y, y, x, ps)
		e.Declare("FLT_MAX", fltMax)
	case ucode.ScaMax:
		expr = "max(" + x + ", " + y + ")"
	case ucode.ScaMin:
		expr = "min(" + x + ", " + y + ")"
	case ucode.ScaSetEQ:
		expr = fmt.Sprintf("(%s == 0.0f) ? 1.0f : 0.0f", x)
	case ucode.ScaSetGT:
		expr = fmt.Sprintf("(%s > 0.0f) ? 1.0f : 0.0f", x)
	case ucode.ScaSetGE:
		expr = fmt.Sprintf("(%s >= 0.0f) ? 1.0f : 0.0f", x)
	case ucode.ScaSetNE:
		expr = fmt.Sprintf("(%s != 0.0f) ? 1.0f : 0.0f", x)
	case ucode.ScaFrac:
		expr = "frac(" + x + ")"
	case ucode.ScaTrunc:
		expr = "trunc(" + x + ")"
	case ucode.ScaFloor:
		expr = "floor(" + x + ")"
	case ucode.ScaExp:
		expr = "exp2(" + x + ")"
	case ucode.ScaLog:
		expr = "log2(" + x + ")"
	case ucode.ScaLogClamp:
		expr = "max(log2(" + x + "), -FLT_MAX)"
		e.Declare("FLT_MAX", fltMax)
	case ucode.ScaRcp:
		expr = "1.0f / " + x
	case ucode.ScaRcpClamp:
		expr = "clamp(1.0f / " + x + ", -FLT_MAX, FLT_MAX)"
		e.Declare("FLT_MAX", fltMax)
	case ucode.ScaRcpFlush:
		expr = fmt.Sprintf("isinf(1.0f / %s) ? 0.0f : 1.0f / %s", x, x)
	case ucode.ScaRsq:
		expr = "rsqrt(" + x + ")"
	case ucode.ScaRsqClamp:
		expr = "clamp(rsqrt(" + x + "), -FLT_MAX, FLT_MAX)"
		e.Declare("FLT_MAX", fltMax)
	case ucode.ScaRsqFlush:
		expr = fmt.Sprintf("isinf(rsqrt(%s)) ? 0.0f : rsqrt(%s)", x, x)
	case ucode.ScaMaxA:
		e.Helper(maxasFunc)
		expr = fmt.Sprintf("maxas_func(%s, %s)", x, y)
		e.Registers.A0.Valid = true
	case ucode.ScaMaxAFloor:
		e.Helper(maxasfFunc)
		expr = fmt.Sprintf("maxasf_func(%s, %s)", x, y)
		e.Registers.A0.Valid = true
	case ucode.ScaSetpEQ, ucode.ScaSetpNE, ucode.ScaSetpGT, ucode.ScaSetpGE:
		name := op.String()
		e.Helper(scalarSetpFunc(name, compareOps[name[5:]]))
		expr = name + "_func(" + x + ")"
		e.Registers.P0.Valid = true
	case ucode.ScaSetpInv:
		e.Helper(setpInvFunc)
		expr = "setp_inv_func(" + x + ")"
		e.Registers.P0.Valid = true
	case ucode.ScaSetpPop:
		e.Helper(setpPopFunc)
		expr = "setp_pop_func(" + x + ")"
		e.Registers.P0.Valid = true
	case ucode.ScaSetpClear:
		e.Helper(setpClrFunc)
		e.Declare("FLT_MAX", fltMax)
		expr = "setp_clr_func()"
		e.Registers.P0.Valid = true
	case ucode.ScaSetpRestore:
		e.Helper(setpRstrFunc)
		expr = "setp_rstr_func(" + x + ")"
		e.Registers.P0.Valid = true
	case ucode.ScaKillEQ, ucode.ScaKillGT, ucode.ScaKillGE, ucode.ScaKillNE:
		name := op.String()
		e.Helper(scalarKillFunc(name, compareOps[name[6:]]))
		expr = name + "_func(" + x + ")"
	case ucode.ScaKillOne:
		e.Helper(killsOneFunc)
		expr = "kills_one_func(" + x + ")"
	case ucode.ScaSqrt:
		expr = "sqrt(" + x + ")"
	case ucode.ScaSin:
		expr = "sin(" + x + ")"
	case ucode.ScaCos:
		expr = "cos(" + x + ")"
	case ucode.ScaRetainPrev:
		expr = e.read(&e.Registers.PS)
	default:
		e.Comment(a.ScalarAsm())
		return
	}
	if a.ScalarClamp {
		expr = "saturate(" + expr + ")"
	}

	var dst string
	if a.Export {
		dst = e.dest(a, a.VectorDest, false)
	} else {
		dst = e.dest(a, a.ScalarDest, a.ScalarDestRelative)
	}
	pred := e.predicate(a.Predicated, a.PredCondition)
	var stmt string
	switch mask := a.ScalarWriteMask; mask {
	case 0:
		e.emit(pred + expr + ";")
		return
	case 0xF:
		stmt = fmt.Sprintf("%s = ps = %s;", dst, expr)
	default:
		stmt = fmt.Sprintf("%s.%s = ps = %s;", dst, ucode.MaskString(mask), expr)
	}
	e.emit(pred + stmt)
	e.Registers.PS.Valid = pred == ""
}

