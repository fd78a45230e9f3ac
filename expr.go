package goquad

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// VarName is the only free variable a formula may reference.
const VarName = "x"

// ============================================================
// Core Interface
// ============================================================

// Expr is a node of a compiled formula. Eval returns ok=false when the node
// is undefined at x: division by zero, a domain error, or a non-finite
// intermediate value. Trees are immutable and safe for concurrent use.
type Expr interface {
	Eval(x float64) (float64, bool)
	String() string
	exprType() string
	toJSON() map[string]interface{}
}

func finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func truth(v float64) bool { return v != 0 }

func boolNum(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// ============================================================
// Num, Sym, Const
// ============================================================

type Num struct {
	val  float64
	text string
}

func (n *Num) Eval(float64) (float64, bool) { return n.val, true }
func (n *Num) exprType() string             { return "num" }
func (n *Num) String() string {
	if n.text != "" {
		return n.text
	}
	return strconv.FormatFloat(n.val, 'g', -1, 64)
}
func (n *Num) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "num", "value": n.val}
}

type Sym struct{ name string }

func (s *Sym) Eval(x float64) (float64, bool) { return x, true }
func (s *Sym) String() string                 { return s.name }
func (s *Sym) exprType() string               { return "sym" }
func (s *Sym) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "sym", "name": s.name}
}

var constants = map[string]float64{
	"pi": math.Pi,
	"π":  math.Pi,
	"e":  math.E,
}

type Const struct {
	name string
	val  float64
}

func (c *Const) Eval(float64) (float64, bool) { return c.val, true }
func (c *Const) String() string               { return c.name }
func (c *Const) exprType() string             { return "const" }
func (c *Const) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "const", "name": c.name, "value": c.val}
}

// ============================================================
// Arithmetic
// ============================================================

type Neg struct{ arg Expr }

func (n *Neg) Eval(x float64) (float64, bool) {
	v, ok := n.arg.Eval(x)
	if !ok {
		return 0, false
	}
	return -v, true
}
func (n *Neg) String() string   { return "-" + n.arg.String() }
func (n *Neg) exprType() string { return "neg" }
func (n *Neg) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "neg", "arg": n.arg.toJSON()}
}

const (
	opAdd = "+"
	opSub = "-"
	opMul = "*"
	opDiv = "/"
	opPow = "**"
)

type Binary struct {
	op   string
	l, r Expr
}

func (b *Binary) Eval(x float64) (float64, bool) {
	l, ok := b.l.Eval(x)
	if !ok {
		return 0, false
	}
	r, ok := b.r.Eval(x)
	if !ok {
		return 0, false
	}
	switch b.op {
	case opAdd:
		return finite(l + r)
	case opSub:
		return finite(l - r)
	case opMul:
		return finite(l * r)
	case opDiv:
		if r == 0 {
			return 0, false
		}
		return finite(l / r)
	case opPow:
		// Negative base with a fractional exponent and 0**negative both
		// come back non-finite from math.Pow.
		return finite(math.Pow(l, r))
	}
	return 0, false
}

func (b *Binary) String() string {
	return "(" + b.l.String() + " " + b.op + " " + b.r.String() + ")"
}
func (b *Binary) exprType() string { return "binary" }
func (b *Binary) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "binary", "op": b.op, "left": b.l.toJSON(), "right": b.r.toJSON()}
}

// ============================================================
// Func — whitelisted elementary functions
// ============================================================

var elementary = map[string]func(float64) (float64, bool){
	"sin":  func(v float64) (float64, bool) { return finite(math.Sin(v)) },
	"cos":  func(v float64) (float64, bool) { return finite(math.Cos(v)) },
	"tan":  func(v float64) (float64, bool) { return finite(math.Tan(v)) },
	"sinh": func(v float64) (float64, bool) { return finite(math.Sinh(v)) },
	"cosh": func(v float64) (float64, bool) { return finite(math.Cosh(v)) },
	"tanh": func(v float64) (float64, bool) { return finite(math.Tanh(v)) },
	"exp":  func(v float64) (float64, bool) { return finite(math.Exp(v)) },
	"log":  logPositive,
	"ln":   logPositive,
	"sqrt": func(v float64) (float64, bool) {
		if v < 0 {
			return 0, false
		}
		return finite(math.Sqrt(v))
	},
}

func logPositive(v float64) (float64, bool) {
	if v <= 0 {
		return 0, false
	}
	return finite(math.Log(v))
}

// Functions returns the names callable from a formula.
func Functions() []string {
	return []string{"sin", "cos", "tan", "sinh", "cosh", "tanh", "exp", "log", "ln", "sqrt"}
}

type Func struct {
	name string
	arg  Expr
}

func (f *Func) Eval(x float64) (float64, bool) {
	v, ok := f.arg.Eval(x)
	if !ok {
		return 0, false
	}
	fn, ok := elementary[f.name]
	if !ok {
		return 0, false
	}
	return fn(v)
}
func (f *Func) String() string   { return f.name + "(" + f.arg.String() + ")" }
func (f *Func) exprType() string { return "func" }
func (f *Func) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "func", "name": f.name, "arg": f.arg.toJSON()}
}

// ============================================================
// Comparisons, logic, conditional
// ============================================================

// Compare is a comparison chain: a < b <= c means a < b and b <= c.
// It evaluates to 1 or 0.
type Compare struct {
	ops  []string
	args []Expr
}

func (c *Compare) Eval(x float64) (float64, bool) {
	l, ok := c.args[0].Eval(x)
	if !ok {
		return 0, false
	}
	for i, op := range c.ops {
		r, ok := c.args[i+1].Eval(x)
		if !ok {
			return 0, false
		}
		if !compare(op, l, r) {
			return 0, true
		}
		l = r
	}
	return 1, true
}

func compare(op string, l, r float64) bool {
	switch op {
	case "==":
		return l == r
	case "!=":
		return l != r
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	case ">=":
		return l >= r
	}
	return false
}

func (c *Compare) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(c.args[0].String())
	for i, op := range c.ops {
		sb.WriteString(" " + op + " ")
		sb.WriteString(c.args[i+1].String())
	}
	sb.WriteString(")")
	return sb.String()
}
func (c *Compare) exprType() string { return "compare" }
func (c *Compare) toJSON() map[string]interface{} {
	args := make([]interface{}, len(c.args))
	for i, a := range c.args {
		args[i] = a.toJSON()
	}
	return map[string]interface{}{"type": "compare", "ops": c.ops, "args": args}
}

// Logic is a short-circuit "and"/"or" that yields the deciding operand.
type Logic struct {
	op   string
	l, r Expr
}

func (g *Logic) Eval(x float64) (float64, bool) {
	l, ok := g.l.Eval(x)
	if !ok {
		return 0, false
	}
	if (g.op == "and") != truth(l) {
		return l, true
	}
	return g.r.Eval(x)
}
func (g *Logic) String() string {
	return "(" + g.l.String() + " " + g.op + " " + g.r.String() + ")"
}
func (g *Logic) exprType() string { return "logic" }
func (g *Logic) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "logic", "op": g.op, "left": g.l.toJSON(), "right": g.r.toJSON()}
}

type Not struct{ arg Expr }

func (n *Not) Eval(x float64) (float64, bool) {
	v, ok := n.arg.Eval(x)
	if !ok {
		return 0, false
	}
	return boolNum(!truth(v)), true
}
func (n *Not) String() string   { return "(not " + n.arg.String() + ")" }
func (n *Not) exprType() string { return "not" }
func (n *Not) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "not", "arg": n.arg.toJSON()}
}

// Cond is "then if cond else els". Only the selected branch is evaluated,
// so sin(x)/x if x != 0 else 1 is defined at 0.
type Cond struct {
	then, cond, els Expr
}

func (c *Cond) Eval(x float64) (float64, bool) {
	t, ok := c.cond.Eval(x)
	if !ok {
		return 0, false
	}
	if truth(t) {
		return c.then.Eval(x)
	}
	return c.els.Eval(x)
}
func (c *Cond) String() string {
	return "(" + c.then.String() + " if " + c.cond.String() + " else " + c.els.String() + ")"
}
func (c *Cond) exprType() string { return "cond" }
func (c *Cond) toJSON() map[string]interface{} {
	return map[string]interface{}{
		"type": "cond",
		"then": c.then.toJSON(),
		"cond": c.cond.toJSON(),
		"else": c.els.toJSON(),
	}
}

// ============================================================
// Function — a compiled formula
// ============================================================

// Function is a compiled formula ready for repeated evaluation.
type Function struct {
	source string
	root   Expr
}

// Compile parses formula into a Function. Errors are *ParseError values.
func Compile(formula string) (*Function, error) {
	root, err := Parse(formula)
	if err != nil {
		return nil, err
	}
	return &Function{source: formula, root: root}, nil
}

// MustCompile is Compile for formulas known at build time.
func MustCompile(formula string) *Function {
	f, err := Compile(formula)
	if err != nil {
		panic("goquad: " + err.Error())
	}
	return f
}

func (f *Function) At(x float64) Point {
	v, ok := f.root.Eval(x)
	if !ok {
		return Invalid()
	}
	return pointOf(v)
}

func (f *Function) Source() string { return f.source }
func (f *Function) Expr() Expr     { return f.root }
func (f *Function) String() string { return f.root.String() }

// EvaluateAt compiles and evaluates formula at x. Any failure, including a
// syntax error, yields the invalid marker.
func EvaluateAt(formula string, x float64) Point {
	f, err := Compile(formula)
	if err != nil {
		return Invalid()
	}
	return f.At(x)
}

// ============================================================
// JSON Serialization
// ============================================================

func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

// TypeOf names the node kind ("num", "binary", "func", ...).
func TypeOf(e Expr) string { return e.exprType() }
