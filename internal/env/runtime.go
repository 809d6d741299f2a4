package env

import (
	"errors"
	"fmt"
	"html"
	"maps"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// MaxCallDepth bounds nested method calls within one render.
const MaxCallDepth = 200

// ErrCallDepth is returned when a render nests method calls past MaxCallDepth.
var ErrCallDepth = errors.New("method call depth exceeded")

// safeMark is the cty mark carried by strings that must not be escaped.
type safeMark struct{}

// MarkSafe marks v as already escaped.
func MarkSafe(v cty.Value) cty.Value {
	return v.Mark(safeMark{})
}

// IsSafe reports whether v carries the safe mark.
func IsSafe(v cty.Value) bool {
	return v.HasMark(safeMark{})
}

// Buffer is the output buffer compiled templates append to.
type Buffer struct {
	b strings.Builder
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// SafeAppend appends literal template text.
func (b *Buffer) SafeAppend(s string) {
	b.b.WriteString(s)
}

// Append appends the string form of v without escaping.
func (b *Buffer) Append(v cty.Value) error {
	s, err := ToString(v)
	if err != nil {
		return err
	}
	b.b.WriteString(s)
	return nil
}

// AppendEscaped appends the HTML-escaped string form of v. Values marked
// safe are appended as they are.
func (b *Buffer) AppendEscaped(v cty.Value) error {
	s, err := ToString(v)
	if err != nil {
		return err
	}
	if IsSafe(v) {
		b.b.WriteString(s)
		return nil
	}
	b.b.WriteString(html.EscapeString(s))
	return nil
}

// String returns the buffer contents.
func (b *Buffer) String() string {
	return b.b.String()
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int {
	return b.b.Len()
}

// ToString converts a printable value to its string form. Null prints as
// the empty string; collections are not printable.
func ToString(v cty.Value) (string, error) {
	v, _ = v.UnmarkDeep()
	if v.IsNull() {
		return "", nil
	}
	if !v.IsKnown() {
		return "", fmt.Errorf("cannot print an unknown value")
	}
	sv, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("cannot print a value of type %s", v.Type().FriendlyName())
	}
	return sv.AsString(), nil
}

// Context is the state a compiled method runs against.
type Context struct {
	Env *Environment
	// Self holds the instance variables of the render. It is shared by
	// every method called during the render.
	Self map[string]cty.Value
	// This is the current object context.
	This cty.Value
	// Buffer, when set, is reused by the next method preamble instead of a
	// fresh buffer.
	Buffer *Buffer

	depth int
}

// NewContext creates the root context of a render. Instance variables start
// as a copy of the environment's build-time attributes.
func NewContext(e *Environment, this cty.Value) *Context {
	self := e.Attrs()
	if self == nil {
		self = make(map[string]cty.Value)
	}
	return &Context{Env: e, Self: self, This: this}
}

// Call returns the context a nested method call runs in: same instance
// variables and object context, no caller buffer.
func (rc *Context) Call() (*Context, error) {
	if rc.depth >= MaxCallDepth {
		return nil, ErrCallDepth
	}
	return &Context{Env: rc.Env, Self: rc.Self, This: rc.This, depth: rc.depth + 1}, nil
}

// WithEnv returns a copy of rc that resolves functions against e.
func (rc *Context) WithEnv(e *Environment) *Context {
	c := *rc
	c.Env = e
	return &c
}

// NewObjectContext runs fn with this as the current object context and
// restores the previous one afterwards.
func (rc *Context) NewObjectContext(this cty.Value, fn func() error) error {
	prev := rc.This
	rc.This = this
	defer func() { rc.This = prev }()
	return fn()
}

// SelfValue returns the instance variables as a cty object.
func (rc *Context) SelfValue() cty.Value {
	if len(rc.Self) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(maps.Clone(rc.Self))
}
