package text

import (
	"strings"
	"unicode/utf8"

	"github.com/vk/tagforge/internal/env"
	"github.com/vk/tagforge/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// DefaultOmission is appended by truncate when no omission is given.
const DefaultOmission = "..."

// Register registers the `text` capability set.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCapability(env.NewCapabilitySet("text").
		Function("upcase", stringFunc(strings.ToUpper)).
		Function("downcase", stringFunc(strings.ToLower)).
		Function("titleize", stringFunc(Titleize)).
		Function("truncate", TruncateFunc).
		Function("pluralize", PluralizeFunc))
}

// stringFunc lifts a string transformation into a cty function. The result is
// a new string, so marks on the argument are dropped.
func stringFunc(fn func(string) string) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "str", Type: cty.String, AllowMarked: true},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			s, _ := args[0].Unmark()
			return cty.StringVal(fn(s.AsString())), nil
		},
	})
}

// Titleize capitalises every word of s. Underscores separate words.
func Titleize(s string) string {
	// A Caser keeps state between calls, so each call gets its own.
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

// TruncateFunc is truncate(str, length, [omission]): str cut to at most
// length characters, the omission included.
var TruncateFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "str", Type: cty.String, AllowMarked: true},
		{Name: "length", Type: cty.Number},
	},
	VarParam: &function.Parameter{Name: "omission", Type: cty.String},
	Type:     function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		s, _ := args[0].Unmark()
		n, acc := args[1].AsBigFloat().Int64()
		if acc != 0 || n < 0 {
			return cty.NilVal, function.NewArgErrorf(1, "length must be a non-negative whole number")
		}
		omission := DefaultOmission
		if len(args) > 2 {
			omission = args[2].AsString()
		}
		return cty.StringVal(Truncate(s.AsString(), int(n), omission)), nil
	},
})

// Truncate cuts s to at most n runes, ending in omission when cut.
func Truncate(s string, n int, omission string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	keep := n - utf8.RuneCountInString(omission)
	if keep <= 0 {
		return string([]rune(omission)[:n])
	}
	return string([]rune(s)[:keep]) + omission
}

// PluralizeFunc is pluralize(count, singular, [plural]): the count followed
// by the singular word when count is 1, the plural otherwise.
var PluralizeFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "count", Type: cty.Number},
		{Name: "singular", Type: cty.String},
	},
	VarParam: &function.Parameter{Name: "plural", Type: cty.String},
	Type:     function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		count := args[0].AsBigFloat()
		word := args[1].AsString()
		if !count.IsInt() || count.Cmp(one) != 0 {
			if len(args) > 2 {
				word = args[2].AsString()
			} else {
				word = Plural(word)
			}
		}
		return cty.StringVal(count.Text('f', -1) + " " + word), nil
	},
})

var one = cty.NumberIntVal(1).AsBigFloat()

// Plural returns the regular English plural of word.
func Plural(word string) string {
	lower := strings.ToLower(word)
	switch {
	case word == "":
		return word
	case strings.HasSuffix(lower, "y") && len(lower) > 1 && !strings.ContainsRune("aeiou", rune(lower[len(lower)-2])):
		return word[:len(word)-1] + "ies"
	case strings.HasSuffix(lower, "s"), strings.HasSuffix(lower, "x"), strings.HasSuffix(lower, "z"),
		strings.HasSuffix(lower, "ch"), strings.HasSuffix(lower, "sh"):
		return word + "es"
	}
	return word + "s"
}
