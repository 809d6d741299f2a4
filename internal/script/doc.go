// Package script compiles transpiled templates into executable closure trees.
//
// It is the host language of the template engine. Expressions use HCL native
// syntax evaluated over cty values, with `@name` accepted as shorthand for
// `self.name`. Statements are a small line-oriented language:
//
//	@name = expr            instance variable, shared by the whole render
//	name = expr             local variable
//	if expr / unless expr / elsif expr / else / end
//	for v in expr / for k, v in expr ... end
//	expr.each do |v| ... end   (or `{ |v|` ... `}`)
//	expr                    evaluated for its side effects
//
// A print whose code opens a block (`<%= wrap("em") do %>...<% end %>`)
// renders its body first and passes the result as the last argument of the
// call.
//
// Nothing is evaluated at compile time; Compile only parses, so a syntax error
// is reported before any method is installed.
package script
