/*
Package erb transpiles template-language source into an ordered program of
typed output operations.

The template language is literal text interleaved with three kinds of
embedded fragment:

	<% code %>     statement, executed for its effect
	<%= code %>    print, appended without escaping (unless Autoescape is set)
	<%== code %>   escaped print, always appended through the escaping path

plus `<%# ... %>` comments, `<%%` for a literal `<%`, and `-%>` which swallows
the newline that follows the tag.

The result is not executable by itself. A Program is an intermediate
representation: a preamble that binds the output buffer, a sequence of
append/statement operations, and a postamble that yields the buffer contents.
The script package compiles a Program into a closure tree; Program.Source
renders the same operations as host statements for diagnostics.

Literal output is coalesced: every maximal run of non-newline text becomes one
OpText, while bare newlines are counted and flushed as a single OpNewlines just
before the next operation that is not a newline. Literal bytes are copied
verbatim, so a Program carries text in the same encoding as its input.
*/
package erb
