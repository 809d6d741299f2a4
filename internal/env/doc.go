// Package env holds the compilation target and the render runtime.
//
// An Environment is an explicit, versioned table of compiled methods plus the
// capability functions mixed into it. Installing a method is a map insert,
// mixing in a capability set is a merge, and every mutation bumps Version so
// callers can tell whether a target changed. Nothing registers itself
// globally: taglibs and modules are merged only through MixIn.
//
// The runtime half (Context, Buffer) is what compiled methods execute
// against: an appendable output buffer, the instance variables shared by one
// render, and the current object context.
package env
