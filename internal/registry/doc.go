// Package registry maps the string identifiers used by `module` instructions
// (e.g. "html") to the statically known capability sets that implement them.
//
// Modules register themselves at application start-up. The registry is then
// validated once, so a misnamed capability fails at start-up instead of in
// the middle of a build.
package registry
