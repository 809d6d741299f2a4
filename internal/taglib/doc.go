// Package taglib resolves `include` references to taglib files and builds
// them into their own environments.
//
// A reference is looked up next to the importing template first, then in
// each configured search path, trying the reference as written and with the
// `.taglib.hcl` suffix. A resolved taglib is compiled once and cached by
// absolute path; it is rebuilt when its file, or the file of any taglib it
// includes, changes. Importing a taglib mixes its methods and functions into
// the importing environment, under `as::` when an alias is given.
package taglib
