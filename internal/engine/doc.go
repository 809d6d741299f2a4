// Package engine compiles template units on demand and renders their pages.
//
// Each unit file is loaded through a config.Loader and compiled by its own
// builder into its own environment. The engine keeps that state between
// calls and consults the builder's freshness record before rebuilding, so a
// unit is recompiled only when one of its files, an imported taglib, or the
// set of local names a render binds has changed.
//
// Check walks directories and compiles every unit and taglib it finds with a
// small worker pool, reporting each failure.
package engine
