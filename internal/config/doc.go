// Package config defines the format-agnostic model of a template unit, along
// with the core interfaces (Loader, Converter) for loading units and render
// variables from various sources.
//
// A config.Unit is what the engine feeds into a builder. Concrete
// implementations of the interfaces, such as for HCL, are provided in
// separate packages.
package config
