// Package schema defines declarative per-platform content descriptors and
// the validation machinery around them: a registry of named descriptors, a
// one-pass constraint validator, an explicit normalization (repair) step,
// and the feedback formatter that turns validation issues into a directive
// block for the next generation prompt.
//
// Descriptors are static configuration: loaded once, shared read-only
// across jobs. Nothing in this package mutates a descriptor after load.
package schema
