package config

// Version is the current funmatch version.
// It can be overridden at build time via -ldflags.
var Version = "0.2.1"

// Reserved head symbols. Expressions using these names as plain symbols
// are interpreted structurally by the encoder and the solver.
const (
	// LambdaHead is the head of encoded binders and of the abstractions
	// the solver introduces for expression function instantiations.
	LambdaHead = "λ"

	// EFAHead marks an expression function application: the first child
	// of the application is this symbol, the second a metavariable.
	EFAHead = "@"
)

// MetaSuffix is the trailing marker used by the canonical textual
// notation to render the metavariable flag.
const MetaSuffix = "__"

// Complexity weights for constraint triage. Lower weight resolves first.
const (
	WeightFailure       = 0
	WeightSuccess       = 1
	WeightInstantiation = 2
	WeightChildren      = 3

	// EFABaseWeight is the fixed base of every expression function
	// application constraint; per-argument costs are added on top.
	EFABaseWeight = 4

	// EFAArgEstimate is the cost charged for an argument that still
	// contains a metavariable, where no exact occurrence count exists.
	EFAArgEstimate = 2
)

// DefaultStepBudget of zero means the search runs unbudgeted.
const DefaultStepBudget = 0

// FreshMetaPrefix prefixes the metavariables the solver invents during
// imitation. Fresh names never appear in produced solutions.
const FreshMetaPrefix = "H"
