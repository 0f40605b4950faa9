// Package errors provides structured, actionable error messages for the
// reactive-variable engine.
//
// Each engine error has a unique code (e.g. "Z020") that maps to a short
// message, a detailed explanation, and a fix suggestion. Programmer errors
// (type-erased downcast mismatches, uninitialized context reads) panic with
// the formatted code so the failure is attributable without a debugger;
// recoverable conditions (read-only writes) are returned as values by the
// engine package and only use this package for their message text.
//
// # Usage
//
//	panic(errors.New("Z020").
//	    WithDetail("expected int, got string").
//	    Format())
package errors
