// Package engine is the loan lifecycle engine: balances, payment allocation, schedule
// advancement, status derivation and dashboard aggregation.
//
// Every function is pure. Inputs are never mutated; callers persist the returned values
// and re-invoke the engine after each change to loans or payments.
package engine
