// Package contract holds the shared shape of the behavioural contracts in this module.
package contract

import (
	"testing"

	"go.llib.dev/testcase"
)

// Contract is a reusable behavioural specification of a role interface.
//
// A contract is written once, from the consumer's point of view,
// and every supplier implementation runs it against itself.
// Implementations that pass the contract are interchangeable for the consumer.
type Contract interface {
	testcase.Suite
	Test(*testing.T)
	Benchmark(*testing.B)
}
