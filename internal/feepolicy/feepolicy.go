// Package feepolicy implements mempool.FeeMatcher with a static
// minimum-fee floor, the simplest concrete instance of the spec's
// "dynamic-fee policy engine" collaborator.
package feepolicy

import "github.com/stathera/txadmission/internal/mempool"

// feeAware is satisfied by any Transaction implementation that can
// report its own fee; mempool.Transaction itself carries no fee
// field, so the matcher degrades to rejecting anything that doesn't
// implement it.
type feeAware interface {
	Fee() float64
}

// StaticMatcher enters a transaction into the pool once its fee meets
// EnterPoolFloor, and additionally marks it for broadcast once it
// meets the (typically higher) BroadcastFloor.
type StaticMatcher struct {
	EnterPoolFloor float64
	BroadcastFloor float64
}

// NewStaticMatcher constructs a StaticMatcher with the given floors.
func NewStaticMatcher(enterPoolFloor, broadcastFloor float64) *StaticMatcher {
	return &StaticMatcher{EnterPoolFloor: enterPoolFloor, BroadcastFloor: broadcastFloor}
}

// Match classifies tx's fee against both floors.
func (m *StaticMatcher) Match(tx mempool.Transaction) mempool.FeeDecision {
	aware, ok := tx.(feeAware)
	if !ok {
		return mempool.FeeDecision{}
	}
	fee := aware.Fee()
	return mempool.FeeDecision{
		EnterPool: fee >= m.EnterPoolFloor,
		Broadcast: fee >= m.BroadcastFloor,
	}
}
