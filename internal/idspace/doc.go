// Package idspace maps addresses and resource names into the fixed-size
// identifier space shared by every ring member. Derivation is a pure
// function of the key and the space size, so identifiers are reproducible
// across process restarts.
package idspace
