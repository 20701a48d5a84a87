// Package ring implements a Chord-style identifier ring. Members are kept
// sorted by the identifier derived from their address, each member links to
// its successor and predecessor, and keys are routed to the first member
// whose identifier is greater than or equal to the key's, wrapping around to
// the lowest member.
//
// Limitations:
// - Resources are never migrated when membership changes
// - Routing is a full-membership lookup, there are no finger tables
package ring
