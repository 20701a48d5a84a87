// Package storage provides the per-node resource list. Each ring member
// owns one Store; resources are kept in insertion order and duplicates are
// allowed.
package storage
