// Package service exposes a cluster over gRPC and provides the matching
// client. Ring members are simulated inside the serving process and never
// contact each other; the network surface exists only for remote drivers.
package service
