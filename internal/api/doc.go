// Package api defines the chordsim.v1.Ring gRPC service. Requests and
// responses are protobuf well-known types, so the service needs no generated
// code: single-argument requests use wrapper messages, results are Structs
// built and read by the helpers in this package.
package api
