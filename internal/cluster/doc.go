// Package cluster drives one long-lived ring through the operations an
// interactive user issues: building a ring of generated addresses, listing
// members, activating and deactivating roster slots, and inserting, searching
// and listing resources.
//
// Every address the cluster has ever generated or joined keeps a roster slot,
// so a deactivated node can be activated again by the same slot number.
package cluster
