// Package syncutil provides the synchronization primitives node.Node and
// host.Host build their concurrency model on: a resettable [Once] guards a
// Node's dial sequence across a rebirth cycle, a generic concurrent [Map]
// backs host.Topology's group-level storage, and [Pool] reuses the scratch
// buffer spb.Compress writes into on every qualifying scan tick.
//
// Values containing the types defined in this package should not be copied.
package syncutil

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
