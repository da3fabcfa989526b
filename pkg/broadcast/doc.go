// Package broadcast provides a generic publish/subscribe primitive used for
// live notification updates.
//
// Two implementations are included: MemoryBroadcaster for single-process
// deployments and tests, and RedisBroadcaster for multi-replica deployments
// where events published by a queue worker must reach subscribers connected
// to another instance.
//
// Both implementations favor the publisher: a subscriber that cannot drain
// its buffer has messages dropped rather than slowing everyone else down.
package broadcast
