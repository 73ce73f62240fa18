// Package player owns the per-guild playback queues.
//
// A guild is either ABSENT (no Queue in the Store) or ACTIVE (a Queue holding
// a voice connection, a render session and the tracks waiting behind the one
// being rendered). The Controller drives every transition:
//
//	ABSENT --enqueue--> ACTIVE
//	ACTIVE --natural end, pending--> ACTIVE
//	ACTIVE --natural end, no pending--> ABSENT
//	ACTIVE --stop--> ABSENT
//	ACTIVE --skip--> same path as natural end
//
// All transitions for one guild run inside that guild's critical section
// (Store.Lock), so two enqueues racing on an empty guild join the voice
// channel only once. Guilds never wait on each other.
package player
