// Package bridge implements the deferred registration hand-off between page
// fragments that produce implementor tables and the consumer that indexes them.
//
// A Bridge starts in StateConsumerAbsent. Submit either forwards a value to the
// attached consumer synchronously or parks it in the pending slot. Attach moves
// the bridge to StateConsumerPresent, once, and flushes whatever is pending.
// Every submitted value reaches the consumer at most once; under PolicyQueue
// every submitted value reaches it exactly once, while PolicyOverwrite (the
// default) keeps only the latest value submitted before attachment.
//
// A second Attach is rejected with ErrAlreadyAttached and the first consumer
// stays in place.
//
// Hub keeps one Bridge per page (one page per trait) and can attach a single
// consumer factory to all of them.
package bridge
