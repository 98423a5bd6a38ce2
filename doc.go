// Package lastcast provides a conflated broadcast channel:
// a single-slot publish-subscribe primitive that always holds
// the most recently published value and delivers it to
// every active subscriber.
//
// Values published while a subscriber is behind are dropped,
// so a lagging subscriber only ever observes the latest value,
// never an out-of-order one.
// Publishing never blocks, regardless of subscriber count or pace.
//
// The [Channel] type is the publisher-facing core;
// each call to [*Channel.OpenSubscription] produces an independent
// [Subscription] whose conflated inbox is fanned into on every publish.
package lastcast
