// Package events provides the state-transition notification fan-out.
//
// Every applied job transition is published as a JobEvent to zero or more
// subscribers. Delivery is best-effort: a failing or missing subscriber
// never blocks or fails the transition that produced the event. Within one
// job, events are delivered in the order the transitions were applied.
package events
