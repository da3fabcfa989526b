// Package preferences implements per-user notification opt-outs.
//
// The model is opt-out: a user with no stored row (or no entry for a given
// channel/category) is considered enabled. Both the channel gate and the
// category gate must pass for a notification to be dispatched externally;
// suppressed notifications are still recorded as in-app entries by the
// notification service.
package preferences
