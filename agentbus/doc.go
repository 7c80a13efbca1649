/*
Package agentbus provides an in-process publish/subscribe router for
coordinating worker agents that compete for the same topics.

A Registry keeps the ordered handlers of every topic. A Bus resolves each
send to a subset of those handlers under a fixed conflict-resolution policy,
invokes them, and writes subscribe, send and handle records to a sink.
*/
package agentbus
