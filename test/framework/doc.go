// Package framework provides helpers for broker test suites: booting an
// embedded broker, creating queues that clean up after themselves, and
// polling waiters for asynchronous conditions.
package framework
