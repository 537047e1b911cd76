// Package session persists portal login flow state between user
// interactions.
//
// A [Record] is the single source of truth for one flow: the current
// step, the email under verification, and the OTP request timestamps
// that cooldowns are derived from. Records are stored as a compact
// versioned binary blob, not JSON, so a busy portal frontend polling
// flow state does not pay reflection costs on every read.
//
// A [TokenRecord] holds the bearer credential issued by the gateway once
// a flow reaches the dashboard. Tokens are stored separately from flow
// records so deleting a flow on restart never revokes a live login.
//
// [Store] is the persistence contract; [RedisStore] is the production
// implementation and [MemStore] the dependency-free one for tests and
// demos.
package session
