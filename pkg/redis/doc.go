// Package redis connects to a Redis server with startup retries and ping
// verification. The resulting client backs the Redis broadcaster used for
// cross-process notification events.
package redis
