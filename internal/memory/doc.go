// Package memory is a client for the Berry memory service: fetching a
// single memory and searching memories on behalf of a persona.
//
// Requests go through a rate limiter and a circuit breaker. Content is
// reduced to plain text before it is returned.
package memory
