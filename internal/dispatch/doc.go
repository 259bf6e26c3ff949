// Package dispatch routes decoded requests to handlers by message code and
// runs the per-group decode, handle, encode loop.
package dispatch
