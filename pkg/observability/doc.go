/*
Package observability provides lifecycle hooks for monitoring a Beadnet network.

It includes Prometheus metrics fed by network events, structured logging
hooks, and Chain to combine several domain.LifecycleHooks into one.
*/
package observability
