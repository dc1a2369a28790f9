// Package observability builds the gateway's structured logger.
package observability
