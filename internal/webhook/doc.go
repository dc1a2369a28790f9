// Package webhook authenticates and dispatches document-signing provider
// callbacks.
//
// A delivery is a raw JSON body plus a base64 HMAC-SHA256 signature passed
// out-of-band. The body is never parsed until the signature matches; after
// that the whole batch is decoded (or rejected) and each event is routed by
// its kind to a downstream action. One failing action never stops the rest
// of the batch.
package webhook
