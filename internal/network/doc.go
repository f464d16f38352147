// Package network defines the asynchronous resource network the event
// coordinator runs against, and a BlobStore-backed implementation of it.
//
// A ResourceNetwork maps keys to whole values. Every GetResource and
// SetResource call returns immediately and later invokes its callback exactly
// once, on a goroutine owned by the network. Failed operations carry a
// *Failure whose Reason tells callers why, see ReasonOf.
package network
