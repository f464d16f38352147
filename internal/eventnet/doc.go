// Package eventnet coordinates storing and querying geo-anchored events over
// an asynchronous resource network whose keys are quantized positions.
//
// # Storing
//
// StoreEvent reads the bucket of the event's position, appends the event and
// writes the whole bucket back. Nothing guards the window between the read
// and the write: two stores racing on one bucket can both read the same value
// and the later write silently drops the earlier event. That is the contract
// of the underlying network (last write wins, full replacement) and is not
// hidden here.
//
// # Querying
//
// GetEvents fans one get out per bucket covering the query circle, all at
// once, and joins the results. The caller sees exactly one outcome: every
// event from every bucket, or the first failure. Completions arriving after
// the outcome was delivered are dropped; their requests are not cancelled.
//
// Neither operation retries.
package eventnet
