// Package sink publishes dense-block alerts.
//
// A Report is a snapshot of the detector's current block. Sinks receive a
// report every time the block changes:
//
//   - Log writes reports through slog.
//   - Blob encodes, compresses and stores reports in a blobstore.Store.
//   - Multi fans a report out to several sinks concurrently.
//   - Throttled bounds the write concurrency and rate of another sink.
//
// The dynamodb sub-package writes one item per report into a DynamoDB table.
package sink
