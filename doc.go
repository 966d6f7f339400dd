// Package densealert detects dense blocks in streams of weighted tuples.
//
// A tuple names one attribute value per mode, for example
// (user, source IP, hour), and carries a positive weight. The detector keeps
// the tuples in a sparse tensor and maintains, under insertions and
// deletions, a block whose density (block mass divided by the number of
// attribute values in it) is at least half of the densest block's. Sudden
// dense blocks in behavioral logs are the signature of bot activity, rating
// fraud and network attacks.
//
// # Quick Start
//
//	d, _ := densealert.New(3)
//	_ = d.Insert(ctx, densealert.Tuple{Keys: []string{"alice", "10.0.0.1", "09h"}, Weight: 1})
//	if d.BlockChanged() {
//	    fmt.Println(d.Density(), d.Block())
//	    d.ClearChanged()
//	}
//
// Every update costs time proportional to the part of the peeling order it
// can affect, not to the size of the tensor.
//
// # Windows
//
// Window expires tuples a fixed span after their arrival, turning the
// detector into a sliding-window alarm:
//
//	w, _ := densealert.NewWindow(3, time.Hour)
//	_ = w.Insert(ctx, tuple, eventTime)
//
// # Reports
//
// With WithSink, every change of the block's members publishes a
// sink.Report. The sink package offers log, blob storage, fan-out and
// throttled sinks; sink/dynamodb writes reports into a DynamoDB table.
//
// # Concurrency
//
// Detector and Window are safe for concurrent use. Mutations are serialized.
package densealert
