// Package trainer provides the training orchestration for the strike
// classifier: the epoch loop over shuffled mini-batches, chunked evaluation
// on held out data, per-epoch history and resuming from an earlier export.
package trainer
