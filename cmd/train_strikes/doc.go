// Package main trains the strike classifier. It loads a pose table, encodes
// every pose into distance features, standardizes them, holds out a random
// test partition, fits the dense network and exports it as a TensorFlow.js
// layers-model together with a per-epoch history table.
package main
