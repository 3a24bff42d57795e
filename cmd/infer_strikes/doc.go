// Package main runs an exported strike classifier over a pose table and
// reports its accuracy, optionally writing one prediction per sample.
package main
