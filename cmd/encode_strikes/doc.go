// Package main writes the distance features of a pose table as CSV and prints
// summary statistics of every feature column.
package main
