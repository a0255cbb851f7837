// Package producer implements the asynchronous side of callbridge: fanning
// a logical request out to its registered callbacks on the background
// worker, with a pluggable policy deciding each callback's delay and
// success or failure.
package producer
