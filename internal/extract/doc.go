// Package extract runs resource extraction jobs.
//
// Ownership boundary:
// - job planning from configuration
// - bounded parallel execution and per-job results
// - routing between the FSD decoder and the SQLite dumper
// - atomic output writes
package extract
