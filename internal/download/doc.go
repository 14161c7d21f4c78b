package download

// Package download implements the job lifecycle manager. A single loop owns
// all job state, merges engine events into it, commits finished downloads to
// the library and publishes read-only snapshots for the presentation layer.
