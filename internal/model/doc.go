package model

// Package model defines domain data structures used across the app: download
// jobs, library records, and status enums. Structures are plain values so the
// lifecycle manager can hand out copies to the presentation layer.
