package platform

// Package platform contains OS-specific helpers: locating the user's Downloads
// directory and opening a folder in the system file manager.
