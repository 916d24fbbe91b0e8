package types

// Version is the canonical project version.
// The CLI and the event wire contract share this version.
const Version = "0.2.0"
