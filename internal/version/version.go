package version

// Version is overridden at build time via -ldflags "-X runhulk/internal/version.Version=...".
var Version = "0.2.0"
