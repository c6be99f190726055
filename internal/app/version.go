package app

// Version is set at build time with -ldflags "-X github.com/vk/leafkit/internal/app.Version=...".
var Version = "dev"
