package gitpress

import "embed"

// EmbeddedAssets contains static assets shipped with the admin panel:
// admin.css, admin.js
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
