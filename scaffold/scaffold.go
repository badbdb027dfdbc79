// Package scaffold provides embedded template files for the gitpress CLI
// project scaffolding tool.
package scaffold

import "embed"

// Templates contains all scaffold files. Files with a .tmpl suffix use Go
// text/template syntax and are executed with the project data; everything
// else is copied verbatim, which keeps the site's own html/template files
// intact.
//
//go:embed all:templates
var Templates embed.FS
