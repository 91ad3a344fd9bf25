// Package appfs embeds the app's static assets: database migrations,
// email templates and the common-passwords list.
package appfs

import "embed"

//go:embed migrations assets
var FS embed.FS
