// Package web holds the embedded HTML templates and static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates static
var files embed.FS

// Templates returns the template tree rooted at templates/.
func Templates() fs.FS {
	sub, err := fs.Sub(files, "templates")
	if err != nil {
		panic("web: templates dir missing: " + err.Error())
	}
	return sub
}

// Static returns the asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic("web: static dir missing: " + err.Error())
	}
	return sub
}
