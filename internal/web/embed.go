// Package web embeds the demo blog's posts and the widget client script.
package web

import (
	"embed"
	"io/fs"
)

//go:embed posts/*.md
var posts embed.FS

//go:embed static/widget.js
var WidgetJS []byte

// Posts returns the embedded markdown posts rooted at the posts directory.
func Posts() fs.FS {
	sub, err := fs.Sub(posts, "posts")
	if err != nil {
		panic(err)
	}
	return sub
}
