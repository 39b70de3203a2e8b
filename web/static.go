// Package web 内嵌的前端构建产物
package web

import (
	"embed"
	"io/fs"
)

//go:embed dist
var distFS embed.FS

// StaticFiles dist 目录根
var StaticFiles, _ = fs.Sub(distFS, "dist")
