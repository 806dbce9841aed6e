// Package resources bundles the bootstrap documents and DDL.
package resources

import (
	"embed"

	"github.com/spf13/afero"
)

// Root is the directory holding one sub-directory per module
const Root = "bootstrap"

//go:embed bootstrap
var bundled embed.FS

// FS exposes the bundled resources as a read-only filesystem
func FS() afero.Fs {
	return afero.NewReadOnlyFs(afero.FromIOFS{FS: bundled})
}

// Overlay layers dir from the host filesystem over the bundled resources,
// so local documents replace bundled ones with the same path
func Overlay(base afero.Fs, dir string) afero.Fs {
	if dir == "" {
		return FS()
	}
	local := afero.NewReadOnlyFs(afero.NewBasePathFs(base, dir))
	return afero.NewCopyOnWriteFs(FS(), local)
}

// ModuleDir returns the document directory of module
func ModuleDir(module string) string {
	return Root + "/" + module
}
