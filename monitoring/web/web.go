// Package web includes the static web page of the monitor.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
)

// AssetDirEnv names the variable that points the monitor at a directory of
// assets to serve instead of the embedded page.
const AssetDirEnv = "RS232SIM_MONITOR_ASSETS"

//go:embed dist/*
var staticAssets embed.FS

// GetAssets returns the assets named by RS232SIM_MONITOR_ASSETS, or the
// embedded page if the variable is not set.
func GetAssets() http.FileSystem {
	dir, ok := os.LookupEnv(AssetDirEnv)
	if !ok || dir == "" {
		return embedded()
	}

	assets, err := DirAssets(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v, serving the embedded page\n", err)
		return embedded()
	}

	fmt.Fprintf(os.Stderr, "Serving monitor assets from %s\n", dir)

	return assets
}

// DirAssets serves a directory that must hold an index.html.
func DirAssets(dir string) (http.FileSystem, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("monitor assets: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("monitor assets: %s is not a directory", dir)
	}

	if _, err := fs.Stat(os.DirFS(dir), "index.html"); err != nil {
		return nil, fmt.Errorf("monitor assets: %w", err)
	}

	return http.Dir(dir), nil
}

func embedded() http.FileSystem {
	subFS, err := fs.Sub(staticAssets, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(subFS)
}
