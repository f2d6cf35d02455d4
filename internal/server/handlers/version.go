package handlers

import (
	"net/http"
	"sync"
)

// VersionInfo is the build metadata reported by /version.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

var (
	versionMu sync.RWMutex
	version   = VersionInfo{Version: "dev", Commit: "HEAD", BuildDate: "unknown"}
)

// SetVersionInfo records the build metadata injected at link time.
func SetVersionInfo(v, commit, buildDate string) {
	versionMu.Lock()
	defer versionMu.Unlock()
	version = VersionInfo{Version: v, Commit: commit, BuildDate: buildDate}
}

// VersionHandler serves GET /version.
func VersionHandler(w http.ResponseWriter, r *http.Request) {
	versionMu.RLock()
	v := version
	versionMu.RUnlock()
	writeJSON(w, http.StatusOK, v)
}
