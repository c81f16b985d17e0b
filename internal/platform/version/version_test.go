package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version == "" {
		t.Error("Version should not be empty")
	}
	if info.Commit == "" {
		t.Error("Commit should not be empty")
	}
	if info.BuildTime == "" {
		t.Error("BuildTime should not be empty")
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
}

func TestGet_InjectedValues(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })

	Version = "v1.2.0"
	Commit = "abc123"

	info := Get()
	if info.Version != "v1.2.0" || info.Commit != "abc123" {
		t.Errorf("Get() = %+v, want injected version and commit", info)
	}
}

func TestInfo_String(t *testing.T) {
	s := Info{Version: "v1", Commit: "c", BuildTime: "t", GoVersion: "go1.24"}.String()
	if !strings.HasPrefix(s, "envcheck v1 (commit c") {
		t.Errorf("String() = %q", s)
	}
}
