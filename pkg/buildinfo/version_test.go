package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	old := Version
	Version = "v1.2.3"
	defer func() { Version = old }()

	if got := Template(); !strings.Contains(got, "version v1.2.3") {
		t.Errorf("Template() = %q", got)
	}
	if got := String(); !strings.HasPrefix(got, "version: v1.2.3\n") {
		t.Errorf("String() = %q", got)
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name                string
		preset              string
		info                debug.BuildInfo
		version, commit, dt string
	}{
		{
			name: "module version and vcs stamp",
			info: debug.BuildInfo{
				Main:     debug.Module{Version: "v0.3.0"},
				Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}, {Key: "vcs.time", Value: "2026-01-02T03:04:05Z"}},
			},
			version: "v0.3.0", commit: "abc123", dt: "2026-01-02T03:04:05Z",
		},
		{
			name:    "devel build keeps defaults",
			info:    debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			version: "dev", commit: "none", dt: "unknown",
		},
		{
			name:    "ldflags win",
			preset:  "v9.9.9",
			info:    debug.BuildInfo{Main: debug.Module{Version: "v0.3.0"}},
			version: "v9.9.9", commit: "none", dt: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldV, oldC, oldD := Version, Commit, Date
			defer func() { Version, Commit, Date = oldV, oldC, oldD }()
			Version, Commit, Date = "dev", "none", "unknown"
			if tt.preset != "" {
				Version = tt.preset
			}

			apply(&tt.info)
			if Version != tt.version || Commit != tt.commit || Date != tt.dt {
				t.Errorf("got %s/%s/%s, want %s/%s/%s", Version, Commit, Date, tt.version, tt.commit, tt.dt)
			}
		})
	}
}
