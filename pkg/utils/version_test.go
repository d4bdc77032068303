package utils

import (
	"strings"
	"testing"
)

func TestGetVersionShort(t *testing.T) {
	t.Parallel()

	version := GetVersionShort()

	if !strings.Contains(version, "v"+Version) {
		t.Errorf("GetVersionShort() should contain version %s, got: %s", Version, version)
	}

	if !strings.Contains(version, "(") || !strings.Contains(version, ")") {
		t.Errorf("GetVersionShort() should contain commit hash in parentheses, got: %s", version)
	}

	if strings.Contains(version, "built at") {
		t.Errorf("GetVersionShort() should not contain 'built at', got: %s", version)
	}
}

func TestGetBuildVersion(t *testing.T) {
	t.Parallel()

	version := GetBuildVersion()

	if !strings.Contains(version, "v"+Version) {
		t.Errorf("GetBuildVersion() should contain version %s, got: %s", Version, version)
	}

	if !strings.Contains(version, "built at") {
		t.Errorf("GetBuildVersion() should contain 'built at', got: %s", version)
	}
}

func TestGetBuildInfo(t *testing.T) {
	t.Parallel()

	info := GetBuildInfo()

	for _, key := range []string{"version", "commit", "build_time", "vcs_modified"} {
		if _, ok := info[key]; !ok {
			t.Errorf("GetBuildInfo() should contain key %q", key)
		}
	}

	if info["version"] != Version {
		t.Errorf("GetBuildInfo()['version'] = %s, want %s", info["version"], Version)
	}
}
