package version

import (
	"encoding/json"
	"regexp"
	"runtime"
	"strings"
	"testing"
)

var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`)

func TestGetVersion(t *testing.T) {
	got := getVersion()
	if got == "" {
		t.Fatal("getVersion() returned empty string")
	}
	if got != strings.TrimSpace(got) {
		t.Errorf("getVersion() = %q, contains leading/trailing whitespace", got)
	}
	if !semverPattern.MatchString(got) {
		t.Errorf("getVersion() = %q, not semver", got)
	}
}

func TestGetGitCommit(t *testing.T) {
	tests := []struct {
		name   string
		linked string
		want   string
	}{
		{"linker flag wins", "abc1234", "abc1234"},
		{"linker flag dirty", "abc1234-dirty", "abc1234-dirty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := gitCommit
			gitCommit = tt.linked
			defer func() { gitCommit = old }()

			if got := getGitCommit(); got != tt.want {
				t.Errorf("getGitCommit() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetGitCommit_Fallback(t *testing.T) {
	old := gitCommit
	gitCommit = ""
	defer func() { gitCommit = old }()

	got := getGitCommit()
	if got == "" {
		t.Fatal("getGitCommit() returned empty string")
	}
	if got != "unknown" && len(strings.TrimSuffix(got, "-dirty")) > 7 {
		t.Errorf("getGitCommit() = %q, want short revision or unknown", got)
	}
}

func TestGetBuildDate(t *testing.T) {
	old := buildDate
	defer func() { buildDate = old }()

	buildDate = ""
	if got := getBuildDate(); got != "unknown" {
		t.Errorf("getBuildDate() = %q, want unknown", got)
	}

	buildDate = "2026-01-10T15:04:05Z"
	if got := getBuildDate(); got != "2026-01-10T15:04:05Z" {
		t.Errorf("getBuildDate() = %q", got)
	}
}

func TestGet(t *testing.T) {
	info := Get()

	if info.Version != getVersion() {
		t.Errorf("Version = %q, want %q", info.Version, getVersion())
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Platform = %q", info.Platform)
	}
	if info != Get() {
		t.Error("Get() is not stable across calls")
	}
}

func TestInfoString(t *testing.T) {
	info := Info{
		Version:   "1.2.3",
		GitCommit: "abc1234",
		BuildDate: "2026-01-10T15:04:05Z",
		GoVersion: "go1.24.0",
		Platform:  "linux/amd64",
	}

	got := info.String()
	for _, want := range []string{"Version:    1.2.3", "Git Commit: abc1234", "Build Date: 2026-01-10T15:04:05Z", "Go Version: go1.24.0", "Platform:   linux/amd64"} {
		if !strings.Contains(got, want) {
			t.Errorf("String() missing %q:\n%s", want, got)
		}
	}
}

func TestInfoJSON(t *testing.T) {
	data, err := json.Marshal(Info{Version: "1.2.3", GitCommit: "abc1234"})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"git_commit":"abc1234"`) {
		t.Errorf("json = %s", data)
	}
}

func TestUserAgent(t *testing.T) {
	if got, want := UserAgent(), "imagedrop/"+getVersion(); got != want {
		t.Errorf("UserAgent() = %q, want %q", got, want)
	}
}
