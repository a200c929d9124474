package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	t.Parallel()

	info := Get()

	assert.NotEmpty(t, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestInfo_String(t *testing.T) {
	t.Parallel()

	info := Info{Version: "v1.2.3", Commit: "abc", Date: "2026-01-01", GoVersion: "go1.24.5", Platform: "linux/amd64"}

	assert.Equal(t, "astrostat v1.2.3 (commit abc, built 2026-01-01, go1.24.5 linux/amd64)", info.String())
}
