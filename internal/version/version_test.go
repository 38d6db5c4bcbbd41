package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoString(t *testing.T) {
	assert.Equal(t, "dev", Info{Tag: "v1"}.String())

	info := fromSettings(Info{Tag: "v1.0.0"}, []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.time", Value: "2026-10-17T08:30:00Z"},
		{Key: "vcs.modified", Value: "true"},
	})
	assert.Equal(t, "v1.0.0 0123456 at 2026-10-17 08:30:00 dirty", info.String())

	info.Dirty = false
	info.BuildAt = "unknown"
	assert.Equal(t, "v1.0.0 0123456 at unknown", info.String())
}
