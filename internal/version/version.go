// Package version reports the build identity from the embedded VCS settings.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Tag is set at link time: -ldflags "-X .../internal/version.Tag=v1.2.0".
var Tag = "v0"

type Info struct {
	Tag      string `json:"tag"`
	Revision string `json:"revision,omitempty"`
	BuildAt  string `json:"buildAt,omitempty"`
	Dirty    bool   `json:"dirty,omitempty"`
}

func Get() Info {
	info := Info{Tag: Tag}
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	return fromSettings(info, buildInfo.Settings)
}

func fromSettings(info Info, settings []debug.BuildSetting) Info {
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			info.Revision = setting.Value
		case "vcs.time":
			info.BuildAt = setting.Value
		case "vcs.modified":
			info.Dirty = setting.Value == "true"
		}
	}
	return info
}

func (i Info) String() string {
	// go run
	if i.Revision == "" {
		return "dev"
	}

	rev := i.Revision
	if len(rev) > 7 {
		rev = rev[:7]
	}
	at := i.BuildAt
	if t, err := time.Parse(time.RFC3339, at); err == nil {
		at = t.Format("2006-01-02 15:04:05")
	}

	s := fmt.Sprintf("%s %s at %s", i.Tag, rev, at)
	if i.Dirty {
		s += " dirty"
	}
	return s
}

func String() string {
	return Get().String()
}
