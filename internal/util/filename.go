package util

import (
	"regexp"
	"strings"
	"time"
)

var unsafeRun = regexp.MustCompile(`\W+`)

// SafeName replaces every run of non-word characters with a single underscore.
func SafeName(raw string) string {
	return unsafeRun.ReplaceAllString(strings.TrimSpace(raw), "_")
}

// DatedFileName builds <prefix>_<safe name>_<DD_MM_YYYY><ext>.
func DatedFileName(prefix, name string, t time.Time, ext string) string {
	return prefix + "_" + SafeName(name) + "_" + t.Format("02_01_2006") + ext
}
