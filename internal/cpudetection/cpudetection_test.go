package cpudetection

import (
	"runtime"
	"strings"
	"testing"
)

func TestDetectReportsArch(t *testing.T) {
	f := Detect()
	if f.Arch != runtime.GOARCH {
		t.Fatalf("Arch = %q, want %q", f.Arch, runtime.GOARCH)
	}
}

func TestStringIncludesArch(t *testing.T) {
	f := Detect()
	s := f.String()
	if !strings.Contains(s, "arch="+runtime.GOARCH) {
		t.Fatalf("String() = %q, want it to contain %q", s, "arch="+runtime.GOARCH)
	}
}
