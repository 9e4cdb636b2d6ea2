// Package cpudetection reports which AES acceleration instructions the
// running CPU actually supports, so the cipher layer can choose between
// its hardware and software AES-256-GCM backends at construction time.
package cpudetection

import (
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// Features represents the AES-relevant capabilities of the running CPU.
type Features struct {
	// HasAESHardware is true when the CPU exposes an accelerated AES
	// round-function instruction (AES-NI on amd64, the Cryptography
	// Extension on arm64) AND, on amd64, the carry-less multiply
	// (PCLMULQDQ) that GCM's GHASH needs to also run accelerated.
	HasAESHardware bool
	// Arch is runtime.GOARCH.
	Arch string
}

// Detect probes the current CPU via golang.org/x/sys/cpu, which reads
// CPUID (amd64) or the OS-reported hwcap (arm64) rather than guessing
// from the architecture alone.
func Detect() Features {
	f := Features{Arch: runtime.GOARCH}
	switch runtime.GOARCH {
	case "amd64":
		f.HasAESHardware = cpu.X86.HasAES && cpu.X86.HasPCLMULQDQ
	case "arm64":
		f.HasAESHardware = cpu.ARM64.HasAES
	}
	return f
}

// String returns a human-readable summary such as
// "arch=amd64 aes-hw=yes".
func (f Features) String() string {
	parts := []string{"arch=" + f.Arch}
	if f.HasAESHardware {
		parts = append(parts, "aes-hw=yes")
	} else {
		parts = append(parts, "aes-hw=no")
	}
	return strings.Join(parts, " ")
}
