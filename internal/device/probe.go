package device

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ProbeFunc reports whether one accelerator backend is usable.
type ProbeFunc func() bool

// Probes holds one query per accelerator kind. A nil field means the runtime
// has no support for that backend and is treated as unavailable.
type Probes struct {
	MPS  ProbeFunc
	CUDA ProbeFunc
	XPU  ProbeFunc
}

func available(p ProbeFunc) bool { return p != nil && p() }

// Static returns probes with fixed answers. Handy for tests and for pinning a
// device from configuration.
func Static(mps, cuda, xpu bool) Probes {
	return Probes{
		MPS:  func() bool { return mps },
		CUDA: func() bool { return cuda },
		XPU:  func() bool { return xpu },
	}
}

// Environment variables that override host detection. Values "1"/"true"
// force a backend on, "0"/"false" force it off.
const (
	EnvMPS  = "TTSLOADER_MPS"
	EnvCUDA = "TTSLOADER_CUDA"
	EnvXPU  = "TTSLOADER_XPU"
)

// SystemProbes inspects the host. Detection is best effort: it looks for the
// platform and driver artifacts each runtime needs, never loads a driver.
func SystemProbes() Probes {
	return Probes{
		MPS:  withEnv(EnvMPS, hasMPS),
		CUDA: withEnv(EnvCUDA, hasCUDA),
		XPU:  withEnv(EnvXPU, hasXPU),
	}
}

func withEnv(key string, detect ProbeFunc) ProbeFunc {
	return func() bool {
		switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
		case "1", "true", "yes":
			return true
		case "0", "false", "no":
			return false
		}
		return detect()
	}
}

func hasMPS() bool {
	return runtime.GOOS == "darwin" && runtime.GOARCH == "arm64"
}

func hasCUDA() bool {
	switch runtime.GOOS {
	case "linux":
		if _, err := os.Stat("/proc/driver/nvidia/version"); err == nil {
			return true
		}
	case "windows":
		if sys := os.Getenv("SystemRoot"); sys != "" {
			if _, err := os.Stat(filepath.Join(sys, "System32", "nvcuda.dll")); err == nil {
				return true
			}
		}
	default:
		return false
	}
	_, err := exec.LookPath("nvidia-smi")
	return err == nil
}

func hasXPU() bool {
	if runtime.GOOS != "linux" {
		return false
	}
	// Intel GPUs expose a DRM render node bound to the i915 or xe driver.
	nodes, _ := filepath.Glob("/sys/class/drm/renderD*/device/driver")
	for _, n := range nodes {
		target, err := os.Readlink(n)
		if err != nil {
			continue
		}
		switch filepath.Base(target) {
		case "i915", "xe":
			return true
		}
	}
	return false
}
