package cli

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eltociear/NeuroSandboxWebUI/internal/common/fsutil"
	"github.com/eltociear/NeuroSandboxWebUI/internal/device"
	"github.com/eltociear/NeuroSandboxWebUI/internal/registry"
)

func buildDoctorCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{Use: "doctor", Short: "Check the host for a working install", Example: "  sandboxctl doctor", RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		if !a.doctor(cfg.GitBin) {
			return fmt.Errorf("doctor found problems")
		}
		return nil
	}}
}

// doctor reports one line per probe and returns false when any probe failed.
func (a *app) doctor(gitBin string) bool {
	ok := true
	check := func(label string, pass bool, detail string) {
		mark := "ok"
		if !pass {
			mark = "FAIL"
			ok = false
		}
		if detail != "" {
			fmt.Fprintf(a.out, "%-24s %s (%s)\n", label, mark, detail)
			return
		}
		fmt.Fprintf(a.out, "%-24s %s\n", label, mark)
	}

	dev := device.Resolve("")
	check("compute device", true, string(dev.Kind))

	if path, err := exec.LookPath(gitBin); err != nil {
		check("git binary", false, err.Error())
	} else {
		check("git binary", true, path)
	}

	check("inputs root", fsutil.PathExists(a.reg.Root()), a.reg.Root())
	for _, d := range []string{
		registry.LLMModelsDir, registry.SDModelsDir, registry.AudiocraftDir, registry.VoicesDir,
	} {
		p := a.reg.Path(filepath.FromSlash(d))
		check(d, fsutil.PathExists(p), "")
	}

	check("whisper checkpoint", fsutil.PathExists(a.reg.Path(filepath.FromSlash(registry.WhisperDir), "medium.pt")), "fetch with: sandboxctl fetch whisper")
	check("XTTS model", fsutil.PathExists(a.reg.Path(filepath.FromSlash(registry.XTTSDir))), "fetch with: sandboxctl fetch xtts")
	free := device.FreeMemoryMB()
	check("free memory", free > 0, fmt.Sprintf("%d MB", free))
	return ok
}
