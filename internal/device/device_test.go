package device

import "testing"

func TestResolveHonorsOverride(t *testing.T) {
	if d := Resolve("cpu"); d.Kind != CPU {
		t.Fatalf("expected cpu, got %s", d.Kind)
	}
	if d := Resolve("CUDA"); d.Kind != CUDA {
		t.Fatalf("expected cuda, got %s", d.Kind)
	}
}

func TestGPULayers(t *testing.T) {
	if n := (Device{Kind: CUDA}).GPULayers(); n != -1 {
		t.Fatalf("expected -1 on cuda, got %d", n)
	}
	if n := (Device{Kind: CPU}).GPULayers(); n != 0 {
		t.Fatalf("expected 0 on cpu, got %d", n)
	}
}

func TestSelectNeverPanics(t *testing.T) {
	d := Select()
	if d.Kind != CPU && d.Kind != CUDA {
		t.Fatalf("unexpected kind: %q", d.Kind)
	}
}
