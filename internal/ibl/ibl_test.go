package ibl

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gltf-renderer/internal/mathutil"
)

const shSample = `( 0.73627800,  0.77166903,  0.88420606); // L00, irradiance, pre-scaled base
( 0.10000000,  0.20000000,  0.30000000); // L1-1, irradiance, pre-scaled base
( 0.00000000,  0.00000000,  0.00000000); // L10, irradiance, pre-scaled base
( 0.50000000,  0.00000000, -0.50000000); // L11, irradiance, pre-scaled base
( 0.00000000,  0.00000000,  0.00000000); // L2-2, irradiance, pre-scaled base
( 0.00000000,  0.00000000,  0.00000000); // L2-1, irradiance, pre-scaled base
( 0.00000000,  0.00000000,  0.00000000); // L20, irradiance, pre-scaled base
( 0.00000000,  0.00000000,  0.00000000); // L21, irradiance, pre-scaled base
( 0.00000000,  0.00000000,  0.00000000); // L22, irradiance, pre-scaled base
`

func writeSH(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SHFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoad(t *testing.T) {
	env, err := Load(writeSH(t, shSample))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if env.SH[0] != (mathutil.Vec3{0.736278, 0.77166903, 0.88420606}) {
		t.Errorf("SH[0] = %v", env.SH[0])
	}
	if env.SH[3] != (mathutil.Vec3{0.5, 0, -0.5}) {
		t.Errorf("SH[3] = %v", env.SH[3])
	}
}

func TestLoadTooFewCoefficients(t *testing.T) {
	lines := strings.SplitN(shSample, "\n", 5)
	_, err := Load(writeSH(t, strings.Join(lines[:4], "\n")))
	if err == nil {
		t.Error("expected error for truncated sh.txt")
	}
}

func TestLoadMissingDir(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestIrradianceRotation(t *testing.T) {
	env, err := Load(writeSH(t, shSample))
	if err != nil {
		t.Fatal(err)
	}
	// The +X lobe of the file is rotated a quarter turn about Y, so in world
	// space it faces -Z.
	lit := env.Irradiance(mathutil.Vec3{0, 0, -1})
	want := env.SH[0][0] + env.SH[3][0]
	if math.Abs(lit[0]-want) > 1e-9 {
		t.Errorf("irradiance red towards -Z = %v, want %v", lit[0], want)
	}
	// The blue channel has a negative lobe there and is clamped.
	away := env.Irradiance(mathutil.Vec3{0, 0, 1})
	if away[0] < 0 || away[1] < 0 || away[2] < 0 {
		t.Errorf("negative irradiance %v", away)
	}
}

func TestDefaultIsUniform(t *testing.T) {
	env := Default()
	a := env.Irradiance(mathutil.Vec3{0, 1, 0})
	b := env.Irradiance(mathutil.Vec3{1, 0, 0})
	if a != b {
		t.Errorf("default ambient varies with normal: %v vs %v", a, b)
	}
}
