package verifier

import (
	"os/exec"
	"testing"

	"github.com/hailam/ghostclass/internal/classfile"
	"github.com/stretchr/testify/require"
)

func minimalClassBytes(t *testing.T) []byte {
	t.Helper()
	pool := classfile.NewConstantPool()
	thisIdx, err := pool.InternClass("Ghost")
	require.NoError(t, err)
	superIdx, err := pool.InternClass("java/lang/Object")
	require.NoError(t, err)
	cf := &classfile.ClassFile{
		MinorVersion: 0,
		MajorVersion: 52,
		Pool:         pool,
		AccessFlags:  0x0021,
		ThisClass:    thisIdx,
		SuperClass:   superIdx,
	}
	return classfile.Serialize(cf)
}

func TestVerifyStructuralReportsToolUnavailableWithoutJDK(t *testing.T) {
	if _, err := exec.LookPath("javap"); err == nil {
		t.Skip("javap is available; structural verification of this minimal stub class is exercised manually, not here")
	}
	gw := New()
	err := gw.VerifyStructural(minimalClassBytes(t))
	require.ErrorIs(t, err, ErrToolUnavailable)
}

func TestVerifyRuntimeReportsToolUnavailableWithoutJDK(t *testing.T) {
	if _, err := exec.LookPath("java"); err == nil {
		t.Skip("java is available; runtime verification of this minimal stub class is exercised manually, not here")
	}
	gw := New()
	err := gw.VerifyRuntime(minimalClassBytes(t), "Ghost", "main")
	require.ErrorIs(t, err, ErrToolUnavailable)
}
