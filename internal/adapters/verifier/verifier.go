// Package verifier implements the Verifier Gateway of spec.md §4.5: the
// real JVM verifier and runtime are treated as an external black box,
// shelled out to via javap and java, never reimplemented.
package verifier

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/hailam/ghostclass/internal/classfile"
	"github.com/hailam/ghostclass/internal/ghosterr"
	"github.com/pkg/errors"
)

// Gateway implements ports.VerifierGateway by shelling out to a JDK's
// javap and java binaries found on PATH.
type Gateway struct{}

// New returns a Gateway that locates javap/java on PATH at call time.
func New() Gateway {
	return Gateway{}
}

// ErrToolUnavailable is returned (wrapped) when javap or java cannot be
// located on PATH, distinguishing "no JDK installed" from "the class
// file failed verification."
var ErrToolUnavailable = errors.New("verifier: required JDK tool not found on PATH")

// VerifyStructural runs `javap -verify` against classBytes, the
// class-file-level half of spec.md §4.5's structural check: it catches
// malformed constant pool references, bad descriptors, and the other
// purely static defects a splice could introduce.
func (Gateway) VerifyStructural(classBytes []byte) error {
	tool, err := exec.LookPath("javap")
	if err != nil {
		return errors.WithMessage(ErrToolUnavailable, "javap: "+err.Error())
	}

	dir, className, err := writeScratchClass(classBytes)
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	cmd := exec.Command(tool, "-verify", "-classpath", dir, className)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return ghosterr.Newf(ghosterr.KindVerifyFailed, "javap -verify rejected class: %s", bytes.TrimSpace(out))
	}
	return nil
}

// VerifyRuntime loads classBytes under className and runs it with the
// java launcher, the full-load-and-link half of spec.md §4.5's
// verification contract: a class that passes javap's static check can
// still fail the verifier's flow analysis, which is only ever run at
// class-initialization time. The launcher runs the class's
// main(String[]) method with entryPoint as its single argument; no
// method named entryPoint is invoked, and a class without main fails.
func (Gateway) VerifyRuntime(classBytes []byte, className, entryPoint string) error {
	tool, err := exec.LookPath("java")
	if err != nil {
		return errors.WithMessage(ErrToolUnavailable, "java: "+err.Error())
	}

	dir, gotName, err := writeScratchClass(classBytes)
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	if gotName != className {
		return ghosterr.Newf(ghosterr.KindVerifyFailed, "class declares %q, expected %q", gotName, className)
	}

	if entryPoint == "" {
		// Nothing to invoke: fall back to the structural/linkage check
		// only (spec.md §4.5's "optionally invokes a static no-argument
		// entry_point" — with none given there is nothing for `java` to
		// run, since the launcher only ever calls `main`).
		javapTool, lookErr := exec.LookPath("javap")
		if lookErr != nil {
			return errors.WithMessage(ErrToolUnavailable, "javap: "+lookErr.Error())
		}
		out, verifyErr := exec.Command(javapTool, "-verify", "-classpath", dir, className).CombinedOutput()
		if verifyErr != nil {
			return ghosterr.Newf(ghosterr.KindVerifyFailed, "javap -verify rejected class: %s", bytes.TrimSpace(out))
		}
		return nil
	}

	cmd := exec.Command(tool, "-classpath", dir, className, entryPoint)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return ghosterr.Newf(ghosterr.KindVerifyFailed, "java rejected or failed to run class: %s", bytes.TrimSpace(out))
	}
	return nil
}

// writeScratchClass writes classBytes into a fresh scratch directory at
// the path its binary name maps to (the only place javap/java will look
// for it on that classpath) and returns the directory and the derived
// class name.
func writeScratchClass(classBytes []byte) (dir, className string, err error) {
	cf, parseErr := classfile.Parse(classBytes)
	if parseErr != nil {
		return "", "", parseErr
	}
	entry := cf.Pool.Get(cf.ThisClass)
	if entry == nil || entry.Tag != classfile.TagClass {
		return "", "", ghosterr.New(ghosterr.KindParseError, "this_class does not reference a Class entry")
	}
	name := cf.Pool.Utf8At(entry.Index1)
	if name == "" {
		return "", "", ghosterr.New(ghosterr.KindParseError, "this_class name is not a Utf8 entry")
	}

	dir, err = os.MkdirTemp("", "ghostclass-verify-*")
	if err != nil {
		return "", "", errors.WithMessage(err, "verifier: create scratch dir")
	}

	path := filepath.Join(dir, filepath.FromSlash(name)+".class")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		os.RemoveAll(dir)
		return "", "", errors.WithMessage(err, "verifier: create scratch package directories")
	}
	if err := os.WriteFile(path, classBytes, 0o600); err != nil {
		os.RemoveAll(dir)
		return "", "", errors.WithMessage(err, "verifier: write scratch class")
	}
	return dir, name, nil
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}
