package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestStamp - In-place stamping of existing PDFs
// ---------------------------------------------------------------------------

func TestStamp(t *testing.T) {
	t.Parallel()

	t.Run("stamps every PDF under a directory", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		mark := writeMark(t, dir)
		original := buildPDF(t, [2]float64{612, 792})
		paths := []string{
			filepath.Join(dir, "dist", "tokyo-3day.pdf"),
			filepath.Join(dir, "dist", "archive", "kyoto-2day.pdf"),
		}
		for _, p := range paths {
			writeFile(t, p, original)
		}
		writeFile(t, filepath.Join(dir, "dist", "notes.txt"), []byte("not a pdf"))

		env := newTestEnv(t)
		code := runMain([]string{"brochure", "stamp", filepath.Join(dir, "dist"), "-m", mark}, env.Environment)
		if code != ExitSuccess {
			t.Fatalf("exit code = %d; stderr: %s", code, env.stderr)
		}

		for _, p := range paths {
			got, err := os.ReadFile(p)
			if err != nil {
				t.Fatal(err)
			}
			if bytes.Equal(got, original) {
				t.Errorf("%s was not stamped", p)
			}
		}
		if !strings.Contains(env.stdout.String(), "2 stamped, 0 failed") {
			t.Errorf("stdout = %s", env.stdout)
		}
	})

	t.Run("defaults to the artifacts of the output directory", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		mark := writeMark(t, dir)
		original := buildPDF(t, [2]float64{612, 792})
		artifact := filepath.Join(dir, "dist", "tokyo-3day.pdf")
		archived := filepath.Join(dir, "dist", "archive", "kyoto-2day.pdf")
		writeFile(t, artifact, original)
		writeFile(t, archived, original)

		env := newTestEnv(t)
		env.vars["BROCHURE_OUTPUT_DIR"] = filepath.Join(dir, "dist")
		code := runMain([]string{"brochure", "stamp", "-m", mark}, env.Environment)
		if code != ExitSuccess {
			t.Fatalf("exit code = %d; stderr: %s", code, env.stderr)
		}

		if got, _ := os.ReadFile(artifact); bytes.Equal(got, original) {
			t.Error("artifact was not stamped")
		}
		if got, _ := os.ReadFile(archived); !bytes.Equal(got, original) {
			t.Error("file outside the artifact store was stamped")
		}
		if !strings.Contains(env.stdout.String(), "1 stamped, 0 failed") {
			t.Errorf("stdout = %s", env.stdout)
		}
	})

	t.Run("empty output directory", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		mark := writeMark(t, dir)

		env := newTestEnv(t)
		env.vars["BROCHURE_OUTPUT_DIR"] = filepath.Join(dir, "dist")
		code := runMain([]string{"brochure", "stamp", "-m", mark}, env.Environment)
		if code != ExitIO {
			t.Fatalf("exit code = %d, want %d", code, ExitIO)
		}
	})

	t.Run("corrupt file fails without stopping others", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		mark := writeMark(t, dir)
		good := filepath.Join(dir, "good.pdf")
		bad := filepath.Join(dir, "bad.pdf")
		writeFile(t, good, buildPDF(t, [2]float64{612, 792}))
		writeFile(t, bad, []byte("not really a PDF"))

		env := newTestEnv(t)
		code := runMain([]string{"brochure", "stamp", dir, "--mark", mark}, env.Environment)
		if code != ExitGeneral {
			t.Fatalf("exit code = %d, want %d", code, ExitGeneral)
		}
		if !strings.Contains(env.stderr.String(), "FAILED "+bad) {
			t.Errorf("stderr = %s", env.stderr)
		}
		got, _ := os.ReadFile(bad)
		if string(got) != "not really a PDF" {
			t.Error("corrupt file was modified")
		}
	})

	t.Run("missing mark", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.pdf"), buildPDF(t, [2]float64{612, 792}))

		env := newTestEnv(t)
		code := runMain([]string{"brochure", "stamp", dir, "-m", filepath.Join(dir, "missing.png")}, env.Environment)
		if code != ExitIO {
			t.Fatalf("exit code = %d, want %d", code, ExitIO)
		}
		if !strings.Contains(env.stderr.String(), "hint:") {
			t.Errorf("expected mark hint, got: %s", env.stderr)
		}
	})

	t.Run("no PDFs found", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		mark := writeMark(t, dir)

		env := newTestEnv(t)
		code := runMain([]string{"brochure", "stamp", dir, "-m", mark}, env.Environment)
		if code != ExitIO {
			t.Fatalf("exit code = %d, want %d", code, ExitIO)
		}
	})

	t.Run("invalid corner", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		mark := writeMark(t, dir)

		env := newTestEnv(t)
		code := runMain([]string{"brochure", "stamp", dir, "-m", mark, "--corner", "middle"}, env.Environment)
		if code != ExitUsage {
			t.Fatalf("exit code = %d, want %d", code, ExitUsage)
		}
	})
}
