package main

import (
	"bytes"
	"os"
	"path"
	"strings"
	"testing"

	"hjta/jobtable"
)

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("HJTA_CONFIG", path.Join(t.TempDir(), "none"))
	var stdout, stderr bytes.Buffer
	code := hjta(append([]string{"hjta"}, args...), nil, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestExitCodes(t *testing.T) {
	dir := t.TempDir()
	good := path.Join(dir, "good.csv")
	if err := jobtable.WriteFile(good, []*jobtable.JobRecord{{Batch: "1"}}); err != nil {
		t.Fatal(err)
	}
	bad := path.Join(dir, "bad.csv")
	if err := os.WriteFile(bad, []byte("Batch,Index\n1,2,3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, c := range []struct {
		args []string
		code int
	}{
		{nil, 2},
		{[]string{"frobnicate"}, 2},
		{[]string{"help"}, 0},
		{[]string{"version"}, 0},
		{[]string{"pull", "-o", path.Join(dir, "out.csv")}, 2},
		{[]string{"pull", "-o", path.Join(dir, "out.csv"), "12:"}, 2},
		{[]string{"pull", "-o", path.Join(dir, "out.csv"), "-bogus", "12"}, 2},
		{[]string{"plot", "-i", good, "-out-dir", dir, "nonsense"}, 2},
		{[]string{"plot", "-i", bad, "-out-dir", dir, "transfer_hist"}, 1},
		{[]string{"plot", "-i", good, "-out-dir", dir, "-format", "svg", "all"}, 0},
		{[]string{"plot", "-h"}, 0},
	} {
		code, _, stderr := run(t, c.args...)
		if code != c.code {
			t.Fatalf("%v: expected exit %d, got %d: %s", c.args, c.code, code, stderr)
		}
	}

	if _, err := os.Stat(path.Join(dir, "out.csv")); err == nil {
		t.Fatalf("Failed pull wrote output")
	}
	if _, err := os.Stat(path.Join(dir, "transfer_vs_execute.svg")); err != nil {
		t.Fatal(err)
	}
}

func TestHelp(t *testing.T) {
	_, stdout, _ := run(t, "help")
	for _, verb := range []string{"pull", "plot", "serve", "version"} {
		if !strings.Contains(stdout, verb) {
			t.Fatalf("%s missing from help", verb)
		}
	}
}
