package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMarkdownDryRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gdpr.md")
	para := strings.Repeat("The controller shall process personal data lawfully. ", 40)
	require.NoError(t, os.WriteFile(path, []byte("# Article 5\n\n"+para+"\n\n"+para+"\n\n"+para), 0o600))

	out, err := runCmd(t, "md", path, "--dry-run", "--config", "")
	require.NoError(t, err)
	assert.Contains(t, out, "gdpr.md:")
	assert.Contains(t, out, "dry run")
}

func TestMarkdownDryRun_RejectsWrongExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("text"), 0o600))

	_, err := runCmd(t, "md", path, "--dry-run", "--config", "")
	assert.Error(t, err)
}

func TestRequiresFileArgument(t *testing.T) {
	_, err := runCmd(t, "pdf")
	assert.Error(t, err)
}

func TestMissingFile(t *testing.T) {
	_, err := runCmd(t, "md", filepath.Join(t.TempDir(), "absent.md"), "--dry-run", "--config", "")
	assert.Error(t, err)
}
