package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodCategory = `
category: 저택
locations:
  - id: hall
    name: 현관
    items:
      - name: 책상
        type: investigation
        variants:
          - order: 1
            condition: "item:열쇠 [consume]"
            success: "clue+c_desk, move+cellar, 묘사: 서랍이 열렸다."
            failure: "정신력-5"
    children:
      - id: cellar
        name: 지하실
        condition: "trigger:불켜짐"
`

const badCategory = `
category: 폐교
locations:
  - id: gym
    name: 체육관
    condition: "weather:rain"
    items:
      - name: 농구공
        type: juggle
        variants:
          - order: 1
            success: "move+roof, 체력*3"
          - order: 1
            failure: "clue+c_missing"
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return dir
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func joined(lines []string) string {
	return strings.Join(lines, "\n")
}

func TestLintDir_Clean(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"categories/mansion.yaml": goodCategory,
		"items.yaml":              "- name: 열쇠\n  type: 도구\n",
		"clues.yaml":              "- id: c_desk\n  name: 편지\n- id: c_map\n  name: 지도\n- id: c_route\n  name: 탈출로\n",
		"recipes.yaml":            "- id: r1\n  requires: [c_desk, c_map]\n  result: c_route\n",
		"madness.yaml":            "- id: m1\n  name: 공포증\n  recovery_difficulty: 30\n",
		"investigators.yaml":      "- id: c1\n  stats: {perception: 50, intelligence: 50, willpower: 50}\n",
	})

	l := &Linter{}
	require.NoError(t, l.LintDir(context.Background(), dir, discardLogger()))
	assert.Empty(t, l.Errors, joined(l.Errors))
	assert.Empty(t, l.Warnings, joined(l.Warnings))
}

func TestLintDir_Problems(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"categories/school.yaml": badCategory,
		"recipes.yaml":           "- id: r1\n  requires: [c_a]\n",
		"madness.yaml":           "- id: m1\n  name: a\n  recovery_difficulty: 130\n- id: m1\n  name: b\n",
		"investigators.yaml":     "- id: c1\n- name: 이름없음\n",
	})

	l := &Linter{}
	require.NoError(t, l.LintDir(context.Background(), dir, discardLogger()))

	errs := joined(l.Errors)
	assert.Contains(t, errs, "폐교/gym condition")
	assert.Contains(t, errs, `unknown type "juggle"`)
	assert.Contains(t, errs, `move target "roof"`)
	assert.Contains(t, errs, "variant 1 success")
	assert.Contains(t, errs, "recipe r1: no result")
	assert.Contains(t, errs, "recipe r1: needs at least two clues")
	assert.Contains(t, errs, "madness m1: recovery_difficulty 130")
	assert.Contains(t, errs, "madness m1: duplicate id")
	assert.Contains(t, errs, "missing id")

	warnings := joined(l.Warnings)
	assert.Contains(t, warnings, "duplicate order")
	assert.Contains(t, warnings, `clue "c_missing"`)
	assert.Contains(t, warnings, `clue "c_a"`)
}

func TestLintCategoryFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{"mansion.yaml": goodCategory})

	l := &Linter{}
	require.NoError(t, l.LintCategoryFile(context.Background(), filepath.Join(dir, "mansion.yaml")))
	assert.Empty(t, l.Errors)
	// no catalog, so references go unchecked
	assert.Empty(t, l.Warnings)
}

func TestLintCategoryFile_Unreadable(t *testing.T) {
	l := &Linter{}
	assert.Error(t, l.LintCategoryFile(context.Background(), filepath.Join(t.TempDir(), "missing.yaml")))
}
