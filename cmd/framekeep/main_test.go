package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	root       string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	root := filepath.Join(base, "project")
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf("[paths]\nroot = %q\n\n[media]\nthumbnail_max_px = 128\nimage_format = \"png\"\n", root)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{baseDir: base, root: root, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
}

func TestCLIInitAndStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status before init: %v", err)
	}
	requireContains(t, out, "run `framekeep init`")

	out, _, err = runCLI(t, []string{"init"}, env.configPath)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	requireContains(t, out, "Initialized project at")

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Database:")
	requireContains(t, out, "assets")
}

func TestCLIPolicyCommands(t *testing.T) {
	// policy list and expand are catalog-free and need no config file.
	out, _, err := runCLI(t, []string{"policy", "list"}, "")
	if err != nil {
		t.Fatalf("policy list: %v", err)
	}
	requireContains(t, out, "camera_coverage_12_v1")

	out, _, err = runCLI(t, []string{"--json", "policy", "expand", "--prompt", "a lone lighthouse", "--count", "3", "--base-seed", "100"}, "")
	if err != nil {
		t.Fatalf("policy expand: %v", err)
	}
	var expanded struct {
		Variants []struct {
			Index     int    `json:"index"`
			Positive  string `json:"positive"`
			GenParams struct {
				Seed int64 `json:"seed"`
			} `json:"gen_params"`
		} `json:"variants"`
	}
	if err := json.Unmarshal([]byte(out), &expanded); err != nil {
		t.Fatalf("parse expand output: %v\n%s", err, out)
	}
	if len(expanded.Variants) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(expanded.Variants))
	}
	if expanded.Variants[2].GenParams.Seed != 102 {
		t.Fatalf("expected incrementing seeds, got %d", expanded.Variants[2].GenParams.Seed)
	}
	requireContains(t, expanded.Variants[0].Positive, "a lone lighthouse")
}

func TestCLIAssetLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"asset", "save", "--type", "character", "--name", "Mara", "--positive", "red cloak"}, env.configPath)
	if err != nil {
		t.Fatalf("asset save: %v", err)
	}
	requireContains(t, out, `Saved character "Mara"`)

	if _, _, err := runCLI(t, []string{"asset", "save", "--type", "character", "--name", "Mara"}, env.configPath); err == nil {
		t.Fatal("expected name conflict on second save with mode new")
	}

	out, _, err = runCLI(t, []string{"asset", "save", "--type", "character", "--name", "Mara", "--mode", "new_version_of_name"}, env.configPath)
	if err != nil {
		t.Fatalf("asset save new version: %v", err)
	}
	requireContains(t, out, "(v2)")

	out, _, err = runCLI(t, []string{"asset", "list", "--type", "character"}, env.configPath)
	if err != nil {
		t.Fatalf("asset list: %v", err)
	}
	requireContains(t, out, "Mara")

	out, _, err = runCLI(t, []string{"asset", "show", "--type", "character", "--name", "Mara"}, env.configPath)
	if err != nil {
		t.Fatalf("asset show: %v", err)
	}
	requireContains(t, out, "red cloak")
}

func TestCLISetCreatePickSummary(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"--json", "set", "create", "--name", "intro-shot", "--prompt", "castle at dawn"}, env.configPath)
	if err != nil {
		t.Fatalf("set create: %v", err)
	}
	var created struct {
		SetID     string `json:"set_id"`
		ItemCount int    `json:"item_count"`
	}
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("parse set create output: %v\n%s", err, out)
	}
	if created.ItemCount != 12 {
		t.Fatalf("expected 12 items from the default policy, got %d", created.ItemCount)
	}

	out, _, err = runCLI(t, []string{"set", "pick", created.SetID, "3"}, env.configPath)
	if err != nil {
		t.Fatalf("set pick: %v", err)
	}
	requireContains(t, out, "Picked item 3")

	out, _, err = runCLI(t, []string{"set", "summary", created.SetID}, env.configPath)
	if err != nil {
		t.Fatalf("set summary: %v", err)
	}
	requireContains(t, out, "Picked: 3")

	if _, _, err := runCLI(t, []string{"set", "pick", created.SetID, "99"}, env.configPath); err == nil {
		t.Fatal("expected range error picking index 99")
	}
}

func TestCLIItemSaveAndPromote(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"--json", "set", "create", "--name", "hero-pass", "--prompt", "hero portrait", "--count", "4"}, env.configPath)
	if err != nil {
		t.Fatalf("set create: %v", err)
	}
	var created struct {
		SetID string `json:"set_id"`
	}
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("parse set create output: %v\n%s", err, out)
	}

	renderPath := filepath.Join(env.baseDir, "render.png")
	writeTestPNG(t, renderPath)

	out, _, err = runCLI(t, []string{"item", "save", "--set", created.SetID, "--idx", "0", "--file", renderPath}, env.configPath)
	if err != nil {
		t.Fatalf("item save: %v", err)
	}
	requireContains(t, out, "Saved")

	if _, _, err := runCLI(t, []string{"item", "save", "--set", created.SetID, "--idx", "0", "--file", renderPath}, env.configPath); err == nil {
		t.Fatal("expected media conflict without --overwrite")
	}

	out, _, err = runCLI(t, []string{"item", "load", "--set", created.SetID, "--idx", "0"}, env.configPath)
	if err != nil {
		t.Fatalf("item load: %v", err)
	}
	requireContains(t, out, "loaded: true")

	out, _, err = runCLI(t, []string{"promote", created.SetID, "0", "--name", "Hero Portrait", "--tags", "hero,portrait"}, env.configPath)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	requireContains(t, out, "Promoted")

	out, _, err = runCLI(t, []string{"asset", "show", "--type", "keyframe", "--name", "Hero Portrait"}, env.configPath)
	if err != nil {
		t.Fatalf("asset show promoted: %v", err)
	}
	requireContains(t, out, "Hero Portrait")
}

func TestCLISeedsGenerateDeterministic(t *testing.T) {
	args := []string{"seeds", "generate", "--count", "5", "--min", "0", "--max", "1000000", "--salt", "scene-7"}

	first, _, err := runCLI(t, args, "")
	if err != nil {
		t.Fatalf("seeds generate: %v", err)
	}
	second, _, err := runCLI(t, args, "")
	if err != nil {
		t.Fatalf("seeds generate repeat: %v", err)
	}
	if first != second {
		t.Fatalf("same request produced different seeds:\n%s\n%s", first, second)
	}
	requireContains(t, first, "[0] seed=")

	rerolled, _, err := runCLI(t, append(args, "--reroll", "1"), "")
	if err != nil {
		t.Fatalf("seeds generate reroll: %v", err)
	}
	if rerolled == first {
		t.Fatal("reroll produced the same sample")
	}
}

func TestCLIMutatingCommandsUseWriteLock(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"asset", "save", "--type", "style", "--name", "noir"}, env.configPath); err != nil {
		t.Fatalf("asset save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.root, "db", ".framekeep.lock")); err != nil {
		t.Fatalf("expected write lock file beside the database: %v", err)
	}

	// The lock is released between invocations, so a second mutating
	// command completes instead of blocking.
	if _, _, err := runCLI(t, []string{"stack", "save", "--name", "night-scene"}, env.configPath); err != nil {
		t.Fatalf("stack save: %v", err)
	}
}

func TestCLIErrorCodes(t *testing.T) {
	_, stderr, err := runCLI(t, []string{"policy", "expand", "--policy", "bogus", "--prompt", "x"}, "")
	if err == nil {
		t.Fatal("expected error for unknown policy")
	}
	requireContains(t, stderr, "policy_not_found")

	_, stderr, err = runCLI(t, []string{"--json", "policy", "expand", "--policy", "bogus", "--prompt", "x"}, "")
	if err == nil {
		t.Fatal("expected error for unknown policy")
	}
	var failure struct {
		Code    string `json:"error"`
		Message string `json:"message"`
	}
	if jsonErr := json.Unmarshal([]byte(stderr), &failure); jsonErr != nil {
		t.Fatalf("parse error output: %v\n%s", jsonErr, stderr)
	}
	if failure.Code != "policy_not_found" {
		t.Fatalf("unexpected error code %q", failure.Code)
	}
	if failure.Message == "" {
		t.Fatal("error message must not be empty")
	}
}

func TestCLIComposeCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{
		"--json", "compose",
		"--global-rules", "masterpiece",
		"--style", "oil painting",
		"--character", "armored knight",
	}, env.configPath)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	var result struct {
		Positive string `json:"positive"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("parse compose output: %v\n%s", err, out)
	}
	if !strings.HasPrefix(result.Positive, "masterpiece") {
		t.Fatalf("global rules should lead the prompt, got %q", result.Positive)
	}
	requireContains(t, result.Positive, "oil painting")
	if strings.Index(result.Positive, "oil painting") > strings.Index(result.Positive, "armored knight") {
		t.Fatalf("style should precede character, got %q", result.Positive)
	}
}
