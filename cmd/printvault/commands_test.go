package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"printvault/internal/auth"
	"printvault/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv(logLevelEnvKey, "")
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(dir, "vault.db")
	cfg.Blobs.Root = filepath.Join(dir, "blobs")
	return &cfg
}

func execCLI(cfg *config.Config, stdin io.Reader, args ...string) (string, error) {
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	defer func() { stdout = prev }()

	cmd := newRootCmd(cfg)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	cmd.SetErr(io.Discard)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func runCLI(t *testing.T, cfg *config.Config, args ...string) string {
	t.Helper()
	out, err := execCLI(cfg, nil, args...)
	if err != nil {
		t.Fatalf("printvault %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestBlobPutDeduplicates(t *testing.T) {
	cfg := testConfig(t)
	first := writeTestFile(t, "part.gcode", "G28\nG1 X10\n")
	second := writeTestFile(t, "copy.gcode", "G28\nG1 X10\n")

	out := runCLI(t, cfg, "--output", "json", "blob", "put", first, second)
	var ids []string
	if err := json.Unmarshal([]byte(out), &ids); err != nil {
		t.Fatalf("decode ids: %v (%q)", err, out)
	}
	if len(ids) != 2 || ids[0] != ids[1] {
		t.Fatalf("expected one deduplicated id, got %v", ids)
	}
	if !strings.HasPrefix(ids[0], "bl-") {
		t.Fatalf("expected blob id, got %q", ids[0])
	}
}

func TestPrinterAddIsIdempotent(t *testing.T) {
	cfg := testConfig(t)

	first := strings.TrimSpace(runCLI(t, cfg, "printer", "add", "MK4-001", "--set", "nozzle=0.4", "--set", "model=MK4"))
	second := strings.TrimSpace(runCLI(t, cfg, "printer", "add", "MK4-001", "--set", "nozzle=0.6"))
	if first == "" || first != second {
		t.Fatalf("expected the same printer id, got %q and %q", first, second)
	}
	if !strings.HasPrefix(first, "pr-") {
		t.Fatalf("expected printer id, got %q", first)
	}

	if _, err := execCLI(cfg, nil, "printer", "add", "  "); err == nil {
		t.Fatal("expected error for blank printer identifier")
	}
}

func TestPrinterInfo(t *testing.T) {
	infoFile := writeTestFile(t, "info.yaml", "model: MK4\nbed:\n  x: 250\n")
	info, err := printerInfo(infoFile, []string{"nozzle=0.4", "model=XL", "note=hello world"})
	if err != nil {
		t.Fatalf("printer info: %v", err)
	}
	if info["model"] != "XL" || info["nozzle"] != 0.4 || info["note"] != "hello world" {
		t.Fatalf("unexpected info %#v", info)
	}
	if _, ok := info["bed"].(map[string]any); !ok {
		t.Fatalf("expected nested bed info, got %#v", info["bed"])
	}

	if _, err := printerInfo("", []string{"novalue"}); err == nil {
		t.Fatal("expected error for field without '='")
	}
}

func TestDictionaryWorkflow(t *testing.T) {
	cfg := testConfig(t)

	var shown dictionaryEntry
	out := runCLI(t, cfg, "-o", "json", "dict", "show", "MK4", "PrusaSlicer")
	if err := json.Unmarshal([]byte(out), &shown); err != nil {
		t.Fatalf("decode dictionary: %v (%q)", err, out)
	}
	if !strings.HasPrefix(shown.ID, "dc-") || len(shown.Dict) != 0 {
		t.Fatalf("expected new empty dictionary, got %+v", shown)
	}

	mapping := writeTestFile(t, "mapping.yaml", "temperature: nozzle_temperature\nfirst_layer_temperature: nozzle_temperature\nbed_temperature: bed_temperature\n")
	runCLI(t, cfg, "dict", "set", shown.ID, mapping)
	runCLI(t, cfg, "dict", "merge", mapping)

	out = runCLI(t, cfg, "dict", "show", "MK4", "PrusaSlicer")
	if !strings.Contains(out, "first_layer_temperature: nozzle_temperature") {
		t.Fatalf("expected replaced mapping, got %q", out)
	}
	out = runCLI(t, cfg, "-o", "json", "dict", "show", "", "")
	var global dictionaryEntry
	if err := json.Unmarshal([]byte(out), &global); err != nil {
		t.Fatalf("decode global: %v", err)
	}
	want := map[string]string{"nozzle_temperature": "nozzle_temperature", "bed_temperature": "bed_temperature"}
	if !reflect.DeepEqual(global.Dict, want) {
		t.Fatalf("unexpected global dictionary %v", global.Dict)
	}

	if _, err := execCLI(cfg, nil, "dict", "set", "dc-000000000000", mapping); err == nil {
		t.Fatal("expected error for unknown dictionary")
	}
	if _, err := execCLI(cfg, nil, "dict", "set", global.ID, mapping); err == nil {
		t.Fatal("expected error replacing the global dictionary")
	}

	exported := filepath.Join(t.TempDir(), "dicts.yaml")
	runCLI(t, cfg, "dict", "export", "--out", exported)

	other := testConfig(t)
	runCLI(t, other, "dict", "import", exported)
	reexported := filepath.Join(t.TempDir(), "dicts.yaml")
	runCLI(t, other, "dict", "export", "--out", reexported)

	before := readExport(t, exported)
	after := readExport(t, reexported)
	if len(before.Dictionaries) != 2 || len(after.Dictionaries) != 2 {
		t.Fatalf("expected two dictionaries, got %d and %d", len(before.Dictionaries), len(after.Dictionaries))
	}
	for i := range before.Dictionaries {
		b, a := before.Dictionaries[i], after.Dictionaries[i]
		if b.Printer != a.Printer || b.Slicer != a.Slicer || !reflect.DeepEqual(b.Dict, a.Dict) {
			t.Fatalf("entry %d differs after import: %+v vs %+v", i, b, a)
		}
	}
}

func readExport(t *testing.T, path string) dictionaryDocument {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	doc, err := readDictionaryDocument(f)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	return doc
}

func TestReadDictionaryDocumentRejectsUnknownFields(t *testing.T) {
	_, err := readDictionaryDocument(strings.NewReader("dictionaries:\n  - printer: a\n    slicer: b\n    mapping: {}\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}

	doc, err := readDictionaryDocument(strings.NewReader(""))
	if err != nil || len(doc.Dictionaries) != 0 {
		t.Fatalf("expected empty document, got %+v (%v)", doc, err)
	}
}

func TestMigrate(t *testing.T) {
	cfg := testConfig(t)

	out := runCLI(t, cfg, "migrate", "--dry-run")
	if !strings.Contains(out, "schema version: 0 of") || !strings.Contains(out, "pending migrations:") {
		t.Fatalf("unexpected dry-run output %q", out)
	}

	out = runCLI(t, cfg, "migrate")
	if !strings.Contains(out, "migrations applied") {
		t.Fatalf("unexpected migrate output %q", out)
	}

	out = runCLI(t, cfg, "-o", "json", "migrate", "--dry-run")
	var plan struct {
		CurrentVersion   int `json:"current_version"`
		AvailableVersion int `json:"available_version"`
	}
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	if plan.CurrentVersion == 0 || plan.CurrentVersion != plan.AvailableVersion {
		t.Fatalf("expected fully migrated schema, got %+v", plan)
	}
}

func TestTokenHash(t *testing.T) {
	cfg := testConfig(t)
	token := "printvault-test-token-123"

	hash := strings.TrimSpace(runCLI(t, cfg, "token", "hash", token))
	if !auth.VerifyToken(hash, token) {
		t.Fatalf("hash %q does not verify", hash)
	}

	out, err := execCLI(cfg, strings.NewReader(token+"\n"), "token", "hash")
	if err != nil {
		t.Fatalf("hash from stdin: %v", err)
	}
	if !auth.VerifyToken(strings.TrimSpace(out), token) {
		t.Fatalf("stdin hash %q does not verify", out)
	}

	if _, err := execCLI(cfg, nil, "token", "hash", "short"); err == nil {
		t.Fatal("expected error for short token")
	}
}

func TestTokenGenerate(t *testing.T) {
	cfg := testConfig(t)

	out := runCLI(t, cfg, "-o", "yaml", "token", "generate")
	var token, hash string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		key, value, _ := strings.Cut(line, ": ")
		switch key {
		case "token":
			token = strings.Trim(value, `"'`)
		case "api_token_hash":
			hash = strings.Trim(value, `"'`)
		}
	}
	if token == "" || !auth.VerifyToken(hash, token) {
		t.Fatalf("generated pair does not verify: %q", out)
	}
}

func TestConfigCommands(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	t.Setenv("PRINTVAULT_CONFIG_DIR", dir)

	out := runCLI(t, cfg, "config", "path")
	if strings.TrimSpace(out) != filepath.Join(dir, ".printvault.toml") {
		t.Fatalf("unexpected config path %q", out)
	}

	runCLI(t, cfg, "config", "set", "dedup.guard", "local")
	loaded, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if loaded.Dedup.Guard != "local" {
		t.Fatalf("expected local guard, got %q", loaded.Dedup.Guard)
	}

	out = runCLI(t, cfg, "config", "get", "db_path")
	if strings.TrimSpace(out) != cfg.DBPath {
		t.Fatalf("unexpected db_path %q", out)
	}

	if _, err := execCLI(cfg, nil, "config", "get", "nope"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestUnknownOutputFormat(t *testing.T) {
	cfg := testConfig(t)
	if _, err := execCLI(cfg, nil, "-o", "xml", "config", "path"); err == nil {
		t.Fatal("expected error for unknown output format")
	}
}
