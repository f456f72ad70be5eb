package documents_test

import (
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"agencyboard/internal/documents"
	"agencyboard/internal/testsupport"
)

func TestFolderName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"João da Silva", "Joao_da_Silva"},
		{"João da Silva & Cia.", "Joao_da_Silva_Cia"},
		{"  Ana   Lúcia  ", "Ana_Lucia"},
		{"Viagem #42 (Paris/Roma)", "Viagem_42_ParisRoma"},
		{"Joao_da_Silva", "Joao_da_Silva"},
		{"Müller Straße", "Muller_Strae"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := documents.FolderName(tt.input)
			if got != tt.want {
				t.Fatalf("FolderName(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := documents.FolderName(got); again != got {
				t.Fatalf("FolderName not idempotent: %q → %q", got, again)
			}
		})
	}
}

func newStore(t *testing.T, opts ...documents.Option) *documents.Store {
	t.Helper()
	base := []documents.Option{documents.WithSigningKey("0123456789abcdef"), documents.WithBaseURL("https://board.example/")}
	st, err := documents.New(t.TempDir(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return st
}

func TestUploadListOpenDelete(t *testing.T) {
	st := newStore(t)

	entries, err := st.List("João da Silva")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty folder, got %d entries", len(entries))
	}

	entry, err := st.Upload("João da Silva", "../voucher.pdf", strings.NewReader("voucher"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if entry.Folder != "Joao_da_Silva" || entry.Name != "voucher.pdf" || entry.Size != 7 || entry.SHA256 == "" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if _, err := os.Stat(filepath.Join(st.Root(), "Joao_da_Silva", "voucher.pdf")); err != nil {
		t.Fatalf("file not on disk: %v", err)
	}
	if _, err := st.Upload("Joao_da_Silva", "contrato.pdf", strings.NewReader("c")); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	entries, err = st.List("Joao_da_Silva")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "contrato.pdf" || entries[1].Name != "voucher.pdf" {
		t.Fatalf("unexpected listing: %+v", entries)
	}

	f, info, err := st.Open("João da Silva", "voucher.pdf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "voucher" || info.Size != 7 {
		t.Fatalf("unexpected content %q size %d", data, info.Size)
	}

	if err := st.Delete("Joao_da_Silva", "voucher.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := st.Delete("Joao_da_Silva", "voucher.pdf"); !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := st.Open("Joao_da_Silva", "voucher.pdf"); !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on open, got %v", err)
	}
}

func TestInvalidNamesRejected(t *testing.T) {
	st := newStore(t)
	if _, err := st.Upload("!!!", "a.pdf", strings.NewReader("x")); !errors.Is(err, documents.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName for folder, got %v", err)
	}
	if _, err := st.Upload("Ana", "..", strings.NewReader("x")); !errors.Is(err, documents.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName for name, got %v", err)
	}
	if _, _, err := st.Open("Ana", "../../etc/passwd"); !errors.Is(err, documents.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName for traversal, got %v", err)
	}
}

func TestUploadSizeLimit(t *testing.T) {
	st := newStore(t, documents.WithMaxBytes(4))
	if _, err := st.Upload("Ana", "big.bin", strings.NewReader("12345")); !errors.Is(err, documents.ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	entries, err := st.List("Ana")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("oversized upload left files behind: %+v", entries)
	}
}

func TestSignedURLRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	st := newStore(t, documents.WithClock(clock))

	if _, err := st.Upload("Ana Lúcia", "bilhete 1.pdf", strings.NewReader("x")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	link, expires, err := st.SignedURL("Ana Lúcia", "bilhete 1.pdf", time.Hour)
	if err != nil {
		t.Fatalf("SignedURL: %v", err)
	}
	if !expires.Equal(now.Add(time.Hour)) {
		t.Fatalf("expires = %s", expires)
	}
	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse %q: %v", link, err)
	}
	if parsed.Host != "board.example" || parsed.Path != "/files/Ana_Lucia/bilhete 1.pdf" {
		t.Fatalf("unexpected link %q", link)
	}
	exp, err := strconv.ParseInt(parsed.Query().Get("expires"), 10, 64)
	if err != nil {
		t.Fatalf("expires param: %v", err)
	}
	sig := parsed.Query().Get("sig")

	if err := st.Verify("Ana_Lucia", "bilhete 1.pdf", exp, sig); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if err := st.Verify("Ana_Lucia", "other.pdf", exp, sig); !errors.Is(err, documents.ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature for other file, got %v", err)
	}
	if err := st.Verify("Ana_Lucia", "bilhete 1.pdf", exp+60, sig); !errors.Is(err, documents.ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature for tampered expiry, got %v", err)
	}
	if err := st.Verify("Ana_Lucia", "bilhete 1.pdf", exp, "zz"); !errors.Is(err, documents.ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature for garbage, got %v", err)
	}

	now = now.Add(2 * time.Hour)
	if err := st.Verify("Ana_Lucia", "bilhete 1.pdf", exp, sig); !errors.Is(err, documents.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestSignedURLRequirements(t *testing.T) {
	unsigned, err := documents.New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, _, err := unsigned.SignedURL("Ana", "a.pdf", time.Hour); !errors.Is(err, documents.ErrSigningDisabled) {
		t.Fatalf("expected ErrSigningDisabled, got %v", err)
	}
	if err := unsigned.Verify("Ana", "a.pdf", 0, "00"); !errors.Is(err, documents.ErrSigningDisabled) {
		t.Fatalf("expected ErrSigningDisabled on verify, got %v", err)
	}

	st := newStore(t)
	if _, _, err := st.SignedURL("Ana", "missing.pdf", time.Hour); !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := st.SignedURL("Ana", "missing.pdf", 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Documents.MaxUploadMiB = 1
	st, err := documents.NewFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if st.Root() != filepath.Clean(cfg.Paths.DocumentsDir) {
		t.Fatalf("root = %q", st.Root())
	}
	if !st.SigningEnabled() {
		t.Fatal("expected signing key from test config")
	}
	if _, err := st.Upload("Ana", "big.bin", strings.NewReader(strings.Repeat("x", 1<<20+1))); !errors.Is(err, documents.ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge at 1 MiB, got %v", err)
	}
}
