package documents

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"agencyboard/internal/config"
	"agencyboard/internal/fileutil"
	"agencyboard/internal/logging"
	"agencyboard/internal/textutil"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrInvalidName     = errors.New("invalid document name")
	ErrTooLarge        = fileutil.ErrTooLarge
	ErrSigningDisabled = errors.New("document signing key not configured")
	ErrExpired         = errors.New("signed url expired")
	ErrBadSignature    = errors.New("signed url signature mismatch")
)

// Entry describes one stored file.
type Entry struct {
	Folder  string    `json:"folder"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	SHA256  string    `json:"sha256,omitempty"`
}

// Store manages client folders beneath a root directory.
type Store struct {
	root     string
	key      []byte
	baseURL  string
	maxBytes int64
	now      func() time.Time
	logger   *slog.Logger
}

// Option customises a Store.
type Option func(*Store)

// WithSigningKey enables SignedURL and Verify.
func WithSigningKey(key string) Option {
	return func(s *Store) { s.key = []byte(key) }
}

// WithBaseURL prefixes signed URLs, e.g. "https://board.example".
func WithBaseURL(base string) Option {
	return func(s *Store) { s.baseURL = strings.TrimRight(base, "/") }
}

// WithMaxBytes caps uploads.
func WithMaxBytes(n int64) Option {
	return func(s *Store) { s.maxBytes = n }
}

// WithClock overrides the time source used for expiries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New returns a Store rooted at root.
func New(root string, opts ...Option) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("documents root is required")
	}
	s := &Store{root: filepath.Clean(root), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "documents")
	return s, nil
}

// NewFromConfig builds a Store from the documents section of cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	return New(cfg.Paths.DocumentsDir,
		WithSigningKey(cfg.Documents.SigningKey),
		WithBaseURL(cfg.Documents.PublicBaseURL),
		WithMaxBytes(int64(cfg.Documents.MaxUploadMiB)<<20),
		WithLogger(logger),
	)
}

// Root returns the directory holding every folder.
func (s *Store) Root() string { return s.root }

// SigningEnabled reports whether a signing key is configured.
func (s *Store) SigningEnabled() bool { return len(s.key) > 0 }

func (s *Store) folderPath(folder string) (string, string, error) {
	name := FolderName(folder)
	if name == "" {
		return "", "", fmt.Errorf("%w: folder %q", ErrInvalidName, folder)
	}
	return name, filepath.Join(s.root, name), nil
}

func (s *Store) filePath(folder, name string) (string, string, string, error) {
	folder, dir, err := s.folderPath(folder)
	if err != nil {
		return "", "", "", err
	}
	clean := textutil.SanitizeFileName(name)
	if clean == "" || clean != strings.TrimSpace(name) {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return folder, clean, filepath.Join(dir, clean), nil
}

// List returns the files of a folder sorted by name. A folder that does not
// exist yet is empty.
func (s *Store) List(folder string) ([]Entry, error) {
	folder, dir, err := s.folderPath(folder)
	if err != nil {
		return nil, err
	}
	items, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", folder, err)
	}
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if !item.Type().IsRegular() || strings.HasPrefix(item.Name(), ".") {
			continue
		}
		info, err := item.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Folder: folder, Name: item.Name(), Size: info.Size(), ModTime: info.ModTime().UTC()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Upload stores r as folder/name, replacing any previous file of that name.
// The name is sanitized; the stored name is returned in the Entry.
func (s *Store) Upload(folder, name string, r io.Reader) (Entry, error) {
	folder, dir, err := s.folderPath(folder)
	if err != nil {
		return Entry{}, err
	}
	clean := textutil.SanitizeFileName(filepath.Base(name))
	if clean == "" {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Entry{}, fmt.Errorf("create folder %s: %w", folder, err)
	}
	written, err := fileutil.WriteAtomic(filepath.Join(dir, clean), r, s.maxBytes, 0o644)
	if err != nil {
		return Entry{}, fmt.Errorf("upload %s/%s: %w", folder, clean, err)
	}
	s.logger.Info("document stored",
		logging.String(logging.FieldEventType, "document_uploaded"),
		logging.String("folder", folder),
		logging.String("name", clean),
		logging.Int64("bytes", written.Size),
	)
	return Entry{
		Folder:  folder,
		Name:    clean,
		Size:    written.Size,
		ModTime: s.now().UTC(),
		SHA256:  written.SHA256,
	}, nil
}

// Delete removes folder/name.
func (s *Store) Delete(folder, name string) error {
	folder, clean, path, err := s.filePath(folder, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, folder, clean)
		}
		return fmt.Errorf("delete %s/%s: %w", folder, clean, err)
	}
	s.logger.Info("document deleted",
		logging.String(logging.FieldEventType, "document_deleted"),
		logging.String("folder", folder),
		logging.String("name", clean),
	)
	return nil
}

// Open returns a reader for folder/name. Callers close the file.
func (s *Store) Open(folder, name string) (*os.File, Entry, error) {
	folder, clean, path, err := s.filePath(folder, name)
	if err != nil {
		return nil, Entry{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Entry{}, fmt.Errorf("%w: %s/%s", ErrNotFound, folder, clean)
		}
		return nil, Entry{}, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, Entry{}, err
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, Entry{}, fmt.Errorf("%w: %s/%s", ErrNotFound, folder, clean)
	}
	return f, Entry{Folder: folder, Name: clean, Size: info.Size(), ModTime: info.ModTime().UTC()}, nil
}

// SignedURL returns a download URL for folder/name valid for ttl. The file
// must exist.
func (s *Store) SignedURL(folder, name string, ttl time.Duration) (string, time.Time, error) {
	if !s.SigningEnabled() {
		return "", time.Time{}, ErrSigningDisabled
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("ttl must be positive, got %s", ttl)
	}
	folder, clean, path, err := s.filePath(folder, name)
	if err != nil {
		return "", time.Time{}, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", time.Time{}, fmt.Errorf("%w: %s/%s", ErrNotFound, folder, clean)
		}
		return "", time.Time{}, err
	}
	expires := s.now().Add(ttl).Truncate(time.Second)
	query := url.Values{}
	query.Set("expires", strconv.FormatInt(expires.Unix(), 10))
	query.Set("sig", s.sign(folder, clean, expires.Unix()))
	link := fmt.Sprintf("%s/files/%s/%s?%s", s.baseURL, url.PathEscape(folder), url.PathEscape(clean), query.Encode())
	return link, expires, nil
}

// Verify checks a signature produced by SignedURL.
func (s *Store) Verify(folder, name string, expires int64, sig string) error {
	if !s.SigningEnabled() {
		return ErrSigningDisabled
	}
	got, err := hex.DecodeString(strings.TrimSpace(sig))
	if err != nil {
		return ErrBadSignature
	}
	want, _ := hex.DecodeString(s.sign(FolderName(folder), strings.TrimSpace(name), expires))
	if !hmac.Equal(got, want) {
		return ErrBadSignature
	}
	if s.now().Unix() > expires {
		return ErrExpired
	}
	return nil
}

func (s *Store) sign(folder, name string, expires int64) string {
	mac := hmac.New(sha256.New, s.key)
	fmt.Fprintf(mac, "%s/%s:%d", folder, name, expires)
	return hex.EncodeToString(mac.Sum(nil))
}
