// Package upload stores multipart files under the public directory and
// returns the URL they are served from.
package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/visa-portal/internal/apperr"
)

// Rule restricts what may be uploaded under a form field.
type Rule struct {
	Field    string
	Exts     []string // lower-case, with the dot
	MaxBytes int64
}

var (
	imageOrPDF = []string{".jpg", ".jpeg", ".png", ".pdf"}
	scanned    = []string{".jpg", ".jpeg", ".png", ".pdf", ".tif", ".tiff"}
)

// Registration and application upload rules.
var (
	Document     = Rule{Field: "document", Exts: imageOrPDF, MaxBytes: 3 << 20}
	FacePhoto    = Rule{Field: "face_photo", Exts: scanned, MaxBytes: 5 << 20}
	PassportPage = Rule{Field: "passport_page", Exts: scanned, MaxBytes: 5 << 20}
	Letter       = Rule{Field: "letter", Exts: scanned, MaxBytes: 5 << 20}
)

// Check validates name and size against r.
func (r Rule) Check(name string, size int64) error {
	ext := strings.ToLower(filepath.Ext(name))
	ok := false
	for _, e := range r.Exts {
		if e == ext {
			ok = true
			break
		}
	}
	if !ok {
		return apperr.ErrInvalidFileType
	}
	if size > r.MaxBytes {
		return apperr.ErrFileTooLarge
	}
	return nil
}

// Store writes files into Dir and builds URLs under BaseURL + "/public/".
type Store struct {
	Dir     string
	BaseURL string
}

func NewStore(dir, baseURL string) *Store {
	return &Store{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

// Save checks fh against r, copies it to <field>-<uuid><ext> and returns its
// public URL.
func (s *Store) Save(fh *multipart.FileHeader, r Rule) (string, error) {
	if err := r.Check(fh.Filename, fh.Size); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := r.Field + "-" + uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	dst, err := os.OpenFile(filepath.Join(s.Dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	// the header size is client-supplied; enforce the limit on the bytes too
	n, err := io.Copy(dst, io.LimitReader(src, r.MaxBytes+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > r.MaxBytes {
		err = apperr.ErrFileTooLarge
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.Dir, name))
		if errors.Is(err, apperr.ErrFileTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("write file: %w", err)
	}
	return s.URL(name), nil
}

// URL is the public address of a stored file name.
func (s *Store) URL(name string) string {
	return s.BaseURL + "/public/" + name
}

// Remove deletes the stored file behind a URL returned by Save. URLs that
// do not point into this store are rejected.
func (s *Store) Remove(url string) error {
	name, ok := strings.CutPrefix(url, s.BaseURL+"/public/")
	if !ok || name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("remove upload: %q is not a stored file", url)
	}
	if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}
