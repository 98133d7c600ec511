package services

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const reportsRoute = "/reports/download/"

var reportRef = regexp.MustCompile(`[\p{L}\p{N}_.-]+\.pdf\b`)

// ReportLibrary gives read access to generated PDF reports stored flat in
// one directory.
type ReportLibrary struct {
	root string
}

func NewReportLibrary(dir string) (*ReportLibrary, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve reports dir: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}
	return &ReportLibrary{root: root}, nil
}

// Open returns the absolute path of a report. The name must be a bare
// .pdf file name inside the reports directory.
func (l *ReportLibrary) Open(name string) (string, error) {
	if err := validReportName(name); err != nil {
		return "", err
	}

	path := filepath.Join(l.root, name)
	if rel, err := filepath.Rel(l.root, path); err != nil || rel != name {
		return "", &ValidationError{Field: "filename", Reason: "must stay inside the reports directory"}
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.Mode().IsRegular()) {
		return "", &NotFoundError{Resource: "report", Name: name}
	}
	if err != nil {
		return "", fmt.Errorf("stat report: %w", err)
	}
	return path, nil
}

func validReportName(name string) error {
	switch {
	case name == "" || name == "." || name == "..":
		return &ValidationError{Field: "filename", Reason: "is required"}
	case strings.ContainsAny(name, `/\`) || filepath.Base(name) != name:
		return &ValidationError{Field: "filename", Reason: "must not contain path separators"}
	case !strings.EqualFold(filepath.Ext(name), ".pdf"):
		return &ValidationError{Field: "filename", Reason: "must be a .pdf file"}
	}
	return nil
}

// FindReference returns the first existing report named in text.
func (l *ReportLibrary) FindReference(text string) (string, bool) {
	for _, name := range reportRef.FindAllString(text, -1) {
		if _, err := l.Open(name); err == nil {
			return name, true
		}
	}
	return "", false
}

// DownloadURL is the public path a client fetches the report from.
func DownloadURL(name string) string {
	return reportsRoute + url.PathEscape(name)
}
