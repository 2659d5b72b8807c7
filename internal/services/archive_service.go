package services

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/DickShmiggleTM/RepoFusion/internal/models"
)

// ArchiveService packages a merge result's files into a ZIP archive. Paths
// are written exactly as generated; the archive mirrors the project layout
// the model produced.
type ArchiveService interface {
	Startup(ctx context.Context)
	WriteArchive(w io.Writer, files []models.GeneratedFile) error
	ExportArchive(files []models.GeneratedFile, suggestedName string) (string, error)
}

type archiveService struct {
	ctx context.Context
}

func NewArchiveService() ArchiveService {
	return &archiveService{}
}

func (s *archiveService) Startup(ctx context.Context) {
	s.ctx = ctx
}

func (s *archiveService) WriteArchive(w io.Writer, files []models.GeneratedFile) error {
	if len(files) == 0 {
		return fmt.Errorf("no files to archive")
	}

	zw := zip.NewWriter(w)
	for _, file := range files {
		entry, err := zw.Create(file.Path)
		if err != nil {
			return fmt.Errorf("create entry %s: %w", file.Path, err)
		}
		if _, err := entry.Write([]byte(file.Content)); err != nil {
			return fmt.Errorf("write entry %s: %w", file.Path, err)
		}
	}
	return zw.Close()
}

// ExportArchive prompts for a destination through the native save dialog and
// writes the archive there. An empty returned path means the user cancelled.
func (s *archiveService) ExportArchive(files []models.GeneratedFile, suggestedName string) (string, error) {
	if s.ctx == nil {
		return "", fmt.Errorf("service not started")
	}

	name := strings.TrimSpace(suggestedName)
	if name == "" {
		name = "merged-project"
	}
	if !strings.HasSuffix(name, ".zip") {
		name += ".zip"
	}

	path, err := runtime.SaveFileDialog(s.ctx, runtime.SaveDialogOptions{
		Title:           "Export Merged Project",
		DefaultFilename: name,
		Filters: []runtime.FileFilter{
			{DisplayName: "ZIP archives (*.zip)", Pattern: "*.zip"},
		},
	})
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", nil
	}

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()

	if err := s.WriteArchive(out, files); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
