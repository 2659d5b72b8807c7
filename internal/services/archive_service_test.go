package services

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DickShmiggleTM/RepoFusion/internal/models"
)

func TestWriteArchiveRoundTrip(t *testing.T) {
	files := []models.GeneratedFile{
		{Path: "src/main.go", Content: "package main\n"},
		{Path: "README.md", Content: "# merged\n"},
		{Path: "docs/empty.txt", Content: ""},
	}

	var buf bytes.Buffer
	svc := NewArchiveService()
	assert.NoError(t, svc.WriteArchive(&buf, files))

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	assert.NoError(t, err)
	assert.Len(t, reader.File, len(files))

	got := map[string]string{}
	for _, entry := range reader.File {
		rc, err := entry.Open()
		assert.NoError(t, err)
		data, err := io.ReadAll(rc)
		assert.NoError(t, err)
		rc.Close()
		got[entry.Name] = string(data)
	}

	for _, file := range files {
		assert.Equal(t, file.Content, got[file.Path], "content mismatch for %s", file.Path)
	}
}

func TestWriteArchiveRejectsEmptyFileList(t *testing.T) {
	var buf bytes.Buffer
	svc := NewArchiveService()
	assert.Error(t, svc.WriteArchive(&buf, nil))
}
