package main

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/t2bot/media-converter/archival"
	"github.com/t2bot/media-converter/common/config"
	"github.com/t2bot/media-converter/common/rcontext"
	"github.com/t2bot/media-converter/conversion"
	"github.com/t2bot/media-converter/pipelines/pipeline_batch"
	"github.com/t2bot/media-converter/registry"
)

func TestCopyOutputsAndArchive(t *testing.T) {
	root := t.TempDir()
	location := filepath.Join(root, "a-123.webp")
	require.NoError(t, os.WriteFile(location, []byte("webp bytes"), 0644))

	reg := registry.New()
	vp := registry.VirtualPath("a-123.webp")
	require.NoError(t, reg.Register(vp, location))

	batch := &pipeline_batch.BatchResult{
		Items: []*conversion.ItemResult{
			{
				Item:      &conversion.InputItem{Name: "a.png"},
				Status:    conversion.StatusDone,
				Artifacts: []*conversion.Artifact{{Kind: conversion.ArtifactWebp, VirtualPath: vp, SizeBytes: 10}},
			},
			{
				Item:   &conversion.InputItem{Name: "b.png"},
				Status: conversion.StatusFailed,
			},
		},
		Succeeded: 1,
		Failed:    1,
	}

	out := &bytes.Buffer{}
	outDir := filepath.Join(root, "converted")
	refs, err := copyOutputs(out, reg, batch, outDir)
	require.NoError(t, err)
	assert.Equal(t, []string{vp}, refs)
	assert.Contains(t, out.String(), "FAILED b.png")

	b, err := os.ReadFile(filepath.Join(outDir, "a-123.webp"))
	require.NoError(t, err)
	assert.Equal(t, "webp bytes", string(b))

	// Existing files are never overwritten
	_, err = copyOutputs(out, reg, batch, outDir)
	assert.Error(t, err)

	cfg := config.NewDefaultMainConfig()
	ctx := rcontext.New(context.Background(), logrus.WithField("test", t.Name()), &cfg)
	zipPath := filepath.Join(root, "out.zip")
	require.NoError(t, writeArchive(ctx, archival.NewBuilder(reg), refs, zipPath))

	zr, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, "a-123.webp", zr.File[0].Name)
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand()
	convert, _, err := cmd.Find([]string{"convert"})
	require.NoError(t, err)
	assert.Equal(t, "convert", convert.Name())
	assert.NotNil(t, convert.Flags().Lookup("zip"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}
