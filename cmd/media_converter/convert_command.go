package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/t2bot/media-converter/common"
	"github.com/t2bot/media-converter/common/config"
	"github.com/t2bot/media-converter/common/logging"
	"github.com/t2bot/media-converter/common/rcontext"
	"github.com/t2bot/media-converter/common/runtime"
	"github.com/t2bot/media-converter/conversion"
	"github.com/t2bot/media-converter/options"
	"github.com/t2bot/media-converter/pipelines/pipeline_batch"
	"github.com/t2bot/media-converter/pool"
	"github.com/t2bot/media-converter/scratch"
	"github.com/t2bot/media-converter/transcoding/images/vipsenc"
)

type convertFlags struct {
	kind        string
	optionsPath string
	outDir      string
	zipPath     string
}

func newConvertCommand() *cobra.Command {
	flags := &convertFlags{}
	cmd := &cobra.Command{
		Use:   "convert <file>...",
		Short: "Convert local files as one batch",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.kind, "kind", "k", string(common.KindImage), "Media kind of every file: image or audio")
	cmd.Flags().StringVar(&flags.optionsPath, "options", "", "JSON file of per-file options, keyed by file name")
	cmd.Flags().StringVarP(&flags.outDir, "out", "o", "converted", "Directory to copy converted files into")
	cmd.Flags().StringVar(&flags.zipPath, "zip", "", "Also write every converted file into this zip archive")

	return cmd
}

func runConvert(cmd *cobra.Command, flags *convertFlags, args []string) error {
	kind := common.Kind(flags.kind)
	if kind != common.KindImage && kind != common.KindAudio {
		return fmt.Errorf("unknown kind %q", flags.kind)
	}

	cfg := config.Get()
	logOpts := logging.OptionsFromConfig(cfg.General)
	logOpts.Directory = "-"
	logOpts.Output = os.Stderr
	if err := logging.Setup(logOpts); err != nil {
		return err
	}

	var rawOptions []byte
	if flags.optionsPath != "" {
		b, err := os.ReadFile(flags.optionsPath)
		if err != nil {
			return fmt.Errorf("read options: %w", err)
		}
		rawOptions = b
	}

	workDir, err := os.MkdirTemp("", "media-converter-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(workDir)
	space, err := scratch.Init(filepath.Join(workDir, "uploads"), filepath.Join(workDir, "outputs"))
	if err != nil {
		return err
	}

	vipsenc.Startup(cfg.Conversion.NumWorkers)
	defer vipsenc.Shutdown()
	queue, err := pool.NewQueue(cfg.Conversion.NumWorkers, "cli")
	if err != nil {
		return err
	}
	defer queue.Release()

	services, _ := runtime.NewServices(cfg, space, queue)
	ctx := rcontext.New(cmd.Context(), logrus.WithField("cli", "convert"), cfg)

	items, err := stageLocalFiles(space, kind, cfg.Conversion.MaxFileSizeBytes, args)
	if err != nil {
		return err
	}
	optionItems := make([]options.Item, len(items))
	for i, item := range items {
		optionItems[i] = item
	}
	resolved := options.NewResolver(cfg.Images.MaxDimension).Resolve(options.Parse(rawOptions), optionItems)

	batch, err := services.Pipeline.Execute(ctx, items, resolved)
	if err != nil {
		return err
	}

	refs, err := copyOutputs(cmd.OutOrStdout(), services.Registry, batch, flags.outDir)
	if err != nil {
		return err
	}

	if flags.zipPath != "" && len(refs) > 0 {
		if err = writeArchive(ctx, services.Archives, refs, flags.zipPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d files to %s\n", len(refs), flags.zipPath)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d converted, %d failed\n", batch.Succeeded, batch.Failed)
	if batch.Succeeded == 0 {
		return errors.New("no files were converted")
	}
	return nil
}

func stageLocalFiles(space *scratch.Space, kind common.Kind, maxBytes int64, paths []string) ([]*conversion.InputItem, error) {
	items := make([]*conversion.InputItem, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			releaseItems(items)
			return nil, err
		}
		staged, err := space.Stage(f, maxBytes)
		_ = f.Close()
		if err != nil {
			releaseItems(items)
			return nil, fmt.Errorf("stage %s: %w", p, err)
		}
		items = append(items, &conversion.InputItem{
			Name:      filepath.Base(p),
			Kind:      kind,
			SizeBytes: staged.Size,
			Content:   staged,
		})
	}
	return items, nil
}

func releaseItems(items []*conversion.InputItem) {
	for _, item := range items {
		_ = item.Content.Release()
	}
}

type resolver interface {
	Resolve(virtualPath string) (string, bool)
}

// copyOutputs reports every item and copies its artifacts into outDir, returning their virtual paths.
func copyOutputs(w io.Writer, reg resolver, batch *pipeline_batch.BatchResult, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	refs := make([]string, 0)
	for _, r := range batch.Items {
		if r.Status != conversion.StatusDone {
			fmt.Fprintf(w, "FAILED %s: %v\n", r.Item.Name, r.Err)
			continue
		}
		for _, a := range r.Artifacts {
			location, ok := reg.Resolve(a.VirtualPath)
			if !ok {
				return nil, fmt.Errorf("artifact %s is not registered", a.VirtualPath)
			}
			dest := filepath.Join(outDir, path.Base(a.VirtualPath))
			if err := copyFile(location, dest); err != nil {
				return nil, err
			}
			refs = append(refs, a.VirtualPath)
			fmt.Fprintf(w, "%s -> %s (%s, %s)\n", r.Item.Name, dest, a.Kind, humanize.Bytes(uint64(a.SizeBytes)))
		}
	}
	return refs, nil
}

func copyFile(src string, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

type archiver interface {
	BuildArchive(ctx rcontext.RequestContext, refs []string) (io.ReadCloser, int, error)
}

func writeArchive(ctx rcontext.RequestContext, builder archiver, refs []string, zipPath string) error {
	stream, _, err := builder.BuildArchive(ctx, refs)
	if err != nil {
		return err
	}
	defer stream.Close()

	f, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	if _, err = io.Copy(f, stream); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
