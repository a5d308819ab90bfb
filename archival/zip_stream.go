package archival

import (
	"archive/zip"
	"io"
	"time"

	"github.com/klauspost/compress/flate"
)

// Entry is one file in an archive. Open is called only when the entry is written.
type Entry struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// StreamZip writes the entries into a zip as the returned reader is consumed. Closing the reader
// early stops the writer.
func StreamZip(entries []Entry) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		zw := zip.NewWriter(pw)
		zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(out, flate.BestCompression)
		})

		for _, e := range entries {
			if err := writeEntry(zw, e); err != nil {
				_ = pw.CloseWithError(err)
				return
			}
		}
		if err := zw.Close(); err != nil {
			_ = pw.CloseWithError(err)
		} else {
			_ = pw.Close()
		}
	}()
	return pr
}

func writeEntry(zw *zip.Writer, e Entry) error {
	f, err := e.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     e.Name,
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}
