package scratch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/t2bot/media-converter/common"
)

var ErrOutputExists = errors.New("output file already exists")
var ErrBadFileName = errors.New("output file name must be a single path element")

// Space owns the uploads and outputs directories. Both are emptied when the space is acquired.
type Space struct {
	UploadsDir string
	OutputsDir string
}

func Init(uploadsPath string, outputsPath string) (*Space, error) {
	s := &Space{}
	var err error
	if s.UploadsDir, err = prepareDir(uploadsPath); err != nil {
		return nil, err
	}
	if s.OutputsDir, err = prepareDir(outputsPath); err != nil {
		return nil, err
	}
	if s.UploadsDir == s.OutputsDir {
		return nil, errors.New("uploads and outputs must be different directories")
	}
	return s, nil
}

func prepareDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	logrus.Infof("Wiping scratch directory %s", abs)
	if err = os.RemoveAll(abs); err != nil {
		return "", err
	}
	if err = os.MkdirAll(abs, 0755); err != nil {
		return "", err
	}
	return abs, nil
}

// Stage copies an upload into the uploads directory. Content longer than maxBytes is rejected with
// common.ErrMediaTooLarge; maxBytes <= 0 means unlimited.
func (s *Space) Stage(r io.Reader, maxBytes int64) (*Staged, error) {
	f, err := os.CreateTemp(s.UploadsDir, "upload-*")
	if err != nil {
		return nil, err
	}
	fpath := f.Name()
	defer f.Close()

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if err == nil && maxBytes > 0 && n > maxBytes {
		err = common.ErrMediaTooLarge
	}
	if err != nil {
		_ = os.Remove(fpath)
		return nil, err
	}
	return &Staged{Path: fpath, Size: n}, nil
}

// WriteOutput creates fileName in the outputs directory and fails rather than overwrite anything.
// The absolute location is returned.
func (s *Space) WriteOutput(fileName string, data []byte) (string, error) {
	if fileName == "" || fileName != filepath.Base(fileName) || strings.HasPrefix(fileName, ".") {
		return "", ErrBadFileName
	}
	target := filepath.Join(s.OutputsDir, fileName)
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("%s: %w", fileName, ErrOutputExists)
		}
		return "", err
	}

	_, err = f.Write(data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(target)
		return "", err
	}
	return target, nil
}

// RemoveOutput deletes an output that never made it into the registry.
func (s *Space) RemoveOutput(location string) {
	if filepath.Dir(location) != s.OutputsDir {
		return
	}
	if err := os.Remove(location); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("Failed to remove orphaned output %s: %s", location, err)
	}
}

// Staged is an uploaded file waiting for conversion. It belongs to one item until released.
type Staged struct {
	Path string
	Size int64

	releaseOnce sync.Once
}

func (s *Staged) Open() (io.ReadCloser, error) {
	return os.Open(s.Path)
}

func (s *Staged) Bytes() ([]byte, error) {
	return os.ReadFile(s.Path)
}

// Release deletes the staged file. Safe to call more than once.
func (s *Staged) Release() error {
	var err error
	s.releaseOnce.Do(func() {
		if err = os.Remove(s.Path); err != nil && os.IsNotExist(err) {
			err = nil
		}
	})
	return err
}
