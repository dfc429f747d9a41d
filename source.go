package wbfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"go4.org/readerutil"
)

const multipart = "image_part"

// ReadCloser extends Source with a Close method, for images opened from
// one or more files on disk.
type ReadCloser interface {
	Source
	io.Closer
}

type fileSource struct {
	src Source
	c   []io.Closer
}

func (f *fileSource) Size() int64 { return f.src.Size() }
func (f *fileSource) ReadAt(p []byte, off int64) (int, error) { return f.src.ReadAt(p, off) }

func (f *fileSource) Close() (err error) {
	for _, c := range f.c {
		if cerr := c.Close(); cerr != nil {
			err = multierror.Append(err, cerr)
		}
	}
	return
}

// OpenFile opens a WBFS image stored on disk. If name is the first part of
// a split image (conventionally "image_part1.wbfs", "image_part2.wbfs",
// ...), every subsequent part is opened and stitched together into one
// contiguous Source via readerutil.NewMultiReaderAt, mirroring how large
// Wii-U disc images are split across FAT32-formatted hosts in this corpus.
func OpenFile(name string) (ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		err = multierror.Append(err, f.Close())
		return nil, err
	}

	var sr Source = io.NewSectionReader(f, 0, info.Size())
	files := []io.Closer{f}

	if filepath.Base(name) == fmt.Sprintf("%s1.wbfs", multipart) {
		parts := []Source{sr}
		for i := 2; ; i++ {
			next := filepath.Join(filepath.Dir(name), fmt.Sprintf("%s%d.wbfs", multipart, i))
			pf, err := os.Open(next)
			if err != nil {
				if os.IsNotExist(err) {
					break
				}
				for _, c := range files {
					err = multierror.Append(err, c.Close())
				}
				return nil, err
			}
			files = append(files, pf)

			pinfo, err := pf.Stat()
			if err != nil {
				for _, c := range files {
					err = multierror.Append(err, c.Close())
				}
				return nil, err
			}

			parts = append(parts, io.NewSectionReader(pf, 0, pinfo.Size()))
		}
		sr = readerutil.NewMultiReaderAt(parts...)
	}

	return &fileSource{src: sr, c: files}, nil
}
