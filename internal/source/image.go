package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ImageSource shows a PNG or JPEG file. When the path is a directory the
// files are sorted by name and Page selects one of them.
type ImageSource struct {
	paths []string
	page  int

	once sync.Once
	img  image.Image
	err  error
}

func NewImageSource(path string, page int) (*ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var paths []string
	if fi.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				ext := strings.ToLower(filepath.Ext(entry.Name()))
				if ext == ".jpg" || ext == ".jpeg" || ext == ".png" {
					paths = append(paths, filepath.Join(path, entry.Name()))
				}
			}
		}
		sort.Strings(paths)
	} else {
		paths = []string{path}
	}

	if page < 0 || page >= len(paths) {
		return nil, fmt.Errorf("image %s: page %d out of range [0,%d)", path, page, len(paths))
	}
	return &ImageSource{paths: paths, page: page}, nil
}

func (s *ImageSource) PageCount() int {
	return len(s.paths)
}

// Dimensions reads the image header without decoding pixels.
func (s *ImageSource) Dimensions() (int, int, error) {
	f, err := os.Open(s.paths[s.page])
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

func (s *ImageSource) Render() (image.Image, error) {
	s.once.Do(func() {
		s.img, s.err = decodeFile(s.paths[s.page])
	})
	return s.img, s.err
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func (s *ImageSource) Close() error {
	return nil
}
