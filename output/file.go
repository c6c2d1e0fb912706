package output

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"code.cloudfoundry.org/bytefmt"
	"github.com/pkg/errors"
)

const defaultDownloadName = "index.html"

var reIndexSuffix = regexp.MustCompile(`\.(\d+)$`)

type FileWriter struct {
	fullPath string
}

func NewFileWriter(u *url.URL, options *Options) *FileWriter {
	var fullPath string

	if options.OutputFile == "" {
		fullPath = "./" + downloadName(u)
	} else {
		fullPath = options.OutputFile
	}

	if !options.Overwrite {
		fullPath = makeNonOverlappingFilename(fullPath)
	}

	return &FileWriter{
		fullPath: fullPath,
	}
}

func downloadName(u *url.URL) string {
	if u == nil {
		return defaultDownloadName
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." || name == "" {
		return defaultDownloadName
	}
	return name
}

// makeNonOverlappingFilename appends or bumps a numeric suffix until path
// names a file that does not exist yet.
func makeNonOverlappingFilename(path string) string {
	for {
		if _, err := os.Stat(path); err != nil {
			return path
		}
		newPath := reIndexSuffix.ReplaceAllStringFunc(path, func(index string) string {
			i, _ := strconv.Atoi(strings.TrimPrefix(index, "."))
			return fmt.Sprintf(".%d", i+1)
		})
		if path == newPath {
			newPath = fmt.Sprintf("%s.%d", path, 1)
		}
		path = newPath
	}
}

// Download writes body to the target file and returns a one-line report.
func (f *FileWriter) Download(body []byte) (string, error) {
	file, err := os.Create(f.fullPath)
	if err != nil {
		return "", errors.Wrapf(err, "creating %s", f.fullPath)
	}
	defer file.Close()

	if _, err := file.Write(body); err != nil {
		return "", errors.Wrapf(err, "writing %s", f.fullPath)
	}
	if err := file.Close(); err != nil {
		return "", errors.Wrapf(err, "closing %s", f.fullPath)
	}
	return fmt.Sprintf("Downloaded %s to \"%s\"", bytefmt.ByteSize(uint64(len(body))), f.fullPath), nil
}

func (f *FileWriter) Filename() string {
	return filepath.Base(f.fullPath)
}
