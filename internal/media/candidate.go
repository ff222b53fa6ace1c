package media

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var extensionTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".qt":   "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
}

// TypeByExtension returns the declared media type for a filename, or "" when
// the extension is unknown.
func TypeByExtension(filename string) string {
	return extensionTypes[strings.ToLower(filepath.Ext(filename))]
}

// CandidateFromPath builds a Candidate for a local file. The media type is
// declared from the extension; unknown extensions fall back to sniffing the
// first 512 bytes with parameters dropped, e.g. "text/plain".
func CandidateFromPath(path string) (Candidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	if info.IsDir() {
		return Candidate{}, fmt.Errorf("%s is a directory", filepath.Base(path))
	}

	mediaType := TypeByExtension(path)
	if mediaType == "" {
		mediaType, err = sniff(path)
		if err != nil {
			return Candidate{}, err
		}
	}

	return Candidate{
		Name:      filepath.Base(path),
		MediaType: mediaType,
		Size:      info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

func sniff(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	ct := http.DetectContentType(buf[:n])
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct, nil
}
