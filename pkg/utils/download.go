package utils

import (
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

const downloadTimeout = 15 * time.Second

// DownloadImageFromURL fetches an image over HTTP and returns its bytes,
// detected mime type and a file name derived from the URL path.
func DownloadImageFromURL(url string) ([]byte, string, string, error) {
	statusCode, body, err := fasthttp.GetTimeout(nil, url, downloadTimeout)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to download image: %w", err)
	}
	if statusCode != fasthttp.StatusOK {
		return nil, "", "", fmt.Errorf("failed to download image: status %d", statusCode)
	}
	if len(body) == 0 {
		return nil, "", "", fmt.Errorf("downloaded image is empty")
	}

	mimeType := http.DetectContentType(body)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", "", fmt.Errorf("downloaded content is not an image: %s", mimeType)
	}

	fileName := path.Base(strings.SplitN(url, "?", 2)[0])
	if fileName == "" || fileName == "." || fileName == "/" {
		fileName = "image"
	}

	return body, mimeType, fileName, nil
}
