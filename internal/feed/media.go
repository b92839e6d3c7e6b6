package feed

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// MaxMediaSize is the largest attachment accepted, in bytes.
const MaxMediaSize = 10 << 20

var (
	ErrUnsupportedMedia = errors.New("unsupported file type")
	ErrMediaTooLarge    = errors.New("file too large")
	ErrInvalidMediaName = errors.New("file must have a valid name")
	ErrMediaExtension   = errors.New("file extension does not match MIME type")
)

// SupportedMediaTypes maps each accepted MIME type to its attachment kind.
var SupportedMediaTypes = map[string]MediaType{
	"image/jpeg": MediaImage,
	"image/png":  MediaImage,
	"image/gif":  MediaImage,
	"image/webp": MediaImage,
	"video/mp4":  MediaVideo,
	"video/webm": MediaVideo,
	"video/ogg":  MediaVideo,
}

var extensionTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"ogg":  "video/ogg",
	"ogv":  "video/ogg",
}

// MediaFile is one attachment waiting to be uploaded.
type MediaFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// ValidateMedia checks type, size, name and extension, in that order.
// Extensions that are not recognised are not checked against the type.
func ValidateMedia(name, contentType string, size int64) error {
	if _, ok := SupportedMediaTypes[contentType]; !ok {
		return invalid("file", fmt.Errorf("%w: %s", ErrUnsupportedMedia, contentType))
	}
	if size > MaxMediaSize {
		return invalid("file", fmt.Errorf("%w: %.1fMB (max %dMB)", ErrMediaTooLarge,
			float64(size)/1024/1024, MaxMediaSize>>20))
	}
	if strings.TrimSpace(name) == "" {
		return invalid("file", ErrInvalidMediaName)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if want, ok := extensionTypes[ext]; ok && want != contentType {
		return invalid("file", fmt.Errorf("%w: .%s is not %s", ErrMediaExtension, ext, contentType))
	}
	return nil
}

// ContentTypeFor guesses the MIME type from a file name's extension.
func ContentTypeFor(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return extensionTypes[ext]
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders n bytes with binary units and up to two decimals: "1.5 MB".
func FormatFileSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	v := float64(n) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}
