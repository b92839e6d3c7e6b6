// Package media sends upload bytes to the target the backend hands out.
package media

import (
	"fmt"
	"io"
)

// UploadError is a rejected upload, with a message for the status.
type UploadError struct {
	Status  int
	Message string
}

func (e *UploadError) Error() string {
	return e.Message
}

// Retryable reports whether trying again could succeed.
func (e *UploadError) Retryable() bool {
	return e.Status >= 500 || e.Status == 429
}

// newUploadError maps a storage response status to an UploadError.
func newUploadError(status int) *UploadError {
	var msg string
	switch status {
	case 403:
		msg = "SAS token expired or invalid"
	case 404:
		msg = "storage container not found"
	case 409:
		msg = "blob already exists"
	case 413:
		msg = "file too large for storage"
	case 400:
		msg = "invalid upload request"
	default:
		msg = fmt.Sprintf("upload failed with status %d", status)
	}
	return &UploadError{Status: status, Message: msg}
}

// progressReader reports the share of size read so far as a percentage,
// calling report only when the percentage changes.
type progressReader struct {
	r      io.Reader
	size   int64
	read   int64
	last   int
	report func(int)
}

func newProgressReader(r io.Reader, size int64, report func(int)) io.Reader {
	if report == nil || size <= 0 {
		return r
	}
	return &progressReader{r: r, size: size, last: -1, report: report}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		pct := int(min(p.read*100/p.size, 100))
		if pct != p.last {
			p.last = pct
			p.report(pct)
		}
	}
	return n, err
}
