package feed

import (
	"context"
	"fmt"
)

// UploadResult identifies an uploaded attachment.
type UploadResult struct {
	Name    string
	MediaID string
	FileURL string
	Size    int64
}

// UploadMedia validates every file, then uploads them one at a time: first
// asking the backend for a target, then sending the bytes to it. progress is
// called per file with a percentage and may be nil. On failure the results
// for files already uploaded are returned with the error.
func (s *Service) UploadMedia(ctx context.Context, files []MediaFile, progress func(name string, percent int)) ([]UploadResult, error) {
	if s.media == nil {
		return nil, fmt.Errorf("media uploads: %w", ErrNotConfigured)
	}
	for _, f := range files {
		if err := ValidateMedia(f.Name, f.ContentType, f.Size); err != nil {
			return nil, err
		}
	}

	results := make([]UploadResult, 0, len(files))
	for _, f := range files {
		r, err := s.uploadOne(ctx, f, progress)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (s *Service) uploadOne(ctx context.Context, f MediaFile, progress func(string, int)) (UploadResult, error) {
	report := func(p int) {
		if progress != nil {
			progress(f.Name, p)
		}
	}
	report(0)

	target, err := s.backend.RequestUpload(ctx, UploadRequest{FileName: f.Name, FileType: f.ContentType, Size: f.Size})
	if err != nil {
		return UploadResult{}, fmt.Errorf("requesting upload target for %s: %w", f.Name, err)
	}
	target.FileName = f.Name

	body, err := f.Open()
	if err != nil {
		return UploadResult{}, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer body.Close()

	if err := s.media.Put(ctx, *target, body, f.Size, f.ContentType, report); err != nil {
		return UploadResult{}, fmt.Errorf("uploading %s: %w", f.Name, err)
	}
	report(100)

	s.logger.Info("uploaded media", "name", f.Name, "media_id", target.MediaID, "size", f.Size)
	return UploadResult{Name: f.Name, MediaID: target.MediaID, FileURL: target.FileURL, Size: f.Size}, nil
}
