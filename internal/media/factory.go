package media

import (
	"context"
	"fmt"

	"buylog/internal/config"
	"buylog/internal/feed"
)

// NewTargetFromConfig creates a MediaTarget based on the media config type.
func NewTargetFromConfig(ctx context.Context, cfg config.MediaConfig) (feed.MediaTarget, error) {
	switch cfg.Type {
	case "http", "":
		return NewHTTPTarget(nil, cfg.UploadTimeout.Duration), nil
	case "s3":
		t, err := NewS3Target(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return t, nil
	case "file":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("media type file requires dir")
		}
		return NewFileTarget(cfg.Dir)
	case "memory":
		return NewMemoryTarget(), nil
	default:
		return nil, fmt.Errorf("unknown media type: %s", cfg.Type)
	}
}
