package encryption

import (
	"fmt"

	"buylog/internal/config"
	"buylog/internal/credential"
)

// NewSealerFromConfig creates a Sealer based on the configuration type.
// The "none" type returns a nil Sealer: the credential is stored as is.
func NewSealerFromConfig(cfg config.EncryptionConfig) (credential.Sealer, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "age":
		if cfg.IdentityPath == "" {
			return nil, fmt.Errorf("identity_path required for age encryption")
		}
		return NewAgeSealer(cfg), nil
	case "test":
		return NewTestSealer(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
