// Package credential implements the Credential Manager (§4.E): a
// pluggable store for secret fields referenced by profiles. Exactly one
// implementation is active per process; the framework never assumes a
// particular backend.
package credential

import (
	"context"
	"fmt"

	"github.com/cliforge/cmdcore/pkg/cmderror"
)

// Manager is the capability set every credential backend implements
// (§4.E). cred at the boundary is an opaque string.
type Manager interface {
	Load(ctx context.Context, account string) (string, bool, error)
	Save(ctx context.Context, account string, cred string) error
	Delete(ctx context.Context, account string) error
}

// Initializer is implemented by backends that need an asynchronous
// one-time setup before first use (§4.E: "an optional asynchronous
// initialize() is invoked once before first use").
type Initializer interface {
	Initialize(ctx context.Context) error
}

// AccountKey builds the stable account key format from §6:
// "<profileType>_<profileName>_<secureFieldName>". Every backend must
// use this exact format so credentials remain addressable across a
// backend swap.
func AccountKey(profileType, profileName, fieldName string) string {
	return fmt.Sprintf("%s_%s_%s", profileType, profileName, fieldName)
}

// ErrMissingSecret is returned by Save when the caller supplies an
// empty or absent secret (§4.E: "save rejects empty/absent secrets").
var ErrMissingSecret = cmderror.New(cmderror.KindInternal, "cannot save an empty secure field").
	WithSubkind(cmderror.SubkindMissingSecureField)

// InitializeOnce runs mgr's Initialize if it implements Initializer,
// otherwise it is a no-op. It does not guard against repeat calls:
// every call runs Initialize again, so callers own their own
// once.Once/sync guard; this helper just performs the type check.
func InitializeOnce(ctx context.Context, mgr Manager) error {
	if init, ok := mgr.(Initializer); ok {
		return init.Initialize(ctx)
	}
	return nil
}
