package profile

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// RawProfile is the on-disk / on-wire shape of a profile bundle before
// secure fields are materialized.
type RawProfile struct {
	Name         string                 `yaml:"name"`
	Type         string                 `yaml:"type"`
	Fields       map[string]any         `yaml:"fields"`
	SecureFields []string               `yaml:"secure_fields"`
	Dependencies []Dependency           `yaml:"dependencies"`
}

// Store resolves and reads profile bundles by type and name. Local
// bundles live under the XDG config directory (mirrors the teacher's
// own pkg/config.Loader XDG conventions); a bundle with no local file
// is fetched over HTTP from the configured remote base, when one is
// set, and cached to the same directory (§3/§4.D supplement).
type Store struct {
	appName    string
	remoteBase string // when non-empty, bundles not found locally are fetched from <remoteBase>/<type>/<name>.yaml
	httpClient *http.Client
}

// NewStore creates a Store rooted at the XDG config directory for
// appName (e.g. "mycli" -> ~/.config/mycli/profiles/<type>/<name>.yaml).
func NewStore(appName string, remoteBase string) *Store {
	return &Store{
		appName:    appName,
		remoteBase: remoteBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *Store) localPath(typ, name string) (string, error) {
	return xdg.ConfigFile(filepath.Join(s.appName, "profiles", typ, name+".yaml"))
}

// Read loads the raw bundle for type:name, trying the local filesystem
// first and falling back to the configured remote source.
func (s *Store) Read(ctx context.Context, typ, name string) (*RawProfile, Source, error) {
	path, err := s.localPath(typ, name)
	if err == nil {
		if data, readErr := os.ReadFile(path); readErr == nil {
			raw, parseErr := parseBundle(data)
			return raw, SourceLocal, parseErr
		}
	}

	if s.remoteBase == "" {
		return nil, "", fmt.Errorf("profile: no local bundle for %s:%s and no remote source configured", typ, name)
	}

	raw, err := s.fetchRemote(ctx, typ, name)
	if err != nil {
		return nil, "", err
	}

	// Best-effort cache to disk so subsequent invocations do not
	// require network access.
	if path != "" {
		if data, marshalErr := yaml.Marshal(raw); marshalErr == nil {
			_ = os.MkdirAll(filepath.Dir(path), 0o700)
			_ = os.WriteFile(path, data, 0o600)
		}
	}

	return raw, SourceRemote, nil
}

func (s *Store) fetchRemote(ctx context.Context, typ, name string) (*RawProfile, error) {
	url := fmt.Sprintf("%s/%s/%s.yaml", s.remoteBase, typ, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile: remote fetch failed for %s:%s: %w", typ, name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile: remote bundle %s:%s returned status %d", typ, name, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("profile: failed to read remote bundle %s:%s: %w", typ, name, err)
	}
	return parseBundle(data)
}

func parseBundle(data []byte) (*RawProfile, error) {
	var raw RawProfile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("profile: failed to parse bundle: %w", err)
	}
	return &raw, nil
}

// ListNames returns every profile name available locally for typ,
// used to implement Manager.LoadAll.
func (s *Store) ListNames(typ string) ([]string, error) {
	dir := filepath.Join(xdg.ConfigHome, s.appName, "profiles", typ)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		const suffix = ".yaml"
		if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
			names = append(names, name[:len(name)-len(suffix)])
		}
	}
	return names, nil
}
