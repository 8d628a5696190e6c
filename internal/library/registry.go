package library

import (
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/goplus/ffbuild/internal/fetch"
	"github.com/goplus/ffbuild/pkgs/buildsys"
)

//go:embed libraries.json
var defaultData []byte

// ErrInvalid is wrapped by every registry load error.
var ErrInvalid = errors.New("invalid library registry")

// Registry owns every Library of a run.
type Registry struct {
	libs map[string]*Library
}

type entry struct {
	Configuration   string          `json:"configuration"`
	ConfigureParams []string        `json:"configure_params"`
	Dependencies    []string        `json:"dependencies"`
	DownloadParams  []string        `json:"download_params"`
	FolderName      json.RawMessage `json:"folder_name"`
	Blake3          string          `json:"blake3"`
}

// LoadDefault loads the embedded registry.
func LoadDefault(table map[string]Hooks) (*Registry, error) {
	return Load(defaultData, table)
}

// Load parses a registry and binds each entry to table[HookKey(name)].
func Load(data []byte, table map[string]Hooks) (*Registry, error) {
	var raw map[string]entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	r := &Registry{libs: make(map[string]*Library, len(raw))}
	for name, e := range raw {
		lib, err := newLibrary(name, e)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
		}
		lib.hooks = table[HookKey(name)]
		r.libs[name] = lib
	}

	for _, name := range r.Names() {
		for _, dep := range r.libs[name].deps {
			if _, ok := r.libs[dep]; !ok {
				return nil, fmt.Errorf("%w: %s: unknown dependency %q", ErrInvalid, name, dep)
			}
		}
	}
	return r, nil
}

func newLibrary(name string, e entry) (*Library, error) {
	if name == "" {
		return nil, errors.New("empty library name")
	}
	kind, err := buildsys.ParseKind(e.Configuration)
	if err != nil {
		return nil, err
	}

	var dl fetch.Spec
	switch len(e.DownloadParams) {
	case 3:
		dl.Subdir = e.DownloadParams[2]
		fallthrough
	case 2:
		dl.URL, dl.Dest = e.DownloadParams[0], e.DownloadParams[1]
	default:
		return nil, fmt.Errorf("download_params: want 2 or 3 values, got %d", len(e.DownloadParams))
	}
	if dl.URL == "" || dl.Dest == "" {
		return nil, errors.New("download_params: empty url or file name")
	}

	folder, err := parseFolder(e.FolderName)
	if err != nil {
		return nil, err
	}

	if e.Blake3 != "" {
		if b, err := hex.DecodeString(e.Blake3); err != nil || len(b) != 32 {
			return nil, fmt.Errorf("blake3: want 64 hex digits, got %q", e.Blake3)
		}
	}

	return &Library{
		name:     name,
		kind:     kind,
		params:   e.ConfigureParams,
		deps:     e.Dependencies,
		download: dl,
		folder:   folder,
		checksum: e.Blake3,
	}, nil
}

// parseFolder accepts a string or an array of strings.
func parseFolder(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, errors.New("folder_name: missing")
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		if one == "" {
			return nil, errors.New("folder_name: empty")
		}
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("folder_name: want string or array of strings: %v", err)
	}
	if len(many) == 0 {
		return nil, errors.New("folder_name: empty")
	}
	for _, seg := range many {
		if seg == "" {
			return nil, errors.New("folder_name: empty segment")
		}
	}
	return many, nil
}

// Get returns the library called name.
func (r *Registry) Get(name string) (*Library, bool) {
	lib, ok := r.libs[name]
	return lib, ok
}

// Names returns every library name in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.libs))
	for name := range r.libs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of libraries.
func (r *Registry) Len() int { return len(r.libs) }

// Closure returns names and every library they depend on, transitively,
// dependencies first. Unknown names are skipped.
func (r *Registry) Closure(names []string) []string {
	seen := make(map[string]bool)
	var out []string
	var visit func(string)
	visit = func(name string) {
		lib, ok := r.libs[name]
		if !ok || seen[name] {
			return
		}
		seen[name] = true
		for _, dep := range lib.deps {
			visit(dep)
		}
		out = append(out, name)
	}
	for _, n := range names {
		visit(n)
	}
	return out
}
