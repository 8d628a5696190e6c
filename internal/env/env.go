// Package env manipulates the process environment that spawned build tools
// inherit.
package env

import (
	"os"
	"sort"
	"strings"
)

// Snapshot is a saved copy of the process environment.
type Snapshot []string

// Save captures the current process environment.
func Save() Snapshot {
	return os.Environ()
}

// Restore replaces the process environment with the snapshot.
func (s Snapshot) Restore() {
	os.Clearenv()
	for _, e := range s {
		if k, v, ok := strings.Cut(e, "="); ok {
			os.Setenv(k, v)
		}
	}
}

// PrependPath prepends value to a PATH-style variable.
func PrependPath(key, value string) {
	if cur := os.Getenv(key); cur != "" {
		value += string(os.PathListSeparator) + cur
	}
	os.Setenv(key, value)
}

// AppendFlag appends space-separated flags to a variable. Empty flags are
// ignored.
func AppendFlag(key string, flags ...string) {
	cur := os.Getenv(key)
	for _, f := range flags {
		if f = strings.TrimSpace(f); f == "" {
			continue
		}
		if cur == "" {
			cur = f
		} else {
			cur += " " + f
		}
	}
	os.Setenv(key, cur)
}

// Merge returns base with every key in override replaced or appended, sorted
// by key.
func Merge(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

// Overlay records variables set through it so they can be reverted.
// The zero value is ready to use.
type Overlay struct {
	keys []string
	prev map[string]prevValue
}

type prevValue struct {
	value string
	set   bool
}

// Set sets key in the process environment, remembering the value it had
// before the first Set of that key.
func (o *Overlay) Set(key, value string) error {
	if o.prev == nil {
		o.prev = make(map[string]prevValue)
	}
	if _, seen := o.prev[key]; !seen {
		v, ok := os.LookupEnv(key)
		o.prev[key] = prevValue{value: v, set: ok}
		o.keys = append(o.keys, key)
	}
	return os.Setenv(key, value)
}

// Revert restores every variable touched by Set, in reverse order.
func (o *Overlay) Revert() {
	for i := len(o.keys) - 1; i >= 0; i-- {
		k := o.keys[i]
		if p := o.prev[k]; p.set {
			os.Setenv(k, p.value)
		} else {
			os.Unsetenv(k)
		}
	}
	o.keys = nil
	o.prev = nil
}
