package main

import (
	"fmt"
	"sort"
	"strings"
)

// fieldValues collects repeated -set element=value flags.
type fieldValues map[string]string

func (f fieldValues) String() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+f[k])
	}
	return strings.Join(parts, ",")
}

func (f fieldValues) Set(raw string) error {
	name, value, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("expected element=value, got %q", raw)
	}
	f[name] = value
	return nil
}
