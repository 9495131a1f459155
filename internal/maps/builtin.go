package maps

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

//go:embed builtin/*
var builtinFS embed.FS

// ErrUnknownMap is returned by Builtin for a name that is not embedded.
var ErrUnknownMap = errors.New("unknown map")

var (
	builtinOnce sync.Once
	builtins    map[string]*Map
	builtinErr  error
)

func loadBuiltins() {
	builtins = make(map[string]*Map)
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		builtinErr = err
		return
	}
	for _, e := range entries {
		data, err := builtinFS.ReadFile(path.Join("builtin", e.Name()))
		if err != nil {
			builtinErr = err
			return
		}
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))

		var m *Map
		switch path.Ext(e.Name()) {
		case ".yaml", ".yml":
			m, err = ParseYAML(name, data)
		default:
			m, err = ParseText(name, string(data))
		}
		if err != nil {
			builtinErr = fmt.Errorf("builtin map %s: %w", e.Name(), err)
			return
		}
		builtins[m.Name] = m
	}
}

// Builtin returns an embedded map by name.
func Builtin(name string) (*Map, error) {
	builtinOnce.Do(loadBuiltins)
	if builtinErr != nil {
		return nil, builtinErr
	}
	m, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownMap, name)
	}
	return m, nil
}

// Names lists the embedded maps in alphabetical order.
func Names() []string {
	builtinOnce.Do(loadBuiltins)
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the builtin named ref, or loads ref as a file path.
func Resolve(ref string) (*Map, error) {
	m, err := Builtin(ref)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, ErrUnknownMap) {
		return nil, err
	}
	return Load(ref)
}
