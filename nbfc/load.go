package nbfc

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const profileExt = ".xml"

// Load reads, decodes and validates the profile name from dir.
func Load(dir, name string) (*Profile, error) {
	return LoadFile(filepath.Join(dir, name+profileExt))
}

func LoadFile(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open fan control config: %w", err)
	}
	defer f.Close()
	p, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	err = Validate(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// List returns the sorted names of the profiles available in dir.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not list fan control configs: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), profileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(names)
	return names, nil
}
