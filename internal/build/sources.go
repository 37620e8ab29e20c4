package build

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Sources walks dir and returns the files accepted by handles, in lexical
// order. Hidden directories, node_modules and excluded directories are not
// descended into, and excluded files are left out. dir itself is always
// walked, even when it is excluded.
func Sources(dir string, exclude []string, handles func(string) bool) ([]string, error) {
	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		if e == "" {
			continue
		}
		skip[absOrSelf(e)] = struct{}{}
	}

	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		_, excluded := skip[absOrSelf(path)]
		if d.IsDir() {
			if excluded || strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if !excluded && handles(filepath.ToSlash(path)) {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

func absOrSelf(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// outputPath maps a relative source path to its output file.
func outputPath(outputDir, rel string, extensions []string, outputExt string) string {
	base := rel
	longest := ""
	for _, ext := range extensions {
		if strings.HasSuffix(rel, ext) && len(ext) > len(longest) {
			longest = ext
		}
	}
	base = strings.TrimSuffix(base, longest)
	return filepath.Join(outputDir, filepath.FromSlash(base)+outputExt)
}
