package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Snapshot computes a stable hash of the fields that affect generated output.
// Logging and metrics settings are excluded. Extension order is ignored.
// Callers should hash a loaded configuration so defaults are applied.
func (c *Config) Snapshot() string {
	if c == nil {
		return ""
	}
	h := sha256.New()
	w := func(parts ...string) { h.Write([]byte(strings.Join(parts, "="))); h.Write([]byte{0}) }

	exts := slices.Clone(c.Extensions)
	slices.Sort(exts)
	w("extensions", strings.Join(exts, ","))
	w("schema_directory", c.SchemaDirectory)
	w("partials_directory", c.PartialsDirectory)
	w("validation_level", c.ValidationLevel)
	w("layout", c.Layout)
	w("components_path", c.ComponentsPath)
	w("parser.linkify", strconv.FormatBool(c.Parser.Linkify))
	w("parser.typographer", strconv.FormatBool(c.Parser.Typographer))
	w("parser.tables", strconv.FormatBool(c.tables()))
	w("output.extension", c.Output.Extension)

	// json.Marshal sorts map keys, so these are canonical.
	for _, part := range []struct {
		name string
		v    any
	}{{"variables", c.Variables}, {"tags", c.Tags}, {"nodes", c.Nodes}} {
		b, err := json.Marshal(part.v)
		if err != nil {
			b = []byte(err.Error())
		}
		w(part.name, string(b))
	}
	for _, name := range slices.Sorted(maps.Keys(c.Functions)) {
		fn := c.Functions[name]
		w("functions."+name, strings.Join(fn.Params, ","), fn.Source)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Config) tables() bool {
	return c.Parser.Tables == nil || *c.Parser.Tables
}
