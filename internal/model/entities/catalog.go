package entities

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cast"
)

// Catalog maps orchard IDs to their structural description.
type Catalog map[string]Orchard

// Lookup returns the orchard with the given ID.
func (c Catalog) Lookup(id string) (Orchard, bool) {
	o, ok := c[strings.TrimSpace(id)]
	return o, ok
}

// LoadCatalog reads an orchard catalog. Files ending in .toml are decoded with
// TOML, everything else as JSON. Both use a top-level "orchards" list.
func LoadCatalog(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseCatalog(raw, "toml")
	}
	return ParseCatalog(raw, "json")
}

// ParseCatalog decodes catalog bytes in the given format ("json" or "toml").
func ParseCatalog(raw []byte, format string) (Catalog, error) {
	// leggo come lista di mappe così posso gestire alias dei campi
	var doc struct {
		Orchards []map[string]any `json:"orchards" toml:"orchards"`
	}
	switch format {
	case "toml":
		if _, err := toml.Decode(string(raw), &doc); err != nil {
			return nil, fmt.Errorf("decode toml catalog: %w", err)
		}
	case "json":
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode json catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown catalog format %q", format)
	}

	out := make(Catalog, len(doc.Orchards))
	for i, rec := range doc.Orchards {
		o, err := orchardFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("orchard #%d: %w", i, err)
		}
		if _, dup := out[o.ID]; dup {
			return nil, fmt.Errorf("duplicate orchard id %q", o.ID)
		}
		out[o.ID] = o
	}
	return out, nil
}

func orchardFromRecord(rec map[string]any) (Orchard, error) {
	var o Orchard
	o.ID = strings.TrimSpace(cast.ToString(rec["id"]))
	if o.ID == "" {
		return o, fmt.Errorf("orchard without id")
	}
	o.Name = cast.ToString(rec["name"])

	var err error
	if o.Latitude, err = required(rec, "latitude", "lat"); err != nil {
		return o, err
	}
	if o.Longitude, _, err = number(rec, "longitude", "lon"); err != nil {
		return o, err
	}
	if o.LAD, err = required(rec, "lad", "leaf_area_density"); err != nil {
		return o, err
	}
	if o.CrownVolume, err = required(rec, "crown_volume_m3", "crown_volume", "vc"); err != nil {
		return o, err
	}
	if o.PlantingDensity, err = required(rec, "planting_density", "pd"); err != nil {
		return o, err
	}
	return o, nil
}

// required is number for fields without a default.
func required(rec map[string]any, keys ...string) (float64, error) {
	f, ok, err := number(rec, keys...)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("field %s: missing", keys[0])
	}
	return f, nil
}

// number returns the first present key coerced to float64; numeric strings with a
// decimal comma are accepted.
func number(rec map[string]any, keys ...string) (float64, bool, error) {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr {
			v = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, true, fmt.Errorf("field %s: %w", k, err)
		}
		return f, true, nil
	}
	return 0, false, nil
}
