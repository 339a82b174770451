package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type Catalogs struct {
	Items    ItemCatalog
	Creative CreativeCatalog
}

type ItemCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]ItemDef
	PaletteDigest string
	DefsDigest    string
}

type ItemDef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"` // "BLOCK","TOOL","MATERIAL","FOOD","ARMOR"
	MaxCount  int    `json:"max_count"`
	RawID     int    `json:"raw_id"`
	Dyeable   bool   `json:"dyeable,omitempty"`
	ArmorSlot string `json:"armor_slot,omitempty"` // "HEAD","CHEST","LEGS","FEET"
}

// CreativeCatalog is the canonical search-tab ordering. Entries may repeat an
// item with different enchantments (e.g. one entry per enchanted book).
type CreativeCatalog struct {
	Entries []CreativeEntry
	Digest  string
}

type CreativeEntry struct {
	Item         string   `json:"item"`
	Enchantments []string `json:"enchantments,omitempty"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	if err := loadCreative(filepath.Join(configDir, "creative.json"), &c.Items, &c.Creative); err != nil {
		return nil, err
	}
	return &c, nil
}

// Def returns the item definition, or false for unknown/empty ids.
func (c *ItemCatalog) Def(id string) (ItemDef, bool) {
	if c == nil || id == "" {
		return ItemDef{}, false
	}
	d, ok := c.Defs[id]
	return d, ok
}

// MaxCount defaults to 64 for unknown items.
func (c *ItemCatalog) MaxCount(id string) int {
	d, ok := c.Def(id)
	if !ok || d.MaxCount <= 0 {
		return 64
	}
	return d.MaxCount
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = map[string]ItemDef{}
	rawIDs := map[int]string{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty id")
		}
		if _, dup := out.Defs[d.ID]; dup {
			return fmt.Errorf("items.json: duplicate id %s", d.ID)
		}
		if d.MaxCount <= 0 {
			return fmt.Errorf("items.json: %s: max_count must be positive", d.ID)
		}
		if other, dup := rawIDs[d.RawID]; dup {
			return fmt.Errorf("items.json: raw_id %d shared by %s and %s", d.RawID, other, d.ID)
		}
		rawIDs[d.RawID] = d.ID
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func loadCreative(path string, items *ItemCatalog, out *CreativeCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		// A missing creative order leaves every item unresolved.
		if os.IsNotExist(err) {
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	out.Digest = sha256Hex(raw)

	var entries []CreativeEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("creative.json: %w", err)
	}
	for i, e := range entries {
		if _, ok := items.Defs[e.Item]; !ok {
			return fmt.Errorf("creative.json: entry %d: unknown item %q", i, e.Item)
		}
	}
	out.Entries = entries
	return nil
}
