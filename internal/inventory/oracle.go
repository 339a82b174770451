package inventory

import (
	"strings"

	"slotsort.ai/internal/sim/catalogs"
)

// Oracle answers the item questions the planner cannot answer from stacks alone.
type Oracle interface {
	MaxCount(item string) int
	Name(s Stack) string
	// CompareEqualItems breaks ties between stacks whose primary sort key is equal.
	CompareEqualItems(a, b Stack) int
	// CreativeRank is the precomputed catalog lookup: exact first, then item-only.
	CreativeRank(s Stack) (int, bool)
	// CreativeOrder is the raw catalog ordering for callers that scan it themselves.
	CreativeOrder() []StackMatcher
	RawID(item string) (int, bool)
}

// defaultDyeColor is the undyed leather color.
const defaultDyeColor = int32(-6265536)

type CatalogOracle struct {
	items *catalogs.ItemCatalog
	order []StackMatcher
	exact map[StackMatcher]int
	plain map[string]int
}

func NewCatalogOracle(c *catalogs.Catalogs) *CatalogOracle {
	o := &CatalogOracle{
		items: &c.Items,
		exact: map[StackMatcher]int{},
		plain: map[string]int{},
	}
	for i, e := range c.Creative.Entries {
		m := StackMatcher{Item: e.Item, Components: Components{Enchantments: CanonicalEnchantments(e.Enchantments)}}
		o.order = append(o.order, m)
		if _, ok := o.exact[m]; !ok {
			o.exact[m] = i
		}
		if _, ok := o.plain[e.Item]; !ok {
			o.plain[e.Item] = i
		}
	}
	return o
}

func (o *CatalogOracle) MaxCount(item string) int { return o.items.MaxCount(item) }

func (o *CatalogOracle) Name(s Stack) string {
	if s.IsEmpty() {
		return ""
	}
	if s.Components.CustomName != "" {
		return s.Components.CustomName
	}
	if d, ok := o.items.Def(s.Item); ok && d.Name != "" {
		return d.Name
	}
	return s.Item
}

func (o *CatalogOracle) CreativeRank(s Stack) (int, bool) {
	if s.IsEmpty() {
		return 0, false
	}
	if i, ok := o.exact[MatchExact(s)]; ok {
		return i, true
	}
	i, ok := o.plain[s.Item]
	return i, ok
}

func (o *CatalogOracle) CreativeOrder() []StackMatcher { return o.order }

func (o *CatalogOracle) RawID(item string) (int, bool) {
	d, ok := o.items.Def(item)
	if !ok {
		return 0, false
	}
	return d.RawID, true
}

// Tooltip is the display text of a stack: name, enchantments, then lore.
func (o *CatalogOracle) Tooltip(s Stack) []string {
	if s.IsEmpty() {
		return nil
	}
	lines := []string{o.Name(s)}
	if s.Components.Enchantments != "" {
		lines = append(lines, strings.Split(s.Components.Enchantments, ",")...)
	}
	if s.Components.Lore != "" {
		lines = append(lines, strings.Split(s.Components.Lore, "\n")...)
	}
	return lines
}

func (o *CatalogOracle) dyeable(item string) bool {
	d, ok := o.items.Def(item)
	return ok && d.Dyeable
}

// CompareEqualItems orders by count descending, then uncustomized names first,
// then tooltip text, then dye hue/saturation/brightness, then damage.
func (o *CatalogOracle) CompareEqualItems(a, b Stack) int {
	if c := compareInt(b.Count, a.Count); c != 0 {
		return c
	}
	an, bn := a.Components.CustomName != "", b.Components.CustomName != ""
	if an != bn {
		if an {
			return 1
		}
		return -1
	}
	ta, tb := o.Tooltip(a), o.Tooltip(b)
	for i := range ta {
		if i >= len(tb) {
			return 1
		}
		if c := compareFold(ta[i], tb[i]); c != 0 {
			return c
		}
	}
	if len(tb) > len(ta) {
		return -1
	}
	if o.dyeable(a.Item) {
		ha, sa, va := rgbToHSB(dyeColor(a))
		hb, sb, vb := rgbToHSB(dyeColor(b))
		if c := compareFloat(ha, hb); c != 0 {
			return c
		}
		if c := compareFloat(sa, sb); c != 0 {
			return c
		}
		if c := compareFloat(va, vb); c != 0 {
			return c
		}
	}
	return compareInt(a.Components.Damage, b.Components.Damage)
}

func dyeColor(s Stack) int32 {
	if s.Components.Dyed {
		return s.Components.Color
	}
	return defaultDyeColor
}

// rgbToHSB mirrors the usual integer RGB to HSB conversion; all outputs are in [0,1].
func rgbToHSB(color int32) (h, s, v float32) {
	r := int(color>>16) & 0xFF
	g := int(color>>8) & 0xFF
	b := int(color) & 0xFF
	cmax := max(r, g, b)
	cmin := min(r, g, b)
	v = float32(cmax) / 255
	if cmax != 0 {
		s = float32(cmax-cmin) / float32(cmax)
	}
	if s == 0 {
		return 0, s, v
	}
	d := float32(cmax - cmin)
	rc := float32(cmax-r) / d
	gc := float32(cmax-g) / d
	bc := float32(cmax-b) / d
	switch {
	case r == cmax:
		h = bc - gc
	case g == cmax:
		h = 2 + rc - bc
	default:
		h = 4 + gc - rc
	}
	h /= 6
	if h < 0 {
		h++
	}
	return h, s, v
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloat(a, b float32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
