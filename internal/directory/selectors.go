package directory

// Default selectors describing the City of Doral local-discounts listing.
const (
	// DefaultBlockSelector matches one business block.
	DefaultBlockSelector = "div.row.bus_row"

	// DefaultNameSelector matches the block heading; its own text is the name.
	DefaultNameSelector = "h3"

	// DefaultIndustrySelector matches the label nested under the heading.
	DefaultIndustrySelector = "h3 > div"

	// DefaultOfferSelector matches the offer text container.
	DefaultOfferSelector = "section.label-dis > div"

	// DefaultWebsiteSelector matches the website anchor.
	DefaultWebsiteSelector = "section.bus_site > a"

	// DefaultWebsiteAttr is the anchor attribute holding the website URL.
	DefaultWebsiteAttr = "href"
)

// Selectors is the structural signature of a business block.
// Field selectors are evaluated relative to each block. Name, Industry and
// Offer take the first non-blank text node directly inside the first match,
// so text of nested elements (the industry label inside the heading, for
// instance) does not leak into the parent field.
type Selectors struct {
	Block       string `yaml:"block,omitempty"`
	Name        string `yaml:"name,omitempty"`
	Industry    string `yaml:"industry,omitempty"`
	Offer       string `yaml:"offer,omitempty"`
	Website     string `yaml:"website,omitempty"`
	WebsiteAttr string `yaml:"websiteAttr,omitempty"`
}

// DefaultSelectors returns the selectors for the default directory.
func DefaultSelectors() Selectors {
	return Selectors{
		Block:       DefaultBlockSelector,
		Name:        DefaultNameSelector,
		Industry:    DefaultIndustrySelector,
		Offer:       DefaultOfferSelector,
		Website:     DefaultWebsiteSelector,
		WebsiteAttr: DefaultWebsiteAttr,
	}
}

// Merge returns s with every empty field taken from fallback.
func (s Selectors) Merge(fallback Selectors) Selectors {
	pick := func(v, def string) string {
		if v != "" {
			return v
		}
		return def
	}
	return Selectors{
		Block:       pick(s.Block, fallback.Block),
		Name:        pick(s.Name, fallback.Name),
		Industry:    pick(s.Industry, fallback.Industry),
		Offer:       pick(s.Offer, fallback.Offer),
		Website:     pick(s.Website, fallback.Website),
		WebsiteAttr: pick(s.WebsiteAttr, fallback.WebsiteAttr),
	}
}
