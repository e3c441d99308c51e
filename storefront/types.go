package storefront

// Cart is the storefront cart as returned by GET /cart.js.
type Cart struct {
	Token     string     `json:"token"`
	ItemCount int        `json:"item_count"`
	Items     []LineItem `json:"items"`
}

// LineItem is a single cart line.
type LineItem struct {
	ProductID int64  `json:"product_id"`
	VariantID int64  `json:"variant_id"`
	Handle    string `json:"handle"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
}

// Empty reports whether the cart has no items.
func (c *Cart) Empty() bool {
	return c == nil || len(c.Items) == 0
}

// Handles returns the set of product handles present in the cart.
func (c *Cart) Handles() map[string]struct{} {
	out := make(map[string]struct{}, len(c.Items))
	for _, it := range c.Items {
		out[it.Handle] = struct{}{}
	}
	return out
}

// Product is a recommendation candidate from the product recommendations API.
type Product struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Handle        string    `json:"handle"`
	FeaturedImage string    `json:"featured_image"`
	Images        []string  `json:"images"`
	Variants      []Variant `json:"variants"`
}

// Variant is a purchasable variant of a Product. Price is in the shop's
// minor currency unit (cents).
type Variant struct {
	ID        int64 `json:"id"`
	Price     int64 `json:"price"`
	Available bool  `json:"available"`
}

// FirstVariantID returns the ID of the product's first variant, or zero when
// the product has none.
func (p *Product) FirstVariantID() int64 {
	if len(p.Variants) == 0 {
		return 0
	}
	return p.Variants[0].ID
}

// Image returns the best image reference for the product: the featured image
// when present, otherwise the first of its images.
func (p *Product) Image() string {
	if p.FeaturedImage != "" {
		return p.FeaturedImage
	}
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

// AddItem is one line of an add-to-cart request.
type AddItem struct {
	ID       int64 `json:"id"` // variant ID
	Quantity int   `json:"quantity"`
}

// AddRequest is the body for POST /cart/add.js. Sections optionally names
// theme sections the storefront should render into the response.
type AddRequest struct {
	Items    []AddItem `json:"items"`
	Sections []string  `json:"sections,omitempty"`
}

// AddResponse is the result of a successful add-to-cart call. Sections maps
// section IDs to rendered HTML fragments when they were requested.
type AddResponse struct {
	Items    []LineItem        `json:"items"`
	Sections map[string]string `json:"sections,omitempty"`
}

// Section identifies a theme section a drawer host wants re-rendered after a
// cart mutation.
type Section struct {
	ID string
}
