package upsell

import "github.com/HelgJet/cart-upsell-accsel/storefront"

// Drawer is the host cart-drawer capability the widget talks to. It is an
// external collaborator: the widget only asks which theme sections to request
// on cart mutations and hands back the rendered fragments.
type Drawer interface {
	// SectionsToRender lists the theme sections the drawer wants re-rendered
	// after a cart mutation.
	SectionsToRender() []storefront.Section

	// RenderContents applies a successful add-to-cart response (including any
	// rendered section fragments) to the drawer's own display.
	RenderContents(resp *storefront.AddResponse)
}
