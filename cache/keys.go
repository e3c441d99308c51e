package cache

import (
	"strconv"
	"time"
)

// Prefix is the reserved namespace for all cart-derived entries. ClearPrefix
// with this value drops the cart and every cached recommendation in one go.
const Prefix = "accsel:"

// Default TTLs. The cart is refetched frequently; recommendations for a given
// seed product are stable enough to keep for minutes.
const (
	CartTTL           = 30 * time.Second
	RecommendationTTL = 5 * time.Minute
)

// CartKey is the cache key for the current cart.
func CartKey() string { return Prefix + "cart" }

// RecommendationKey is the cache key for the recommendation resolved from the
// given seed product.
func RecommendationKey(seedProductID int64) string {
	return Prefix + "reco:" + strconv.FormatInt(seedProductID, 10)
}
