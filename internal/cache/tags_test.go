package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagMatching(t *testing.T) {
	coarse := CoarseTag(TagProduct)
	entity := EntityTag(TagProduct, "42")
	other := EntityTag(TagProduct, "7")

	// Coarse invalidation hits every provided variant of the type.
	assert.True(t, coarse.Matches(coarse))
	assert.True(t, coarse.Matches(entity))

	// Entity invalidation hits the same entity and coarse providers.
	assert.True(t, entity.Matches(entity))
	assert.True(t, entity.Matches(coarse))
	assert.False(t, entity.Matches(other))

	// Types never cross.
	assert.False(t, CoarseTag(TagCart).Matches(coarse))
	assert.False(t, EntityTag(TagWishlist, "42").Matches(entity))
}

func TestInvalidationForCartMutations(t *testing.T) {
	for _, m := range []Mutation{MutationAddToCart, MutationUpdateItemQuantity, MutationRemoveItem, MutationClearCart} {
		tags := InvalidationFor(m, "")
		require.Len(t, tags, 1, "mutation %s", m)
		assert.Equal(t, CoarseTag(TagCart), tags[0])
	}
}

func TestInvalidationForProductMutations(t *testing.T) {
	created := InvalidationFor(MutationCreateProduct, "")
	assert.ElementsMatch(t, []Tag{
		CoarseTag(TagAdminProducts), CoarseTag(TagDashboard), CoarseTag(TagProduct),
	}, created)

	updated := InvalidationFor(MutationUpdateProduct, "42")
	assert.Contains(t, updated, EntityTag(TagProduct, "42"))
	assert.Contains(t, updated, CoarseTag(TagAdminProducts))

	// The static table itself must stay untouched by entity appends.
	again := InvalidationFor(MutationUpdateProduct, "")
	assert.NotContains(t, again, EntityTag(TagProduct, "42"))
}

func TestTagRefsRoundTrip(t *testing.T) {
	tags := []Tag{CoarseTag(TagCart), EntityTag(TagProduct, "42")}

	assert.Equal(t, tags, FromRefs(Refs(tags)))
}
