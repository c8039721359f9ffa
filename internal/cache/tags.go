package cache

import (
	"storefront-service/internal/models"
)

// TagType enumerates the kinds of data a cached query can represent. Using a
// typed constant set instead of free-form strings keeps call sites
// compile-checked.
type TagType string

const (
	TagCart          TagType = "Cart"
	TagProduct       TagType = "Product"
	TagWishlist      TagType = "Wishlist"
	TagAdminProducts TagType = "AdminProducts"
	TagDashboard     TagType = "Dashboard"
	TagOrders        TagType = "Orders"
	TagUsers         TagType = "Users"
)

// Tag labels a cached entry. An empty ID is the coarse form covering every
// entity of the type; a non-empty ID scopes the tag to one entity.
type Tag struct {
	Type TagType
	ID   string
}

// CoarseTag returns the coarse tag for a type.
func CoarseTag(t TagType) Tag {
	return Tag{Type: t}
}

// EntityTag returns the tag scoped to a single entity.
func EntityTag(t TagType, id string) Tag {
	return Tag{Type: t, ID: id}
}

func (t Tag) String() string {
	if t.ID == "" {
		return string(t.Type)
	}
	return string(t.Type) + ":" + t.ID
}

// Matches reports whether this invalidation tag hits a provided tag. A coarse
// tag hits every provided tag of its type; an entity tag hits the same entity
// and any coarse provided tag of its type.
func (t Tag) Matches(provided Tag) bool {
	if t.Type != provided.Type {
		return false
	}
	return t.ID == "" || provided.ID == "" || t.ID == provided.ID
}

func intersects(invalidated, provided []Tag) (Tag, bool) {
	for _, inv := range invalidated {
		for _, p := range provided {
			if inv.Matches(p) {
				return inv, true
			}
		}
	}
	return Tag{}, false
}

// Mutation names a write operation against the remote store API.
type Mutation string

const (
	MutationAddToCart          Mutation = "AddToCart"
	MutationUpdateItemQuantity Mutation = "UpdateItemQuantity"
	MutationRemoveItem         Mutation = "RemoveItem"
	MutationClearCart          Mutation = "ClearCart"
	MutationAddToWishlist      Mutation = "AddToWishlist"
	MutationRemoveFromWishlist Mutation = "RemoveFromWishlist"
	MutationCreateProduct      Mutation = "CreateProduct"
	MutationUpdateProduct      Mutation = "UpdateProduct"
	MutationDeleteProduct      Mutation = "DeleteProduct"
)

// mutationTags is the static invalidation graph: each mutation declares what
// kind of data it affects, never which entries are currently cached.
var mutationTags = map[Mutation][]Tag{
	MutationAddToCart:          {CoarseTag(TagCart)},
	MutationUpdateItemQuantity: {CoarseTag(TagCart)},
	MutationRemoveItem:         {CoarseTag(TagCart)},
	MutationClearCart:          {CoarseTag(TagCart)},
	MutationAddToWishlist:      {CoarseTag(TagWishlist)},
	MutationRemoveFromWishlist: {CoarseTag(TagWishlist)},
	MutationCreateProduct:      {CoarseTag(TagAdminProducts), CoarseTag(TagDashboard), CoarseTag(TagProduct)},
	MutationUpdateProduct:      {CoarseTag(TagAdminProducts), CoarseTag(TagDashboard), CoarseTag(TagProduct)},
	MutationDeleteProduct:      {CoarseTag(TagAdminProducts), CoarseTag(TagDashboard), CoarseTag(TagProduct)},
}

// InvalidationFor returns the invalidation set for a mutation. entityID, when
// non-empty, adds the entity-scoped product tag for product mutations.
func InvalidationFor(m Mutation, entityID string) []Tag {
	base := mutationTags[m]
	tags := make([]Tag, len(base), len(base)+1)
	copy(tags, base)
	if entityID != "" {
		switch m {
		case MutationUpdateProduct, MutationDeleteProduct:
			tags = append(tags, EntityTag(TagProduct, entityID))
		}
	}
	return tags
}

// Refs converts tags to their wire form for mutation events.
func Refs(tags []Tag) []models.TagRef {
	refs := make([]models.TagRef, len(tags))
	for i, t := range tags {
		refs[i] = models.TagRef{Type: string(t.Type), ID: t.ID}
	}
	return refs
}

// FromRefs converts wire tags back to cache tags.
func FromRefs(refs []models.TagRef) []Tag {
	tags := make([]Tag, len(refs))
	for i, r := range refs {
		tags[i] = Tag{Type: TagType(r.Type), ID: r.ID}
	}
	return tags
}
