package catalog

import (
	"github.com/tendant/digimenu/pkg/domain"
	"github.com/tendant/digimenu/pkg/media"
)

func (s *CatalogSuite) TestUpdateProfile_KeepsSlug() {
	updated, err := s.restaurants.UpdateProfile(s.ctx, s.owner, ProfileInput{Name: "Joe's Bistro", ContactInfo: "555-0100"})
	s.Require().NoError(err)
	s.Equal("Joe's Bistro", updated.Name)
	s.Equal("joes-diner", updated.Slug)
	s.Equal("555-0100", updated.ContactInfo)

	stored, err := s.restaurants.GetByOwner(s.ctx, s.owner.OwnerID)
	s.Require().NoError(err)
	s.Equal("joes-diner", stored.Slug)
	s.Equal("Joe's Bistro", stored.Name)
}

func (s *CatalogSuite) TestUpdateProfile_AssignsMissingSlug() {
	blank := *s.owner
	blank.Slug = ""
	s.Require().NoError(s.store.Restaurants().Update(s.ctx, &blank))

	updated, err := s.restaurants.UpdateProfile(s.ctx, &blank, ProfileInput{Name: "Other Place"})
	s.Require().NoError(err)
	s.Equal("other-place-1", updated.Slug, "slug of another restaurant must not be reused")
}

func (s *CatalogSuite) TestUpdateProfile_Logo() {
	updated, err := s.restaurants.UpdateProfile(s.ctx, s.owner, ProfileInput{Name: "Joe's Diner", Logo: pngUpload(900, 450)})
	s.Require().NoError(err)
	s.Require().NotEmpty(updated.Logo)

	w, h := s.storedSize(updated.Logo)
	s.Equal(300, w)
	s.Equal(150, h)

	replaced, err := s.restaurants.UpdateProfile(s.ctx, updated, ProfileInput{Name: "Joe's Diner", Logo: pngUpload(100, 100)})
	s.Require().NoError(err)
	s.False(s.assetExists(updated.Logo))
	s.True(s.assetExists(replaced.Logo))

	removed, err := s.restaurants.UpdateProfile(s.ctx, replaced, ProfileInput{Name: "Joe's Diner", RemoveLogo: true})
	s.Require().NoError(err)
	s.Empty(removed.Logo)
	s.False(s.assetExists(replaced.Logo))
}

func (s *CatalogSuite) TestUpdateProfile_Validation() {
	_, err := s.restaurants.UpdateProfile(s.ctx, s.owner, ProfileInput{Name: ""})
	s.ErrorIs(err, domain.ErrNameRequired)

	_, err = s.restaurants.UpdateProfile(s.ctx, s.owner, ProfileInput{Name: "Joe", Logo: &media.Upload{Data: []byte("GIF")}})
	s.ErrorIs(err, domain.ErrUnsupportedImage)
}

func (s *CatalogSuite) TestDeleteRestaurant() {
	mains := s.category(s.owner, "Mains")
	it := s.item(s.owner, ItemInput{Name: "Burger", CategoryID: inCategory(mains), Image: pngUpload(10, 10)})
	withLogo, err := s.restaurants.UpdateProfile(s.ctx, s.owner, ProfileInput{Name: "Joe's Diner", Logo: pngUpload(10, 10)})
	s.Require().NoError(err)

	s.Require().NoError(s.restaurants.Delete(s.ctx, withLogo))

	_, err = s.menus.PublicMenu(s.ctx, s.owner.Slug)
	s.ErrorIs(err, domain.ErrRestaurantNotFound)
	_, err = s.store.Categories().GetByID(s.ctx, s.owner.ID, mains.ID)
	s.ErrorIs(err, domain.ErrCategoryNotFound)
	_, err = s.store.Items().GetByID(s.ctx, s.owner.ID, it.ID)
	s.ErrorIs(err, domain.ErrItemNotFound)
	s.False(s.assetExists(it.Image))
	s.False(s.assetExists(withLogo.Logo))

	// Other tenants are untouched.
	_, err = s.menus.PublicMenu(s.ctx, s.other.Slug)
	s.NoError(err)
}
