package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"workshopbuddy/internal/auth"
	"workshopbuddy/internal/db"
	apperrors "workshopbuddy/internal/errors"
	"workshopbuddy/internal/model"
	"workshopbuddy/internal/repository"
)

type InventorySuite struct {
	suite.Suite

	ctx         context.Context
	auth        AuthService
	materials   StockService
	consumables StockService
	items       ItemService

	alice uint
	bob   uint
}

func TestInventorySuite(t *testing.T) {
	suite.Run(t, new(InventorySuite))
}

func (s *InventorySuite) SetupTest() {
	gormDB := db.NewTestDB(s.T())
	materialRepo := repository.NewMaterialRepository(gormDB)

	s.ctx = context.Background()
	s.auth = NewAuthService(repository.NewUserRepository(gormDB), newTestJWT(), auth.NewTokenStore(nil), nil)
	s.materials = NewStockService(materialRepo)
	s.consumables = NewStockService(repository.NewConsumableRepository(gormDB))
	s.items = NewItemService(repository.NewItemRepository(gormDB), materialRepo)

	alice, err := s.auth.Register(s.ctx, "alice", "pw1234")
	s.Require().NoError(err)
	bob, err := s.auth.Register(s.ctx, "bob", "hunter22")
	s.Require().NoError(err)
	s.alice, s.bob = alice.UserID, bob.UserID
}

func (s *InventorySuite) createMaterial(userID uint, name string, qty, minQty int) *model.Stock {
	m, err := s.materials.Create(s.ctx, userID, CreateStockInput{Name: name, Quantity: qty, MinimumQuantity: minQty})
	s.Require().NoError(err)
	return m
}

func (s *InventorySuite) createItem(userID uint, name string) *model.Item {
	item, err := s.items.Create(s.ctx, userID, CreateItemInput{Name: name})
	s.Require().NoError(err)
	return item
}

func (s *InventorySuite) TestRegisterTwiceConflicts() {
	_, err := s.auth.Register(s.ctx, "alice", "other")
	s.ErrorIs(err, apperrors.ErrUsernameTaken)

	// The first registration still logs in.
	res, err := s.auth.Login(s.ctx, "alice", "pw1234")
	s.Require().NoError(err)
	_, err = s.auth.Authenticate(s.ctx, res.Token)
	s.NoError(err)

	// Usernames are case-sensitive.
	_, err = s.auth.Register(s.ctx, "Alice", "pw1234")
	s.NoError(err)
}

func (s *InventorySuite) TestStockRoundTrip() {
	for _, svc := range []StockService{s.materials, s.consumables} {
		desc, unit := "pine boards", "board"
		created, err := svc.Create(s.ctx, s.alice, CreateStockInput{
			Name:            "Pine",
			Description:     &desc,
			Quantity:        12,
			MinimumQuantity: 4,
			Unit:            &unit,
		})
		s.Require().NoError(err)
		s.NotZero(created.ID)
		s.False(created.CreatedAt.IsZero())

		got, err := svc.Get(s.ctx, s.alice, created.ID)
		s.Require().NoError(err)
		s.Equal("Pine", got.Name)
		s.Equal("pine boards", *got.Description)
		s.Equal(12, got.Quantity)
		s.Equal(4, got.MinimumQuantity)
		s.Equal("board", *got.Unit)
		s.False(got.IsLowStock())
	}
}

func (s *InventorySuite) TestCreateRequiresName() {
	_, err := s.materials.Create(s.ctx, s.alice, CreateStockInput{Name: "  "})
	var vErr *apperrors.ValidationError
	s.ErrorAs(err, &vErr)

	_, err = s.items.Create(s.ctx, s.alice, CreateItemInput{Name: ""})
	s.ErrorAs(err, &vErr)
}

func (s *InventorySuite) TestNegativeQuantitiesAccepted() {
	m, err := s.materials.Create(s.ctx, s.alice, CreateStockInput{Name: "Debt", Quantity: -3, MinimumQuantity: 0})
	s.Require().NoError(err)
	s.True(m.IsLowStock())
}

func (s *InventorySuite) TestPatchSemantics() {
	desc, unit := "oak", "plank"
	m, err := s.materials.Create(s.ctx, s.alice, CreateStockInput{Name: "Oak", Description: &desc, Quantity: 5, MinimumQuantity: 2, Unit: &unit})
	s.Require().NoError(err)
	before := m.UpdatedAt

	time.Sleep(5 * time.Millisecond)
	updated, err := s.materials.Update(s.ctx, s.alice, m.ID, StockPatch{
		Quantity:    model.Some(1),
		Description: model.Optional[string]{Set: true, Null: true},
	})
	s.Require().NoError(err)
	s.Equal("Oak", updated.Name)
	s.Equal(1, updated.Quantity)
	s.Equal(2, updated.MinimumQuantity)
	s.Nil(updated.Description)
	s.Equal("plank", *updated.Unit)
	s.True(updated.IsLowStock())
	s.True(updated.UpdatedAt.After(before))

	_, err = s.materials.Update(s.ctx, s.alice, m.ID, StockPatch{Name: model.Optional[string]{Set: true, Null: true}})
	var vErr *apperrors.ValidationError
	s.ErrorAs(err, &vErr)

	_, err = s.materials.Update(s.ctx, s.alice, m.ID, StockPatch{Quantity: model.Optional[int]{Set: true, Null: true}})
	s.ErrorAs(err, &vErr)

	// A rejected patch leaves the stored row alone.
	got, err := s.materials.Get(s.ctx, s.alice, m.ID)
	s.Require().NoError(err)
	s.Equal("Oak", got.Name)
	s.Equal(1, got.Quantity)
}

func (s *InventorySuite) TestUpdateIsIdempotent() {
	m := s.createMaterial(s.alice, "Nails", 50, 10)
	patch := StockPatch{Name: model.Some("Box nails"), Quantity: model.Some(40)}

	first, err := s.materials.Update(s.ctx, s.alice, m.ID, patch)
	s.Require().NoError(err)
	second, err := s.materials.Update(s.ctx, s.alice, m.ID, patch)
	s.Require().NoError(err)

	s.Equal(first.Name, second.Name)
	s.Equal(first.Quantity, second.Quantity)
	s.Equal(first.MinimumQuantity, second.MinimumQuantity)
	s.Equal(first.Description, second.Description)
	s.Equal(first.Unit, second.Unit)
}

func (s *InventorySuite) TestOwnershipIsolation() {
	m := s.createMaterial(s.alice, "Walnut", 3, 1)
	c, err := s.consumables.Create(s.ctx, s.alice, CreateStockInput{Name: "Sandpaper", Quantity: 10})
	s.Require().NoError(err)
	item := s.createItem(s.alice, "Table")

	_, err = s.materials.Get(s.ctx, s.bob, m.ID)
	s.ErrorIs(err, apperrors.ErrMaterialNotFound)
	_, err = s.materials.Update(s.ctx, s.bob, m.ID, StockPatch{Quantity: model.Some(0)})
	s.ErrorIs(err, apperrors.ErrMaterialNotFound)
	s.ErrorIs(s.materials.Delete(s.ctx, s.bob, m.ID), apperrors.ErrMaterialNotFound)

	_, err = s.consumables.Get(s.ctx, s.bob, c.ID)
	s.ErrorIs(err, apperrors.ErrConsumableNotFound)

	_, err = s.items.Get(s.ctx, s.bob, item.ID)
	s.ErrorIs(err, apperrors.ErrItemNotFound)
	_, err = s.items.Update(s.ctx, s.bob, item.ID, ItemPatch{Name: model.Some("Stolen")})
	s.ErrorIs(err, apperrors.ErrItemNotFound)
	s.ErrorIs(s.items.Delete(s.ctx, s.bob, item.ID), apperrors.ErrItemNotFound)

	// Bob cannot link his material into Alice's item, nor Alice's material into his.
	bobMaterial := s.createMaterial(s.bob, "Cherry", 5, 0)
	bobItem := s.createItem(s.bob, "Stool")
	_, err = s.items.LinkMaterial(s.ctx, s.bob, item.ID, bobMaterial.ID, 1)
	s.ErrorIs(err, apperrors.ErrItemNotFound)
	_, err = s.items.LinkMaterial(s.ctx, s.bob, bobItem.ID, m.ID, 1)
	s.ErrorIs(err, apperrors.ErrMaterialNotFound)

	got, err := s.materials.Get(s.ctx, s.alice, m.ID)
	s.Require().NoError(err)
	s.Equal(3, got.Quantity)

	list, err := s.materials.List(s.ctx, s.bob)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *InventorySuite) TestLinkingRules() {
	m := s.createMaterial(s.alice, "Glue", 2, 1)
	item := s.createItem(s.alice, "Box")

	_, err := s.items.LinkMaterial(s.ctx, s.alice, item.ID, m.ID, 0)
	var vErr *apperrors.ValidationError
	s.ErrorAs(err, &vErr)

	linked, err := s.items.LinkMaterial(s.ctx, s.alice, item.ID, m.ID, 1)
	s.Require().NoError(err)
	s.Len(linked.Materials, 1)

	_, err = s.items.LinkMaterial(s.ctx, s.alice, item.ID, m.ID, 3)
	s.ErrorIs(err, apperrors.ErrMaterialAlreadyLinked)

	got, err := s.items.Get(s.ctx, s.alice, item.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Materials, 1)
	s.Equal(1, got.Materials[0].RequiredQuantity)

	_, err = s.items.LinkMaterial(s.ctx, s.alice, item.ID, 9999, 1)
	s.ErrorIs(err, apperrors.ErrMaterialNotFound)
	_, err = s.items.LinkMaterial(s.ctx, s.alice, 9999, m.ID, 1)
	s.ErrorIs(err, apperrors.ErrItemNotFound)

	s.Require().NoError(s.items.UnlinkMaterial(s.ctx, s.alice, item.ID, m.ID))
	s.ErrorIs(s.items.UnlinkMaterial(s.ctx, s.alice, item.ID, m.ID), apperrors.ErrLinkNotFound)
	s.ErrorIs(s.items.UnlinkMaterial(s.ctx, s.bob, item.ID, m.ID), apperrors.ErrItemNotFound)
}

func (s *InventorySuite) TestSufficiencyFollowsLiveQuantity() {
	m := s.createMaterial(s.alice, "Dowels", 10, 0)
	item := s.createItem(s.alice, "Rack")
	_, err := s.items.LinkMaterial(s.ctx, s.alice, item.ID, m.ID, 10)
	s.Require().NoError(err)

	got, err := s.items.Get(s.ctx, s.alice, item.ID)
	s.Require().NoError(err)
	s.True(got.Materials[0].IsSufficient())

	_, err = s.materials.Update(s.ctx, s.alice, m.ID, StockPatch{Quantity: model.Some(9)})
	s.Require().NoError(err)

	got, err = s.items.Get(s.ctx, s.alice, item.ID)
	s.Require().NoError(err)
	s.Equal(9, got.Materials[0].Material.Quantity)
	s.Equal(10, got.Materials[0].RequiredQuantity)
	s.False(got.Materials[0].IsSufficient())
}

func (s *InventorySuite) TestDeletingMaterialCascadesToAllItems() {
	shared := s.createMaterial(s.alice, "Screws", 100, 10)
	other := s.createMaterial(s.alice, "Hinges", 4, 2)
	chair := s.createItem(s.alice, "Chair")
	cabinet := s.createItem(s.alice, "Cabinet")

	for _, id := range []uint{chair.ID, cabinet.ID} {
		_, err := s.items.LinkMaterial(s.ctx, s.alice, id, shared.ID, 8)
		s.Require().NoError(err)
	}
	_, err := s.items.LinkMaterial(s.ctx, s.alice, cabinet.ID, other.ID, 2)
	s.Require().NoError(err)

	s.Require().NoError(s.materials.Delete(s.ctx, s.alice, shared.ID))

	got, err := s.items.Get(s.ctx, s.alice, chair.ID)
	s.Require().NoError(err)
	s.Empty(got.Materials)

	got, err = s.items.Get(s.ctx, s.alice, cabinet.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Materials, 1)
	s.Equal(other.ID, got.Materials[0].MaterialID)

	_, err = s.materials.Get(s.ctx, s.alice, shared.ID)
	s.ErrorIs(err, apperrors.ErrMaterialNotFound)
}

func (s *InventorySuite) TestDeletingItemRemovesLinksOnly() {
	m := s.createMaterial(s.alice, "Veneer", 6, 1)
	item := s.createItem(s.alice, "Panel")
	_, err := s.items.LinkMaterial(s.ctx, s.alice, item.ID, m.ID, 2)
	s.Require().NoError(err)

	s.Require().NoError(s.items.Delete(s.ctx, s.alice, item.ID))
	_, err = s.items.Get(s.ctx, s.alice, item.ID)
	s.ErrorIs(err, apperrors.ErrItemNotFound)

	_, err = s.materials.Get(s.ctx, s.alice, m.ID)
	s.NoError(err)
}

func (s *InventorySuite) TestItemUpdateReturnsResolvedLinks() {
	m := s.createMaterial(s.alice, "Birch", 3, 0)
	notes := "sand twice"
	item, err := s.items.Create(s.ctx, s.alice, CreateItemInput{Name: "Shelf", Notes: &notes})
	s.Require().NoError(err)
	s.Empty(item.Materials)
	_, err = s.items.LinkMaterial(s.ctx, s.alice, item.ID, m.ID, 2)
	s.Require().NoError(err)

	updated, err := s.items.Update(s.ctx, s.alice, item.ID, ItemPatch{
		Name:  model.Some("Wall shelf"),
		Notes: model.Optional[string]{Set: true, Null: true},
	})
	s.Require().NoError(err)
	s.Equal("Wall shelf", updated.Name)
	s.Nil(updated.Notes)
	s.Require().Len(updated.Materials, 1)
	s.Equal("Birch", updated.Materials[0].Material.Name)
}

func TestEndToEndScenarioAtServiceLevel(t *testing.T) {
	gormDB := db.NewTestDB(t)
	ctx := context.Background()
	materialRepo := repository.NewMaterialRepository(gormDB)
	authSvc := NewAuthService(repository.NewUserRepository(gormDB), newTestJWT(), auth.NewTokenStore(nil), nil)
	materials := NewStockService(materialRepo)
	items := NewItemService(repository.NewItemRepository(gormDB), materialRepo)

	reg, err := authSvc.Register(ctx, "alice", "pw1234")
	require.NoError(t, err)
	claims, err := authSvc.Authenticate(ctx, reg.Token)
	require.NoError(t, err)
	userID := claims.UserID

	wood, err := materials.Create(ctx, userID, CreateStockInput{Name: "Wood", Quantity: 100, MinimumQuantity: 20})
	require.NoError(t, err)
	chair, err := items.Create(ctx, userID, CreateItemInput{Name: "Chair"})
	require.NoError(t, err)
	_, err = items.LinkMaterial(ctx, userID, chair.ID, wood.ID, 15)
	require.NoError(t, err)

	got, err := items.Get(ctx, userID, chair.ID)
	require.NoError(t, err)
	require.Len(t, got.Materials, 1)
	assert.Equal(t, 100, got.Materials[0].Material.Quantity)
	assert.True(t, got.Materials[0].IsSufficient())

	_, err = materials.Update(ctx, userID, wood.ID, StockPatch{Quantity: model.Some(10)})
	require.NoError(t, err)

	got, err = items.Get(ctx, userID, chair.ID)
	require.NoError(t, err)
	assert.False(t, got.Materials[0].IsSufficient())
}
