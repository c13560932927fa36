package services

import (
	"context"
	"testing"

	"github.com/atelier-jewels/atelier-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDesigners(t *testing.T) (*DesignerService, *CatalogService, *gorm.DB) {
	t.Helper()
	ctx := context.Background()
	db := setupTestDB(t)
	catalog := NewCatalogService(db)
	designers := NewDesignerService(db, catalog)

	for _, d := range []models.Designer{
		{Name: "Asha Rao", Email: "asha@atelier.test", Specialties: models.StringList([]string{"Bridal Rings", "Temple Jewelry"}), Location: "Mumbai, India"},
		{Name: "Ravi Menon", Email: "ravi@atelier.test", Specialties: models.StringList([]string{"Minimalist", "Bridal Rings"}), Location: "Kochi, India"},
		{Name: "Lena Ortiz", Email: "lena@atelier.test", Specialties: models.StringList([]string{"Art Deco"}), Location: "Mumbai, India"},
	} {
		_, err := designers.Create(ctx, d)
		require.NoError(t, err)
	}
	return designers, catalog, db
}

func designerNames(designers []models.Designer) []string {
	names := make([]string, len(designers))
	for i, d := range designers {
		names[i] = d.Name
	}
	return names
}

func TestDesignerService_CreateResetsCounters(t *testing.T) {
	designers, _, _ := setupDesigners(t)

	created, err := designers.Create(context.Background(), models.Designer{
		ID:              77,
		Name:            "New Designer",
		Rating:          4.9,
		CompletedOrders: 120,
		ActiveOrders:    6,
		Portfolio:       []models.PortfolioItem{{ID: 1, Title: "Smuggled"}},
	})
	require.NoError(t, err)
	assert.Equal(t, uint(4), created.ID)
	assert.Zero(t, created.Rating)
	assert.Zero(t, created.CompletedOrders)
	assert.Zero(t, created.ActiveOrders)
	assert.Empty(t, created.Portfolio)

	reloaded, err := designers.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Portfolio)
}

func TestDesignerService_List(t *testing.T) {
	ctx := context.Background()
	designers, _, _ := setupDesigners(t)

	rating := 4.5
	_, err := designers.Update(ctx, 2, DesignerPatch{Rating: &rating})
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter DesignerFilter
		want   []string
	}{
		{"All", DesignerFilter{}, []string{"Asha Rao", "Ravi Menon", "Lena Ortiz"}},
		{"Specialty substring", DesignerFilter{Specialty: "bridal"}, []string{"Asha Rao", "Ravi Menon"}},
		{"Location substring", DesignerFilter{Location: "mumbai"}, []string{"Asha Rao", "Lena Ortiz"}},
		{"Minimum rating", DesignerFilter{MinRating: &rating}, []string{"Ravi Menon"}},
		{"Combined", DesignerFilter{Specialty: "deco", Location: "Kochi"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := designers.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, designerNames(got))
		})
	}
}

func TestDesignerService_Facets(t *testing.T) {
	ctx := context.Background()
	designers, _, _ := setupDesigners(t)

	specialties, err := designers.Specialties(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bridal Rings", "Temple Jewelry", "Minimalist", "Art Deco"}, specialties)

	locations, err := designers.Locations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mumbai, India", "Kochi, India"}, locations)
}

func TestDesignerService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	designers, _, _ := setupDesigners(t)

	bio := "Third-generation goldsmith"
	updated, err := designers.Update(ctx, 1, DesignerPatch{Bio: &bio, Specialties: []string{"Kundan", "Kundan"}})
	require.NoError(t, err)
	assert.Equal(t, uint(1), updated.ID)
	assert.Equal(t, bio, updated.Bio)
	assert.Equal(t, []string{"Kundan"}, []string(updated.Specialties))
	assert.Equal(t, "Asha Rao", updated.Name)

	_, err = designers.Update(ctx, 99, DesignerPatch{Bio: &bio})
	assert.ErrorIs(t, err, ErrDesignerNotFound)

	_, err = designers.AddPortfolioItem(ctx, 1, PortfolioInput{Title: "Bangles"})
	require.NoError(t, err)

	removed, err := designers.Delete(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, removed.Portfolio, 1)

	_, err = designers.GetByID(ctx, 1)
	assert.ErrorIs(t, err, ErrDesignerNotFound)
	_, err = designers.Delete(ctx, 1)
	assert.ErrorIs(t, err, ErrDesignerNotFound)
}

func TestDesignerService_Portfolio(t *testing.T) {
	ctx := context.Background()
	designers, _, _ := setupDesigners(t)

	first, err := designers.AddPortfolioItem(ctx, 1, PortfolioInput{Title: "Temple Necklace", Tags: []string{"gold", "gold", "temple"}})
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.ID)
	assert.Equal(t, []string{"gold", "temple"}, []string(first.Tags))

	second, err := designers.AddPortfolioItem(ctx, 1, PortfolioInput{Title: "Jhumkas"})
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.ID)

	other, err := designers.AddPortfolioItem(ctx, 2, PortfolioInput{Title: "Band"})
	require.NoError(t, err)
	assert.Equal(t, uint(1), other.ID, "ids are scoped per designer")

	_, err = designers.AddPortfolioItem(ctx, 99, PortfolioInput{Title: "Ghost"})
	assert.ErrorIs(t, err, ErrDesignerNotFound)

	removed, err := designers.RemovePortfolioItem(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "Temple Necklace", removed.Title)

	_, err = designers.RemovePortfolioItem(ctx, 1, 1)
	assert.ErrorIs(t, err, ErrPortfolioItemNotFound)
	_, err = designers.RemovePortfolioItem(ctx, 99, 1)
	assert.ErrorIs(t, err, ErrDesignerNotFound)

	designer, err := designers.GetByID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, designer.Portfolio, 1)
	assert.Equal(t, "Jhumkas", designer.Portfolio[0].Title)

	untouched, err := designers.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, untouched.Portfolio, 1)
}

func TestDesignerService_UploadJewelry(t *testing.T) {
	ctx := context.Background()
	designers, catalog, _ := setupDesigners(t)

	result, err := designers.UploadJewelry(ctx, 1, JewelryUpload{
		Name:           "Ruby Halo Ring",
		Description:    "Oval ruby with diamond halo",
		Category:       "Rings",
		Metal:          "Gold",
		Gemstones:      []string{"Ruby", "Diamond", "Ruby"},
		Price:          price(85000),
		Stock:          1,
		Images:         []string{"uploads/1_front.png", "uploads/1_side.png"},
		CompletionTime: "3 weeks",
	})
	require.NoError(t, err)

	require.NotNil(t, result.Product.DesignerID)
	assert.Equal(t, uint(1), *result.Product.DesignerID)
	assert.Equal(t, []string{"Ruby", "Diamond"}, []string(result.Product.Gemstones))

	require.Len(t, result.Designer.Portfolio, 1)
	entry := result.Designer.Portfolio[0]
	assert.Equal(t, "Ruby Halo Ring", entry.Title)
	assert.Equal(t, "uploads/1_front.png", entry.Image)
	assert.Equal(t, []string{"Rings", "Gold", "Ruby", "Diamond"}, []string(entry.Tags))
	assert.Equal(t, "3 weeks", entry.CompletionTime)

	products, err := catalog.ByDesignerID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestDesignerService_UploadJewelryWithEmptyLists(t *testing.T) {
	ctx := context.Background()
	designers, _, _ := setupDesigners(t)

	result, err := designers.UploadJewelry(ctx, 2, JewelryUpload{
		Name:     "Plain Band",
		Category: "Rings",
		Metal:    "Platinum",
		Price:    price(30000),
	})
	require.NoError(t, err)

	entry := result.Designer.Portfolio[0]
	assert.Equal(t, "", entry.Image)
	assert.Equal(t, []string{"Rings", "Platinum"}, []string(entry.Tags))
	assert.NotNil(t, entry.Gemstones)
	assert.Empty(t, entry.Gemstones)
	assert.NotNil(t, result.Product.Images)
	assert.Empty(t, result.Product.Images)
}

func TestDesignerService_UploadJewelryUnknownDesignerWritesNothing(t *testing.T) {
	ctx := context.Background()
	designers, catalog, _ := setupDesigners(t)

	_, err := designers.UploadJewelry(ctx, 99, JewelryUpload{Name: "Orphan", Category: "Rings", Metal: "Gold", Price: price(1)})
	assert.ErrorIs(t, err, ErrDesignerNotFound)

	products, err := catalog.List(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestDesignerService_UploadJewelryRollsBackPortfolio(t *testing.T) {
	ctx := context.Background()
	designers, _, db := setupDesigners(t)

	// Make the catalog insert fail after the portfolio entry is written.
	require.NoError(t, db.Migrator().DropTable(&models.Product{}))

	_, err := designers.UploadJewelry(ctx, 1, JewelryUpload{Name: "Doomed", Category: "Rings", Metal: "Gold", Price: price(1)})
	require.Error(t, err)

	designer, err := designers.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, designer.Portfolio, "portfolio entry is rolled back with the product")
}
