package routes

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"github.com/lapakgo/lapakgo/models"
)

type CatalogSuite struct {
	apiSuite
	admin account
}

func TestCatalogSuite(t *testing.T) {
	suite.Run(t, new(CatalogSuite))
}

func (s *CatalogSuite) SetupTest() {
	s.apiSuite.SetupTest()
	s.admin = s.register("admin", "admin@example.com", "rahasia123")
}

func (s *CatalogSuite) createCategory(name string) map[string]interface{} {
	w := s.request(http.MethodPost, "/api/v1/admin/categories",
		gin.H{"name": name}, withBearer(s.admin.Access))
	s.Require().Equal(http.StatusCreated, w.Code, "body: %s", w.Body.String())
	return s.data(w)
}

func (s *CatalogSuite) createProduct(categoryID uint, name string, price int64) map[string]interface{} {
	w := s.request(http.MethodPost, "/api/v1/admin/products", gin.H{
		"category_id": categoryID,
		"name":        name,
		"price":       price,
		"variants": []gin.H{
			{"name": "S", "stock": 3},
			{"name": "M", "price": price + 5000, "stock": 1},
		},
	}, withBearer(s.admin.Access))
	s.Require().Equal(http.StatusCreated, w.Code, "body: %s", w.Body.String())
	return s.data(w)
}

func (s *CatalogSuite) TestProductListingCachedUntilWrite() {
	cat := s.createCategory("Minuman")
	catID := uint(cat["id"].(float64))
	s.createProduct(catID, "Teko Listrik", 120000)

	// First read warms the cache.
	first := s.request(http.MethodGet, "/api/v1/products", nil)
	s.Require().Equal(http.StatusOK, first.Code)
	s.Require().Len(s.decode(first)["data"].([]interface{}), 1)

	// Remove the row behind the handler's back: the listing must keep
	// serving the cached page.
	s.Require().NoError(s.db.Where("name = ?", "Teko Listrik").
		Delete(&models.Product{}).Error)

	cached := s.request(http.MethodGet, "/api/v1/products", nil)
	s.Require().Equal(http.StatusOK, cached.Code)
	items := s.decode(cached)["data"].([]interface{})
	s.Require().Len(items, 1)
	s.Equal("Teko Listrik", items[0].(map[string]interface{})["name"])

	// An admin write invalidates the listing cache.
	s.createProduct(catID, "Blender Mini", 300000)

	fresh := s.request(http.MethodGet, "/api/v1/products", nil)
	s.Require().Equal(http.StatusOK, fresh.Code)
	items = s.decode(fresh)["data"].([]interface{})
	s.Require().Len(items, 1)
	s.Equal("Blender Mini", items[0].(map[string]interface{})["name"])
}

func (s *CatalogSuite) TestCategorySlugAndListing() {
	created := s.createCategory("Pakaian Pria")
	s.Equal("pakaian-pria", created["slug"])

	w := s.request(http.MethodGet, "/api/v1/categories", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	list, _ := s.decode(w)["data"].([]interface{})
	s.Require().Len(list, 1)
	s.Equal("Pakaian Pria", list[0].(map[string]interface{})["name"])
}

func (s *CatalogSuite) TestDuplicateCategoryConflicts() {
	s.createCategory("Sepatu")

	w := s.request(http.MethodPost, "/api/v1/admin/categories",
		gin.H{"name": "Sepatu"}, withBearer(s.admin.Access))
	s.Equal(http.StatusConflict, w.Code)
}

func (s *CatalogSuite) TestProductListingFilterAndSearch() {
	catA := s.createCategory("Elektronik")
	catB := s.createCategory("Dapur")
	idA := uint(catA["id"].(float64))
	idB := uint(catB["id"].(float64))

	s.createProduct(idA, "Lampu Meja", 150000)
	s.createProduct(idA, "Kipas Angin", 250000)
	s.createProduct(idB, "Panci Besar", 90000)

	all := s.request(http.MethodGet, "/api/v1/products", nil)
	s.Require().Equal(http.StatusOK, all.Code)
	s.Len(s.decode(all)["data"].([]interface{}), 3)

	filtered := s.request(http.MethodGet, "/api/v1/products?category=elektronik", nil)
	s.Require().Equal(http.StatusOK, filtered.Code)
	s.Len(s.decode(filtered)["data"].([]interface{}), 2)

	searched := s.request(http.MethodGet, "/api/v1/products?q=panci", nil)
	s.Require().Equal(http.StatusOK, searched.Code)
	items := s.decode(searched)["data"].([]interface{})
	s.Require().Len(items, 1)
	s.Equal("Panci Besar", items[0].(map[string]interface{})["name"])

	missing := s.request(http.MethodGet, "/api/v1/products?category=tidak-ada", nil)
	s.Equal(http.StatusNotFound, missing.Code)
}

func (s *CatalogSuite) TestProductDetailIncludesVariants() {
	cat := s.createCategory("Aksesoris")
	created := s.createProduct(uint(cat["id"].(float64)), "Topi Rimba", 75000)

	w := s.request(http.MethodGet, fmt.Sprintf("/api/v1/products/%s", created["slug"]), nil)
	s.Require().Equal(http.StatusOK, w.Code)

	product := s.decode(w)["data"].(map[string]interface{})
	variants, _ := product["variants"].([]interface{})
	s.Require().Len(variants, 2)

	// A variant without its own price inherits the product price.
	first := variants[0].(map[string]interface{})
	s.Equal(float64(75000), first["price"])
}

func (s *CatalogSuite) TestProductWriteRequiresAdmin() {
	user := s.register("rudi", "rudi@example.com", "rahasia123")
	cat := s.createCategory("Buku")

	w := s.request(http.MethodPost, "/api/v1/admin/products", gin.H{
		"category_id": uint(cat["id"].(float64)),
		"name":        "Novel",
		"price":       50000,
	}, withBearer(user.Access))
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *CatalogSuite) TestBannerListShowsActiveInOrder() {
	for _, b := range []gin.H{
		{"title": "Promo Akhir Tahun", "image": "/static/a.jpg", "sort_order": 2},
		{"title": "Gratis Ongkir", "image": "/static/b.jpg", "sort_order": 1},
		{"title": "Tersembunyi", "image": "/static/c.jpg", "active": false},
	} {
		w := s.request(http.MethodPost, "/api/v1/admin/banners", b, withBearer(s.admin.Access))
		s.Require().Equal(http.StatusCreated, w.Code)
	}

	w := s.request(http.MethodGet, "/api/v1/banners", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	list, _ := s.decode(w)["data"].([]interface{})
	s.Require().Len(list, 2)
	s.Equal("Gratis Ongkir", list[0].(map[string]interface{})["title"])
	s.Equal("Promo Akhir Tahun", list[1].(map[string]interface{})["title"])

	all := s.request(http.MethodGet, "/api/v1/admin/banners", nil, withBearer(s.admin.Access))
	s.Require().Equal(http.StatusOK, all.Code)
	s.Len(s.decode(all)["data"].([]interface{}), 3)
}

func (s *CatalogSuite) TestFavoriteLifecycle() {
	user := s.register("sari", "sari@example.com", "rahasia123")
	cat := s.createCategory("Mainan")
	product := s.createProduct(uint(cat["id"].(float64)), "Puzzle Kayu", 45000)
	productID := uint(product["id"].(float64))

	add := s.request(http.MethodPost, "/api/v1/favorites",
		gin.H{"product_id": productID}, withBearer(user.Access))
	s.Require().Equal(http.StatusCreated, add.Code)

	again := s.request(http.MethodPost, "/api/v1/favorites",
		gin.H{"product_id": productID}, withBearer(user.Access))
	s.Require().Equal(http.StatusConflict, again.Code)

	var count int64
	s.Require().NoError(s.db.Model(&models.Favorite{}).
		Where("product_id = ?", productID).Count(&count).Error)
	s.Equal(int64(1), count)

	list := s.request(http.MethodGet, "/api/v1/favorites", nil, withBearer(user.Access))
	s.Require().Equal(http.StatusOK, list.Code)
	items, _ := s.decode(list)["data"].([]interface{})
	s.Require().Len(items, 1)
	embedded := items[0].(map[string]interface{})["product"].(map[string]interface{})
	s.Equal("Puzzle Kayu", embedded["name"])

	remove := s.request(http.MethodDelete,
		fmt.Sprintf("/api/v1/favorites/%d", productID), nil, withBearer(user.Access))
	s.Equal(http.StatusOK, remove.Code)

	removeAgain := s.request(http.MethodDelete,
		fmt.Sprintf("/api/v1/favorites/%d", productID), nil, withBearer(user.Access))
	s.Equal(http.StatusNotFound, removeAgain.Code)
}

func (s *CatalogSuite) TestFavoriteUnknownProduct() {
	user := s.register("tika", "tika@example.com", "rahasia123")

	w := s.request(http.MethodPost, "/api/v1/favorites",
		gin.H{"product_id": 424242}, withBearer(user.Access))
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *CatalogSuite) TestAdminStats() {
	cat := s.createCategory("Statistik")
	s.createProduct(uint(cat["id"].(float64)), "Contoh", 10000)

	w := s.request(http.MethodGet, "/api/v1/admin/stats", nil, withBearer(s.admin.Access))
	s.Require().Equal(http.StatusOK, w.Code)

	counts := s.data(w)["counts"].(map[string]interface{})
	s.Equal(float64(1), counts["categories"])
	s.Equal(float64(1), counts["products"])
	s.Equal(float64(1), counts["users"])
}
