package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/tilafu/affiliate-drive/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupProductRepositoryTest(t *testing.T) (*GormProductRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:product_repository_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate product failed: %v", err)
	}
	return NewProductRepository(db), db
}

func createRepoProduct(t *testing.T, repo *GormProductRepository, name, price string, active bool) *models.Product {
	t.Helper()
	now := time.Now()
	product := &models.Product{
		Name:      name,
		Price:     models.NewMoneyFromDecimal(decimal.RequireFromString(price)),
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func TestListActiveInPriceRange(t *testing.T) {
	repo, _ := setupProductRepositoryTest(t)
	createRepoProduct(t, repo, "带内下沿", "80.00", true)
	createRepoProduct(t, repo, "带内中段", "90.00", true)
	createRepoProduct(t, repo, "带内上沿", "99.00", true)
	createRepoProduct(t, repo, "带外偏低", "79.99", true)
	createRepoProduct(t, repo, "带外偏高", "99.01", true)
	createRepoProduct(t, repo, "带内已下架", "85.00", false)

	products, err := repo.ListActiveInPriceRange(decimal.NewFromInt(80), decimal.NewFromInt(99), 10)
	if err != nil {
		t.Fatalf("range query failed: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products in band, got %d", len(products))
	}
	for _, product := range products {
		price := product.Price.Decimal
		if price.LessThan(decimal.NewFromInt(80)) || price.GreaterThan(decimal.NewFromInt(99)) {
			t.Fatalf("product %s outside band: %s", product.Name, price)
		}
		if !product.IsActive {
			t.Fatalf("inactive product %s leaked into band", product.Name)
		}
	}

	limited, err := repo.ListActiveInPriceRange(decimal.NewFromInt(80), decimal.NewFromInt(99), 2)
	if err != nil {
		t.Fatalf("limited range query failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit 2, got %d", len(limited))
	}

	none, err := repo.ListActiveInPriceRange(decimal.NewFromInt(80), decimal.NewFromInt(99), 0)
	if err != nil {
		t.Fatalf("zero limit query failed: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("zero limit should return nothing, got %d", len(none))
	}
}

func TestProductListFilters(t *testing.T) {
	repo, _ := setupProductRepositoryTest(t)
	createRepoProduct(t, repo, "机械键盘", "120.00", true)
	createRepoProduct(t, repo, "无线鼠标", "60.00", true)
	createRepoProduct(t, repo, "下架键盘", "80.00", false)

	items, total, err := repo.List(ProductListFilter{Page: 1, PageSize: 10, Search: "键盘"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected 2 keyboards, got total=%d len=%d", total, len(items))
	}

	items, total, err = repo.List(ProductListFilter{Page: 1, PageSize: 10, OnlyActive: true})
	if err != nil {
		t.Fatalf("active filter failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 active products, got %d", total)
	}
	for _, item := range items {
		if !item.IsActive {
			t.Fatalf("inactive product leaked: %s", item.Name)
		}
	}

	priceMin := decimal.NewFromInt(100)
	_, total, err = repo.List(ProductListFilter{Page: 1, PageSize: 10, PriceMin: &priceMin})
	if err != nil {
		t.Fatalf("price filter failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 product over 100, got %d", total)
	}
}

func TestProductSoftDelete(t *testing.T) {
	repo, _ := setupProductRepositoryTest(t)
	product := createRepoProduct(t, repo, "待删除商品", "90.00", true)

	if err := repo.Delete(product.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	got, err := repo.GetByID(product.ID)
	if err != nil {
		t.Fatalf("get after delete failed: %v", err)
	}
	if got != nil {
		t.Fatalf("deleted product should not be visible, got %+v", got)
	}

	products, err := repo.ListActiveInPriceRange(decimal.NewFromInt(80), decimal.NewFromInt(99), 10)
	if err != nil {
		t.Fatalf("range query failed: %v", err)
	}
	if len(products) != 0 {
		t.Fatalf("deleted product should not appear in band, got %d", len(products))
	}
}

func TestProductListByIDs(t *testing.T) {
	repo, _ := setupProductRepositoryTest(t)
	first := createRepoProduct(t, repo, "商品一", "50.00", true)
	second := createRepoProduct(t, repo, "商品二", "60.00", true)

	products, err := repo.ListByIDs([]uint{first.ID, second.ID, 9999})
	if err != nil {
		t.Fatalf("list by ids failed: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}

	empty, err := repo.ListByIDs(nil)
	if err != nil {
		t.Fatalf("empty ids failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty result, got %d", len(empty))
	}
}
