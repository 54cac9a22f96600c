package catalog

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"anime-shop/internal/core/cache"
	"anime-shop/internal/core/mediator"
	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/filter"
	"anime-shop/internal/integration/storage"
	"anime-shop/internal/repo"
	"anime-shop/internal/testutil/fixture"
)

const admin = "admin-1"

func setup(t *testing.T) (*mediator.Mediator, *feature.Deps, *fixture.AuditRecorder, context.Context) {
	t.Helper()
	d, rec := fixture.NewDeps(t)
	m := mediator.New(nil)
	Register(m, d)
	return m, d, rec, fixture.AsUser(context.Background(), admin, domain.RoleAdmin)
}

func send[Req any, T any](t *testing.T, ctx context.Context, m *mediator.Mediator, req Req) result.Result[T] {
	t.Helper()
	return mediator.Send[Req, T](ctx, m, req)
}

func seedCategory(t *testing.T, ctx context.Context, m *mediator.Mediator, name string) CategoryDto {
	t.Helper()
	res := send[CreateCategory, CategoryDto](t, ctx, m, CreateCategory{Name: name})
	require.True(t, res.IsSuccess, res.Message)
	return res.Data
}

func seedBadge(t *testing.T, d *feature.Deps, name string) *domain.Badge {
	t.Helper()
	b := &domain.Badge{Name: name, Color: "#ff0000"}
	b.Initialize(admin, fixture.Now)
	uow := d.UoW.New()
	repo.Of[domain.Badge](uow).Add(b)
	_, err := uow.SaveChanges(context.Background())
	require.NoError(t, err)
	return b
}

func createProduct(t *testing.T, ctx context.Context, m *mediator.Mediator, in ProductInput) ProductDto {
	t.Helper()
	res := send[CreateProduct, ProductDto](t, ctx, m, CreateProduct{ProductInput: in})
	require.True(t, res.IsSuccess, res.Message)
	return res.Data
}

func TestCreateThenGetProductRoundTrip(t *testing.T) {
	m, d, _, ctx := setup(t)
	cat := seedCategory(t, ctx, m, "Figures")
	series := send[CreateAnimeSeries, AnimeSeriesDto](t, ctx, m, CreateAnimeSeries{SaveAnimeSeries{Title: "Frieren", ReleaseYear: 2023}})
	require.True(t, series.IsSuccess, series.Message)
	badge := seedBadge(t, d, "Hot")

	created := createProduct(t, ctx, m, ProductInput{
		Name: "Frieren Nendoroid", Price: decimal.RequireFromString("550000"), StockQuantity: 5,
		CategoryID: cat.ID, AnimeSeriesID: &series.Data.ID, BadgeIDs: []string{badge.ID, badge.ID},
	})
	assert.Equal(t, "frieren-nendoroid", created.Slug)
	assert.Equal(t, "Figures", created.CategoryName)
	require.Len(t, created.Badges, 1)

	got := send[GetProductByID, ProductDto](t, context.Background(), m, GetProductByID{ID: created.ID})
	require.True(t, got.IsSuccess)
	assert.Equal(t, created.ID, got.Data.ID)
	assert.True(t, decimal.RequireFromString("550000").Equal(got.Data.Price))
	assert.Equal(t, "Frieren", got.Data.AnimeSeriesTitle)
	assert.Equal(t, "Hot", got.Data.Badges[0].Name)
}

func TestCreateProductValidatesAndChecksReferences(t *testing.T) {
	m, _, _, ctx := setup(t)

	res := send[CreateProduct, ProductDto](t, ctx, m, CreateProduct{ProductInput{Name: "", Price: decimal.Zero}})
	assert.Equal(t, result.CodeValidationFailed, res.ErrorCode)
	details, ok := res.Details.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "price")

	res = send[CreateProduct, ProductDto](t, ctx, m, CreateProduct{ProductInput{Name: "X", Price: decimal.NewFromInt(1), CategoryID: "missing"}})
	assert.Equal(t, result.CodeNotFound, res.ErrorCode)
	assert.Equal(t, "Category not found.", res.Message)
}

func TestMutationsRequireUser(t *testing.T) {
	m, d, _, ctx := setup(t)
	cat := seedCategory(t, ctx, m, "Figures")
	anon := context.Background()

	res := send[CreateProduct, ProductDto](t, anon, m, CreateProduct{ProductInput{Name: "X", Price: decimal.NewFromInt(1), CategoryID: cat.ID}})
	assert.Equal(t, result.CodeUnauthorized, res.ErrorCode)
	assert.Equal(t, feature.MsgUnauthorized, res.Message)

	n, err := repo.Of[domain.Product](d.UoW.New()).Count(anon, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	del := send[DeleteCategory, result.Empty](t, anon, m, DeleteCategory{ID: cat.ID})
	assert.Equal(t, result.CodeUnauthorized, del.ErrorCode)
}

func TestDeleteProductIsSoftAndAudited(t *testing.T) {
	m, d, rec, ctx := setup(t)
	cat := seedCategory(t, ctx, m, "Figures")
	p := createProduct(t, ctx, m, ProductInput{Name: "Acrylic Stand", Price: decimal.NewFromInt(90000), CategoryID: cat.ID})

	res := send[DeleteProduct, result.Empty](t, ctx, m, DeleteProduct{ID: p.ID})
	require.True(t, res.IsSuccess, res.Message)

	again := send[DeleteProduct, result.Empty](t, ctx, m, DeleteProduct{ID: p.ID})
	assert.Equal(t, result.CodeNotFound, again.ErrorCode)

	stored, err := repo.Of[domain.Product](d.UoW.New()).Unscoped().GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.IsDeleted)
	assert.Equal(t, admin, stored.DeletedBy)

	actions, err := repo.Of[domain.UserAction](d.UoW.New()).Find(context.Background(), repo.Eq("entity_id", p.ID))
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "product.deleted", actions[0].Action)

	restored := send[RestoreProduct, ProductDto](t, ctx, m, RestoreProduct{ID: p.ID})
	require.True(t, restored.IsSuccess, restored.Message)
	assert.Contains(t, rec.Actions(), "product.restored")

	twice := send[RestoreProduct, ProductDto](t, ctx, m, RestoreProduct{ID: p.ID})
	assert.Equal(t, result.CodeInvalidOperation, twice.ErrorCode)
}

func TestDeleteCategoryInUseConflicts(t *testing.T) {
	m, _, _, ctx := setup(t)
	cat := seedCategory(t, ctx, m, "Figures")
	createProduct(t, ctx, m, ProductInput{Name: "Figure", Price: decimal.NewFromInt(1), CategoryID: cat.ID})

	res := send[DeleteCategory, result.Empty](t, ctx, m, DeleteCategory{ID: cat.ID})
	assert.Equal(t, result.CodeConflict, res.ErrorCode)
}

func TestGetProductsFilters(t *testing.T) {
	m, d, _, ctx := setup(t)
	figures := seedCategory(t, ctx, m, "Figures")
	posters := seedCategory(t, ctx, m, "Posters")
	hot := seedBadge(t, d, "Hot")

	createProduct(t, ctx, m, ProductInput{Name: "Gojo Figure", Price: decimal.NewFromInt(800000), StockQuantity: 2, CategoryID: figures.ID, BadgeIDs: []string{hot.ID}})
	createProduct(t, ctx, m, ProductInput{Name: "Gojo Poster", Price: decimal.NewFromInt(120000), StockQuantity: 0, CategoryID: posters.ID})
	createProduct(t, ctx, m, ProductInput{Name: "Luffy Poster", Price: decimal.NewFromInt(150000), StockQuantity: 9, CategoryID: posters.ID})

	list := func(f ProductFilter) []string {
		res := send[ProductFilter, result.Page[ProductDto]](t, context.Background(), m, f)
		require.True(t, res.IsSuccess, res.Message)
		names := make([]string, 0)
		for _, p := range res.Data.Items {
			names = append(names, p.Name)
		}
		return names
	}
	ptr := func(s string) *string { return &s }
	f := func(v float64) *float64 { return &v }
	yes := true

	assert.ElementsMatch(t, []string{"Gojo Figure", "Gojo Poster"}, list(ProductFilter{Keyword: "gojo"}))
	assert.Equal(t, []string{"Gojo Figure"}, list(ProductFilter{BadgeID: &hot.ID}))
	assert.ElementsMatch(t, []string{"Gojo Poster", "Luffy Poster"}, list(ProductFilter{CategoryID: ptr(posters.ID)}))
	assert.Equal(t, []string{"Luffy Poster"}, list(ProductFilter{MinPrice: f(130000), MaxPrice: f(500000)}))
	assert.Equal(t, []string{"Luffy Poster", "Gojo Figure"}, list(ProductFilter{InStock: &yes, PageRequest: pageSorted("price", "asc")}))
	assert.Equal(t, []string{"Gojo Figure", "Luffy Poster", "Gojo Poster"}, list(ProductFilter{PageRequest: pageSorted("price", "desc")}))
}

func TestInactiveProductsOnlyVisibleToStaff(t *testing.T) {
	m, _, _, ctx := setup(t)
	cat := seedCategory(t, ctx, m, "Figures")
	live := createProduct(t, ctx, m, ProductInput{Name: "Nami Figure", Price: decimal.NewFromInt(300000), CategoryID: cat.ID})
	hidden := createProduct(t, ctx, m, ProductInput{Name: "Robin Figure", Price: decimal.NewFromInt(300000), CategoryID: cat.ID})
	inactive := domain.StatusInactive
	upd := send[UpdateProduct, ProductDto](t, ctx, m, UpdateProduct{ID: hidden.ID, Status: &inactive,
		ProductInput: ProductInput{Name: "Robin Figure", Price: decimal.NewFromInt(300000), CategoryID: cat.ID}})
	require.True(t, upd.IsSuccess, upd.Message)

	customer := fixture.AsUser(context.Background(), "c1", domain.RoleCustomer)
	for _, c := range []context.Context{context.Background(), customer} {
		got := send[GetProductByID, ProductDto](t, c, m, GetProductByID{ID: hidden.ID})
		assert.Equal(t, result.CodeNotFound, got.ErrorCode)

		status := string(domain.StatusInactive)
		page := send[ProductFilter, result.Page[ProductDto]](t, c, m, ProductFilter{Status: &status})
		require.True(t, page.IsSuccess, page.Message)
		assert.Empty(t, page.Data.Items)

		page = send[ProductFilter, result.Page[ProductDto]](t, c, m, ProductFilter{})
		require.Len(t, page.Data.Items, 1)
		assert.Equal(t, live.ID, page.Data.Items[0].ID)
	}

	staff := fixture.AsUser(context.Background(), "s1", domain.RoleStaff)
	got := send[GetProductByID, ProductDto](t, staff, m, GetProductByID{ID: hidden.ID})
	require.True(t, got.IsSuccess)
	assert.Equal(t, domain.StatusInactive, got.Data.Status)
	page := send[ProductFilter, result.Page[ProductDto]](t, staff, m, ProductFilter{})
	assert.Len(t, page.Data.Items, 2)
}

func pageSorted(by, dir string) (p filter.PageRequest) {
	p.SortBy, p.SortDirection = by, dir
	return p
}

func TestGetProductUsesCache(t *testing.T) {
	m, d, _, ctx := setup(t)
	mr := miniredis.RunT(t)
	d.Cache = cache.New(cache.NewRedis(mr.Addr(), "", 0), cache.Options{Prefix: "test:"})
	d.CacheTTL = time.Minute
	cat := seedCategory(t, ctx, m, "Figures")
	p := createProduct(t, ctx, m, ProductInput{Name: "Keychain", Price: decimal.NewFromInt(30000), CategoryID: cat.ID})

	res := send[GetProductByID, ProductDto](t, ctx, m, GetProductByID{ID: p.ID})
	require.True(t, res.IsSuccess)
	assert.True(t, mr.Exists("test:product:"+p.ID))

	upd := send[UpdateProduct, ProductDto](t, ctx, m, UpdateProduct{ID: p.ID, ProductInput: ProductInput{Name: "Keychain v2", Price: decimal.NewFromInt(35000), CategoryID: cat.ID}})
	require.True(t, upd.IsSuccess, upd.Message)
	assert.Equal(t, "keychain-v2", upd.Data.Slug)
	assert.False(t, mr.Exists("test:product:"+p.ID))

	res = send[GetProductByID, ProductDto](t, ctx, m, GetProductByID{ID: p.ID})
	assert.Equal(t, "Keychain v2", res.Data.Name)

	missing := send[GetProductByID, ProductDto](t, ctx, m, GetProductByID{ID: "nope"})
	assert.Equal(t, result.CodeNotFound, missing.ErrorCode)
	assert.False(t, mr.Exists("test:product:nope"))
}

func TestProductImageUploadAndDelete(t *testing.T) {
	m, d, _, ctx := setup(t)
	cat := seedCategory(t, ctx, m, "Figures")
	p := createProduct(t, ctx, m, ProductInput{Name: "Figure", Price: decimal.NewFromInt(1), CategoryID: cat.ID})
	files := d.Storage.(*storage.Memory)

	bad := send[UploadProductImage, ImageDto](t, ctx, m, UploadProductImage{ProductID: p.ID, FileName: "a.txt", ContentType: "text/plain", Size: 3, Reader: bytes.NewReader([]byte("abc"))})
	assert.Equal(t, result.CodeValidationFailed, bad.ErrorCode)

	up := send[UploadProductImage, ImageDto](t, ctx, m, UploadProductImage{ProductID: p.ID, FileName: "Front.PNG", ContentType: "image/png", Size: 4, Reader: bytes.NewReader([]byte("png!"))})
	require.True(t, up.IsSuccess, up.Message)
	key := "products/" + p.ID + "/" + up.Data.ID + ".png"
	assert.Equal(t, "http://cdn.test/"+key, up.Data.URL)
	_, ok := files.Get(key)
	assert.True(t, ok)

	del := send[DeleteProductImage, result.Empty](t, ctx, m, DeleteProductImage{ProductID: p.ID, ImageID: up.Data.ID})
	require.True(t, del.IsSuccess, del.Message)
	_, ok = files.Get(key)
	assert.False(t, ok)

	del = send[DeleteProductImage, result.Empty](t, ctx, m, DeleteProductImage{ProductID: p.ID, ImageID: up.Data.ID})
	assert.Equal(t, result.CodeNotFound, del.ErrorCode)
}

func TestExportProducts(t *testing.T) {
	m, _, _, ctx := setup(t)
	cat := seedCategory(t, ctx, m, "Figures")
	createProduct(t, ctx, m, ProductInput{Name: "Figure A", Price: decimal.NewFromInt(100), CategoryID: cat.ID})
	createProduct(t, ctx, m, ProductInput{Name: "Figure B", Price: decimal.NewFromInt(200), CategoryID: cat.ID})

	res := send[ExportProducts, feature.File](t, ctx, m, ExportProducts{ProductFilter{PageRequest: pageSorted("price", "asc")}})
	require.True(t, res.IsSuccess, res.Message)
	assert.Equal(t, "products_20250601_120000.xlsx", res.Data.FileName)

	f, err := excelize.OpenReader(bytes.NewReader(res.Data.Content))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Name", rows[0][1])
	assert.Equal(t, "Figure A", rows[1][1])
	assert.Equal(t, "Figures", rows[2][3])
}

func TestPurgeStaleFilesKeepsReferencedAndRecentObjects(t *testing.T) {
	m, d, _, ctx := setup(t)
	cat := seedCategory(t, ctx, m, "Figures")
	p := createProduct(t, ctx, m, ProductInput{Name: "Figure", Price: decimal.NewFromInt(1), CategoryID: cat.ID})
	files := d.Storage.(*storage.Memory)

	files.SetClock(func() time.Time { return fixture.Now.Add(-48 * time.Hour) })
	up := send[UploadProductImage, ImageDto](t, ctx, m, UploadProductImage{ProductID: p.ID, FileName: "a.png", ContentType: "image/png", Size: 1, Reader: bytes.NewReader([]byte("a"))})
	require.True(t, up.IsSuccess, up.Message)
	require.NoError(t, files.Upload(ctx, "products/"+p.ID+"/orphan.png", bytes.NewReader([]byte("b")), 1, "image/png"))
	require.NoError(t, files.Upload(ctx, "blog/post-1/old.png", bytes.NewReader([]byte("c")), 1, "image/png"))

	files.SetClock(func() time.Time { return fixture.Now })
	require.NoError(t, files.Upload(ctx, "products/"+p.ID+"/fresh.png", bytes.NewReader([]byte("d")), 1, "image/png"))

	res := send[PurgeStaleFiles, PurgeDto](t, context.Background(), m, PurgeStaleFiles{MaxAge: 24 * time.Hour})
	require.True(t, res.IsSuccess, res.Message)
	assert.Equal(t, PurgeDto{Scanned: 4, Deleted: 2}, res.Data)

	_, ok := files.Get("products/" + p.ID + "/" + up.Data.ID + ".png")
	assert.True(t, ok)
	_, ok = files.Get("products/" + p.ID + "/fresh.png")
	assert.True(t, ok)
	_, ok = files.Get("products/" + p.ID + "/orphan.png")
	assert.False(t, ok)
	_, ok = files.Get("blog/post-1/old.png")
	assert.False(t, ok)
}
