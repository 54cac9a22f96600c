package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"anime-shop/internal/core/mediator"
	"anime-shop/internal/core/result"
	"anime-shop/internal/domain"
	"anime-shop/internal/feature"
	"anime-shop/internal/feature/badge"
	"anime-shop/internal/feature/blog"
	"anime-shop/internal/feature/cart"
	"anime-shop/internal/feature/catalog"
	"anime-shop/internal/feature/coupon"
	"anime-shop/internal/feature/order"
	"anime-shop/internal/feature/review"
	"anime-shop/internal/feature/user"
	"anime-shop/internal/feature/wishlist"
)

// Modules 全部业务路由模块
func Modules(m *mediator.Mediator) []any {
	return []any{
		identityRoutes{m}, catalogRoutes{m}, reviewRoutes{m}, cartRoutes{m}, wishlistRoutes{m},
		couponRoutes{m}, orderRoutes{m}, blogRoutes{m}, userAdminRoutes{m},
	}
}

type identityRoutes struct{ m *mediator.Mediator }

func (identityRoutes) Priority() int { return 10 }

func (r identityRoutes) MountAPI(g *gin.RouterGroup) {
	RegisterAction(g, r.m, Action[user.Register, user.UserDto]{Method: http.MethodPost, Path: "/auth/register", Binder: BindJSON})
	RegisterAction(g, r.m, Action[user.Login, user.AuthDto]{Method: http.MethodPost, Path: "/auth/login", Binder: BindJSON})
	RegisterAction(g, r.m, Action[user.GetProfile, user.UserDto]{Method: http.MethodGet, Path: "/me", Binder: BindNone, Auth: true})
	RegisterAction(g, r.m, Action[user.UpdateProfile, user.UserDto]{Method: http.MethodPut, Path: "/me", Binder: BindJSON, Auth: true})
	RegisterAction(g, r.m, Action[user.ChangePassword, result.Empty]{Method: http.MethodPut, Path: "/me/password", Binder: BindJSON, Auth: true})
}

type catalogRoutes struct{ m *mediator.Mediator }

func (r catalogRoutes) MountAPI(g *gin.RouterGroup) {
	RegisterAction(g, r.m, Action[catalog.CategoryFilter, result.Page[catalog.CategoryDto]]{Method: http.MethodGet, Path: "/categories", Binder: BindQuery})
	RegisterAction(g, r.m, Action[catalog.AnimeSeriesFilter, result.Page[catalog.AnimeSeriesDto]]{Method: http.MethodGet, Path: "/anime-series", Binder: BindQuery})
	RegisterAction(g, r.m, Action[catalog.ProductFilter, result.Page[catalog.ProductDto]]{Method: http.MethodGet, Path: "/products", Binder: BindQuery})
	RegisterAction(g, r.m, Action[catalog.GetProductByID, catalog.ProductDto]{Method: http.MethodGet, Path: "/products/:id", Binder: BindNone})
	RegisterAction(g, r.m, Action[badge.BadgeFilter, result.Page[badge.BadgeDto]]{Method: http.MethodGet, Path: "/badges", Binder: BindQuery})
}

func (r catalogRoutes) MountAdmin(g *gin.RouterGroup) {
	RegisterAction(g, r.m, Action[catalog.CategoryFilter, result.Page[catalog.CategoryDto]]{Method: http.MethodGet, Path: "/categories", Binder: BindQuery})
	RegisterAction(g, r.m, Action[catalog.CreateCategory, catalog.CategoryDto]{Method: http.MethodPost, Path: "/categories", Binder: BindJSON})
	RegisterAction(g, r.m, Action[catalog.UpdateCategory, catalog.CategoryDto]{Method: http.MethodPut, Path: "/categories/:id", Binder: BindJSON})
	RegisterAction(g, r.m, Action[catalog.DeleteCategory, result.Empty]{Method: http.MethodDelete, Path: "/categories/:id", Binder: BindNone})

	RegisterAction(g, r.m, Action[catalog.AnimeSeriesFilter, result.Page[catalog.AnimeSeriesDto]]{Method: http.MethodGet, Path: "/anime-series", Binder: BindQuery})
	RegisterAction(g, r.m, Action[catalog.CreateAnimeSeries, catalog.AnimeSeriesDto]{Method: http.MethodPost, Path: "/anime-series", Binder: BindJSON})
	RegisterAction(g, r.m, Action[catalog.UpdateAnimeSeries, catalog.AnimeSeriesDto]{Method: http.MethodPut, Path: "/anime-series/:id", Binder: BindJSON})
	RegisterAction(g, r.m, Action[catalog.DeleteAnimeSeries, result.Empty]{Method: http.MethodDelete, Path: "/anime-series/:id", Binder: BindNone})

	RegisterAction(g, r.m, Action[catalog.ProductFilter, result.Page[catalog.ProductDto]]{Method: http.MethodGet, Path: "/products", Binder: BindQuery})
	RegisterAction(g, r.m, Action[catalog.ExportProducts, feature.File]{Method: http.MethodGet, Path: "/products/export", Binder: BindQuery})
	RegisterAction(g, r.m, Action[catalog.GetProductByID, catalog.ProductDto]{Method: http.MethodGet, Path: "/products/:id", Binder: BindNone})
	RegisterAction(g, r.m, Action[catalog.CreateProduct, catalog.ProductDto]{Method: http.MethodPost, Path: "/products", Binder: BindJSON})
	RegisterAction(g, r.m, Action[catalog.UpdateProduct, catalog.ProductDto]{Method: http.MethodPut, Path: "/products/:id", Binder: BindJSON})
	RegisterAction(g, r.m, Action[catalog.DeleteProduct, result.Empty]{Method: http.MethodDelete, Path: "/products/:id", Binder: BindNone})
	RegisterAction(g, r.m, Action[catalog.RestoreProduct, catalog.ProductDto]{Method: http.MethodPost, Path: "/products/:id/restore", Binder: BindNone})
	RegisterAction(g, r.m, Action[catalog.UploadProductImage, catalog.ImageDto]{
		Method: http.MethodPost, Path: "/products/:id/images", Binder: BindMultipart,
		File: func(req *catalog.UploadProductImage, f Upload) {
			req.FileName, req.ContentType, req.Size, req.Reader = f.Name, f.ContentType, f.Size, f.Reader
		},
	})
	RegisterAction(g, r.m, Action[catalog.DeleteProductImage, result.Empty]{Method: http.MethodDelete, Path: "/products/:id/images/:imageId", Binder: BindNone})

	RegisterAction(g, r.m, Action[badge.BadgeFilter, result.Page[badge.BadgeDto]]{Method: http.MethodGet, Path: "/badges", Binder: BindQuery})
	RegisterAction(g, r.m, Action[badge.CreateBadge, badge.BadgeDto]{Method: http.MethodPost, Path: "/badges", Binder: BindJSON})
	RegisterAction(g, r.m, Action[badge.DeleteBadge, result.Empty]{Method: http.MethodDelete, Path: "/badges/:id", Binder: BindNone})
}

type reviewRoutes struct{ m *mediator.Mediator }

func (r reviewRoutes) MountAPI(g *gin.RouterGroup) {
	RegisterAction(g, r.m, Action[review.GetProductReviews, result.Page[review.ReviewDto]]{Method: http.MethodGet, Path: "/products/:id/reviews", Binder: BindQuery})
	RegisterAction(g, r.m, Action[review.CreateReview, review.ReviewDto]{Method: http.MethodPost, Path: "/products/:id/reviews", Binder: BindJSON, Auth: true})
	RegisterAction(g, r.m, Action[review.DeleteReview, result.Empty]{Method: http.MethodDelete, Path: "/reviews/:id", Binder: BindNone, Auth: true})
}

func (r reviewRoutes) MountAdmin(g *gin.RouterGroup) {
	RegisterAction(g, r.m, Action[review.GetProductReviews, result.Page[review.ReviewDto]]{Method: http.MethodGet, Path: "/products/:id/reviews", Binder: BindQuery})
	RegisterAction(g, r.m, Action[review.DeleteReview, result.Empty]{Method: http.MethodDelete, Path: "/reviews/:id", Binder: BindNone})
}

type cartRoutes struct{ m *mediator.Mediator }

func (r cartRoutes) MountAPI(g *gin.RouterGroup) {
	RegisterAction(g, r.m, Action[cart.GetCart, cart.CartDto]{Method: http.MethodGet, Path: "/cart", Binder: BindNone, Auth: true})
	RegisterAction(g, r.m, Action[cart.AddToCart, cart.ItemDto]{Method: http.MethodPost, Path: "/cart/items", Binder: BindJSON, Auth: true})
	RegisterAction(g, r.m, Action[cart.UpdateCart, cart.ItemDto]{Method: http.MethodPut, Path: "/cart/items/:id", Binder: BindJSON, Auth: true})
	RegisterAction(g, r.m, Action[cart.RemoveCartItem, result.Empty]{Method: http.MethodDelete, Path: "/cart/items/:id", Binder: BindNone, Auth: true})
}

type wishlistRoutes struct{ m *mediator.Mediator }

func (r wishlistRoutes) MountAPI(g *gin.RouterGroup) {
	RegisterAction(g, r.m, Action[wishlist.GetWishlist, result.Page[wishlist.ItemDto]]{Method: http.MethodGet, Path: "/wishlist", Binder: BindQuery, Auth: true})
	RegisterAction(g, r.m, Action[wishlist.AddToWishlist, wishlist.ItemDto]{Method: http.MethodPost, Path: "/wishlist", Binder: BindJSON, Auth: true})
	RegisterAction(g, r.m, Action[wishlist.RemoveFromWishlist, result.Empty]{Method: http.MethodDelete, Path: "/wishlist/:productId", Binder: BindNone, Auth: true})
}

type couponRoutes struct{ m *mediator.Mediator }

func (r couponRoutes) MountAPI(g *gin.RouterGroup) {
	RegisterAction(g, r.m, Action[coupon.CouponFilter, result.Page[coupon.CouponDto]]{Method: http.MethodGet, Path: "/coupons", Binder: BindQuery})
	RegisterAction(g, r.m, Action[coupon.CollectCoupon, coupon.UserCouponDto]{Method: http.MethodPost, Path: "/coupons/:id/collect", Binder: BindNone, Auth: true})
	RegisterAction(g, r.m, Action[coupon.MyCouponFilter, result.Page[coupon.UserCouponDto]]{Method: http.MethodGet, Path: "/me/coupons", Binder: BindQuery, Auth: true})
}

func (r couponRoutes) MountAdmin(g *gin.RouterGroup) {
	RegisterAction(g, r.m, Action[coupon.CouponFilter, result.Page[coupon.CouponDto]]{Method: http.MethodGet, Path: "/coupons", Binder: BindQuery})
	RegisterAction(g, r.m, Action[coupon.CreateCoupon, coupon.CouponDto]{Method: http.MethodPost, Path: "/coupons", Binder: BindJSON})
	RegisterAction(g, r.m, Action[coupon.DeleteCoupon, result.Empty]{Method: http.MethodDelete, Path: "/coupons/:id", Binder: BindNone})
}

type orderRoutes struct{ m *mediator.Mediator }

func (r orderRoutes) MountAPI(g *gin.RouterGroup) {
	RegisterAction(g, r.m, Action[order.CreateOrder, order.CreateOrderResult]{
		Method: http.MethodPost, Path: "/orders", Binder: BindJSON, Auth: true,
		Prepare: func(c *gin.Context, req *order.CreateOrder) { req.ClientIP = c.ClientIP() },
	})
	RegisterAction(g, r.m, Action[order.CalculateShippingFee, order.ShippingQuote]{Method: http.MethodPost, Path: "/orders/shipping-fee", Binder: BindJSON, Auth: true})
	RegisterAction(g, r.m, Action[order.GetMyOrders, result.Page[order.OrderDto]]{Method: http.MethodGet, Path: "/orders", Binder: BindQuery, Auth: true})
	RegisterAction(g, r.m, Action[order.GetOrderByID, order.OrderDto]{Method: http.MethodGet, Path: "/orders/:id", Binder: BindNone, Auth: true})
	RegisterAction(g, r.m, Action[order.CancelOrder, order.OrderDto]{Method: http.MethodPost, Path: "/orders/:id/cancel", Binder: BindJSON, Auth: true})
	RegisterAction(g, r.m, Action[order.GetOrderInvoice, feature.File]{Method: http.MethodGet, Path: "/orders/:id/invoice", Binder: BindNone, Auth: true})

	callback := func(c *gin.Context, req *order.HandlePaymentCallback) { req.Params = callbackParams(c) }
	RegisterAction(g, r.m, Action[order.HandlePaymentCallback, order.PaymentCallbackDto]{Method: http.MethodGet, Path: "/payments/:method/callback", Binder: BindNone, Prepare: callback})
	RegisterAction(g, r.m, Action[order.HandlePaymentCallback, order.PaymentCallbackDto]{Method: http.MethodPost, Path: "/payments/:method/ipn", Binder: BindNone, Prepare: callback})
}

func (r orderRoutes) MountAdmin(g *gin.RouterGroup) {
	RegisterAction(g, r.m, Action[order.GetOrders, result.Page[order.OrderDto]]{Method: http.MethodGet, Path: "/orders", Binder: BindQuery})
	RegisterAction(g, r.m, Action[order.GetOrderByID, order.OrderDto]{Method: http.MethodGet, Path: "/orders/:id", Binder: BindNone})
	RegisterAction(g, r.m, Action[order.UpdateOrderStatus, order.OrderDto]{Method: http.MethodPut, Path: "/orders/:id/status", Binder: BindJSON})
	RegisterAction(g, r.m, Action[order.CancelOrder, order.OrderDto]{Method: http.MethodPost, Path: "/orders/:id/cancel", Binder: BindJSON})
	RegisterAction(g, r.m, Action[order.GetOrderInvoice, feature.File]{Method: http.MethodGet, Path: "/orders/:id/invoice", Binder: BindNone})
}

type blogRoutes struct{ m *mediator.Mediator }

func (r blogRoutes) MountAPI(g *gin.RouterGroup) {
	RegisterAction(g, r.m, Action[blog.BlogFilter, result.Page[blog.PostDto]]{Method: http.MethodGet, Path: "/blog", Binder: BindQuery})
	RegisterAction(g, r.m, Action[blog.GetBlogPostBySlug, blog.PostDto]{Method: http.MethodGet, Path: "/blog/:slug", Binder: BindNone})
}

func (r blogRoutes) MountAdmin(g *gin.RouterGroup) {
	RegisterAction(g, r.m, Action[blog.BlogFilter, result.Page[blog.PostDto]]{Method: http.MethodGet, Path: "/blog", Binder: BindQuery})
	RegisterAction(g, r.m, Action[blog.GetBlogPostBySlug, blog.PostDto]{Method: http.MethodGet, Path: "/blog/slug/:slug", Binder: BindNone})
	RegisterAction(g, r.m, Action[blog.CreateBlogPost, blog.PostDto]{Method: http.MethodPost, Path: "/blog", Binder: BindJSON})
	RegisterAction(g, r.m, Action[blog.UpdateBlogPost, blog.PostDto]{Method: http.MethodPut, Path: "/blog/:id", Binder: BindJSON})
	RegisterAction(g, r.m, Action[blog.PublishBlogPost, blog.PostDto]{Method: http.MethodPost, Path: "/blog/:id/publish", Binder: BindJSON})
	RegisterAction(g, r.m, Action[blog.DeleteBlogPost, result.Empty]{Method: http.MethodDelete, Path: "/blog/:id", Binder: BindNone})
	RegisterAction(g, r.m, Action[blog.UploadBlogCover, blog.PostDto]{
		Method: http.MethodPost, Path: "/blog/:id/cover", Binder: BindMultipart,
		File: func(req *blog.UploadBlogCover, f Upload) {
			req.FileName, req.ContentType, req.Size, req.Reader = f.Name, f.ContentType, f.Size, f.Reader
		},
	})
}

// userAdminRoutes 用户管理只对 Admin 开放
type userAdminRoutes struct{ m *mediator.Mediator }

func (r userAdminRoutes) MountAdmin(g *gin.RouterGroup) {
	admin := []string{domain.RoleAdmin}
	RegisterAction(g, r.m, Action[user.UserFilter, result.Page[user.UserDto]]{Method: http.MethodGet, Path: "/users", Binder: BindQuery, Roles: admin})
	RegisterAction(g, r.m, Action[user.DeleteUser, result.Empty]{Method: http.MethodDelete, Path: "/users/:id", Binder: BindNone, Roles: admin})
	RegisterAction(g, r.m, Action[user.RestoreUser, user.UserDto]{Method: http.MethodPost, Path: "/users/:id/restore", Binder: BindNone, Roles: admin})
	RegisterAction(g, r.m, Action[user.AssignRoles, user.UserDto]{Method: http.MethodPut, Path: "/users/:id/roles", Binder: BindJSON, Roles: admin})
	RegisterAction(g, r.m, Action[user.GetUserActions, result.Page[user.ActionDto]]{Method: http.MethodGet, Path: "/user-actions", Binder: BindQuery, Roles: admin})
}
