package domain

type CartItem struct {
	Base
	UserID    string   `gorm:"size:36;not null;index" json:"userId"`
	ProductID string   `gorm:"size:36;not null;index" json:"productId"`
	Product   *Product `json:"product,omitempty"`
	Quantity  int      `gorm:"not null" json:"quantity"`
}

// WishlistItem 同一用户同一商品只有一行；移除是物理删除
type WishlistItem struct {
	Base
	UserID    string   `gorm:"size:36;not null;uniqueIndex:idx_wishlist_user_product" json:"userId"`
	ProductID string   `gorm:"size:36;not null;uniqueIndex:idx_wishlist_user_product;index" json:"productId"`
	Product   *Product `json:"product,omitempty"`
}
