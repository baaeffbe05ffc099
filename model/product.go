package model

// ProductStatus is the sale state of a product listing.
type ProductStatus string

const (
	ProductStatusOnSale  ProductStatus = "ONSALE"
	ProductStatusSoldOut ProductStatus = "SOLDOUT"
)

// Product is the subset of a catalog listing the chat core reads.
type Product struct {
	ID       int64         `json:"id" db:"id"`
	SellerID int64         `json:"sellerId" db:"seller_id"`
	Name     string        `json:"name" db:"name"`
	Price    int64         `json:"price" db:"price"`
	Status   ProductStatus `json:"status" db:"status"`
}

// TableName returns the database table name for Product.
func (p Product) TableName() string {
	return "products"
}

// AvailableForChat reports whether buyers may open a room about the product.
func (p *Product) AvailableForChat() bool {
	return p.Status == ProductStatusOnSale
}

// HasSeller reports whether the listing references a seller account.
func (p *Product) HasSeller() bool {
	return p.SellerID > 0
}
