package mockcart

import (
	"github.com/shopspring/decimal"
)

// Product is a catalog entry the mock service prices cart lines from
type Product struct {
	ProductID int64
	Name      string
	UnitPrice decimal.Decimal
	Thumbnail string
}

// DefaultCatalog is a small fixed catalog for local development
func DefaultCatalog() []Product {
	return []Product{
		{ProductID: 1, Name: "Canvas Tote", UnitPrice: decimal.RequireFromString("18.00"), Thumbnail: "/img/tote.jpg"},
		{ProductID: 2, Name: "Ceramic Mug", UnitPrice: decimal.RequireFromString("12.50"), Thumbnail: "/img/mug.jpg"},
		{ProductID: 3, Name: "Linen Shirt", UnitPrice: decimal.RequireFromString("49.90"), Thumbnail: "/img/shirt.jpg"},
		{ProductID: 4, Name: "Desk Lamp", UnitPrice: decimal.RequireFromString("65.00"), Thumbnail: "/img/lamp.jpg"},
	}
}
