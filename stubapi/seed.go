package stubapi

import (
	"shopfront/auth"
	"shopfront/catalog"
)

// SeedAccounts are the development logins.
func SeedAccounts() []auth.RegisterRequest {
	return []auth.RegisterRequest{
		{Email: "admin@shopfront.test", Password: "admin-pass", Name: "Store Admin", Role: auth.RoleAdmin},
		{Email: "student@shopfront.test", Password: "student-pass", Name: "Sam Student", Role: auth.RoleStudent},
	}
}

// SeedProducts is the development catalogue.
func SeedProducts() []catalog.Product {
	sale := 12.0
	return []catalog.Product{
		{Name: "Hand-thrown Mug", Description: "Stoneware, 350ml", Price: 18, Quantity: 12, Category: "Ceramics, Kitchen", StudentID: 2, StudentName: "Sam Student", Active: true},
		{Name: "Linocut Print", Description: "A4 on cotton paper", Price: 25, Quantity: 5, Category: "Art, Prints", StudentID: 2, StudentName: "Sam Student", Active: true},
		{Name: "Beaded Bracelet", Description: "Glass beads", Price: 15, SalePrice: &sale, OnSale: true, Quantity: 20, Category: "Jewelry", StudentID: 2, StudentName: "Sam Student", Active: true},
		{Name: "Knitted Scarf", Description: "Merino wool", Price: 40, Quantity: 3, Category: "Textiles", StudentID: 2, StudentName: "Sam Student", Active: true},
		{Name: "Sketchbook", Description: "Recycled paper, 80 pages", Price: 9.5, Quantity: 0, Category: "Stationery", StudentID: 2, StudentName: "Sam Student", Active: false},
	}
}
