package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the single source of truth for a user's privileges
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// User represents an account
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// IsAdmin derives admin-ness from the role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Shop represents a partner storefront
type Shop struct {
	ID          int64     `json:"id" db:"id"`
	OwnerID     int64     `json:"ownerId" db:"owner_id"`
	Name        string    `json:"name" db:"name"`
	Category    string    `json:"category" db:"category"`
	Description string    `json:"description" db:"description"`
	Address     string    `json:"address" db:"address"`
	Phone       string    `json:"phone" db:"phone"`
	Image       string    `json:"image" db:"image"`
	Rating      float64   `json:"rating" db:"rating"`
	ReviewCount int       `json:"reviewCount" db:"review_count"`
	AvgRating   float64   `json:"avgRating" db:"avg_rating"`
	IsFeatured  bool      `json:"isFeatured" db:"is_featured"`
	Approved    bool      `json:"approved" db:"approved"`
	IsVerified  bool      `json:"isVerified" db:"is_verified"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// ProductStatus is informational; visibility is decided by the owning shop
type ProductStatus string

const (
	ProductPending  ProductStatus = "pending"
	ProductApproved ProductStatus = "approved"
	ProductRejected ProductStatus = "rejected"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductPending, ProductApproved, ProductRejected:
		return true
	}
	return false
}

// Product represents an item sold by exactly one shop.
// Ownership is always resolved through ShopID.
type Product struct {
	ID          int64           `json:"id" db:"id"`
	ShopID      int64           `json:"shopId" db:"shop_id"`
	Name        string          `json:"name" db:"name"`
	Price       decimal.Decimal `json:"price" db:"price"`
	ImageURL    string          `json:"imageUrl" db:"image_url"`
	Category    string          `json:"category" db:"category"`
	Description string          `json:"description" db:"description"`
	Status      ProductStatus   `json:"status" db:"status"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}

// ProductWithShop is a product joined with the shop fields needed for
// visibility and category matching.
type ProductWithShop struct {
	Product
	ShopName     string `json:"shopName" db:"shop_name"`
	ShopCategory string `json:"shopCategory" db:"shop_category"`
	ShopOwnerID  int64  `json:"-" db:"shop_owner_id"`
	ShopApproved bool   `json:"-" db:"shop_approved"`
}

// Offer is a market news ticker item
type Offer struct {
	ID        int64     `json:"id" db:"id"`
	Content   string    `json:"content" db:"content"`
	IsActive  bool      `json:"isActive" db:"is_active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Review is a customer rating of a shop, visible once an admin approves it
type Review struct {
	ID        int64     `json:"id" db:"id"`
	ShopID    int64     `json:"shopId" db:"shop_id"`
	Name      string    `json:"name" db:"name"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	Approved  bool      `json:"approved" db:"approved"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Categories is the fixed list shops and products are matched against
var Categories = []string{
	"Grocery",
	"Medical",
	"Mobile & Electronics",
	"Restaurants",
	"Coaching & Education",
	"Services",
	"Real Estate",
	"Beauty & Personal Care",
}

// RegisterRequest represents a request to create an account
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the user and the identity token for later requests
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// CreateShopRequest represents a request to open a shop
type CreateShopRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Image       string `json:"image"`
	IsFeatured  bool   `json:"isFeatured"`
}

// UpdateShopRequest is a partial update; nil fields are left unchanged.
// Moderation flags are not part of it.
type UpdateShopRequest struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	Address     *string `json:"address"`
	Phone       *string `json:"phone"`
	Image       *string `json:"image"`
	IsFeatured  *bool   `json:"isFeatured"`
}

// VerifyShopRequest names the owner expected to be promoted
type VerifyShopRequest struct {
	OwnerID int64 `json:"ownerId"`
}

// CreateProductRequest represents a new product listing
type CreateProductRequest struct {
	ShopID      int64  `json:"shopId"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	ImageURL    string `json:"imageUrl"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// UpdateProductRequest is a partial product update
type UpdateProductRequest struct {
	Name        *string        `json:"name"`
	Price       *string        `json:"price"`
	ImageURL    *string        `json:"imageUrl"`
	Category    *string        `json:"category"`
	Description *string        `json:"description"`
	Status      *ProductStatus `json:"status"`
}

// OfferRequest creates or updates an offer
type OfferRequest struct {
	Content  *string `json:"content"`
	IsActive *bool   `json:"isActive"`
}

// CreateReviewRequest is a public review submission
type CreateReviewRequest struct {
	Name    string `json:"name"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Pagination describes one page of a list
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ListResponse is the canonical list envelope
type ListResponse[T any] struct {
	Data       []T         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// ItemResponse is the canonical single-item envelope
type ItemResponse[T any] struct {
	Data T `json:"data"`
}

// ErrorBody is the canonical error payload
type ErrorBody struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse wraps ErrorBody
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
