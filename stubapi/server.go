// Package stubapi serves a development backend that speaks the storefront's
// wire contract: envelope responses, bearer tokens and 401 on a bad session.
package stubapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"shopfront/auth"
	"shopfront/catalog"
	"shopfront/obs"
)

// Options configures a Server. Inventory defaults to the seed catalogue.
type Options struct {
	Auth      *auth.Service
	Inventory *Inventory
	Now       func() time.Time
}

// Server holds the stub backend's state.
type Server struct {
	auth   *auth.Service
	inv    *Inventory
	orders *OrderBook
}

// NewServer returns a Server. opts.Auth is required.
func NewServer(opts Options) *Server {
	inv := opts.Inventory
	if inv == nil {
		inv = NewInventory(opts.Now, SeedProducts()...)
	}
	return &Server{
		auth:   opts.Auth,
		inv:    inv,
		orders: NewOrderBook(inv, opts.Now),
	}
}

// Inventory exposes the product store.
func (s *Server) Inventory() *Inventory { return s.inv }

// Orders exposes the order book.
func (s *Server) Orders() *OrderBook { return s.orders }

// Handler returns the router with every route mounted under /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(echoRequestID)
	r.Use(withLogging)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.login)
		r.Post("/auth/logout", s.logout)
		r.Get("/auth/validate", s.validate)

		r.Get("/public/products", s.listProducts)
		r.Get("/public/products/{id}", s.getProduct)
		r.Get("/public/categories", s.categories)
		r.Post("/public/orders", s.placeOrder)
		r.Get("/public/orders/track", s.trackOrders)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.With(requireRole(auth.RoleStudent)).Get("/student/profile", s.profile)
			r.With(requireRole(auth.RoleAdmin)).Get("/admin/orders", s.allOrders)
		})
	})
	return r
}

type loginData struct {
	Token    string    `json:"token"`
	UserType auth.Role `json:"userType"`
	UserID   int64     `json:"userId"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeFail(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	res, err := s.auth.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeFail(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "Login successful", loginData{
		Token:    res.Token,
		UserType: res.User.Role,
		UserID:   res.User.ID,
		Name:     res.User.Name,
		Email:    res.User.Email,
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeFail(w, http.StatusBadRequest, "Authorization header is required")
		return
	}
	if err := s.auth.Revoke(token); err != nil {
		obs.Logger.Info("logout_unknown_token", "error", err, "request_id", middleware.GetReqID(r.Context()))
	}
	writeData(w, http.StatusOK, "Logout successful", nil)
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeFail(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	_, err := s.auth.VerifyToken(token)
	writeData(w, http.StatusOK, "Token validation", err == nil)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products := s.inv.List(catalog.ParseFilter(r.URL.Query()))
	writeData(w, http.StatusOK, "Products retrieved successfully", products)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.inv.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "Product retrieved successfully", p)
}

func (s *Server) categories(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, "Categories retrieved successfully", s.inv.Categories())
}

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req catalog.CheckoutRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	o, err := s.orders.Place(req)
	if err != nil {
		writeError(w, err)
		return
	}
	obs.Logger.Info("order_recorded", "order_id", o.ID, "reference", o.Reference, "total", o.TotalAmount)
	writeData(w, http.StatusCreated, "Order placed successfully", o)
}

func (s *Server) trackOrders(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeFail(w, http.StatusBadRequest, "email is required")
		return
	}
	writeData(w, http.StatusOK, "Orders retrieved successfully", s.orders.Track(email))
}

type profileData struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	UserType auth.Role `json:"userType"`
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	id, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		writeFail(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	u, err := s.auth.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeFail(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "Profile retrieved successfully", profileData{ID: u.ID, Name: u.Name, Email: u.Email, UserType: u.Role})
}

func (s *Server) allOrders(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, "Orders retrieved successfully", s.orders.All())
}
