package stubapi

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"shopfront/catalog"
	"shopfront/state"
)

// timeLayout matches the backend's zone-less timestamps.
const timeLayout = "2006-01-02T15:04:05"

// newProductWindow is how recent a product must be to count as new.
const newProductWindow = 7 * 24 * time.Hour

// bestSellerLimit caps the best seller list.
const bestSellerLimit = 10

type stocked struct {
	product catalog.Product
	created time.Time
	sold    int
}

// Inventory holds the product catalogue and its stock.
type Inventory struct {
	now func() time.Time

	mu       sync.RWMutex
	products map[int64]*stocked
	order    []int64
	nextID   int64
}

// NewInventory returns an Inventory holding products. Zero ids are assigned;
// zero creation times default to now.
func NewInventory(now func() time.Time, products ...catalog.Product) *Inventory {
	if now == nil {
		now = time.Now
	}
	inv := &Inventory{now: now, products: make(map[int64]*stocked), nextID: 1}
	for _, p := range products {
		inv.Add(p)
	}
	return inv
}

// Add stores p and returns it with its id and creation time set.
func (inv *Inventory) Add(p catalog.Product) catalog.Product {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if p.ID == 0 {
		p.ID = inv.nextID
	}
	if p.ID >= inv.nextID {
		inv.nextID = p.ID + 1
	}
	created := inv.now()
	if p.CreatedAt != "" {
		if t, err := time.Parse(timeLayout, p.CreatedAt); err == nil {
			created = t
		}
	}
	p.CreatedAt = created.Format(timeLayout)

	if _, exists := inv.products[p.ID]; !exists {
		inv.order = append(inv.order, p.ID)
	}
	inv.products[p.ID] = &stocked{product: p, created: created}
	return p
}

// List returns active, in-stock products matching f in catalogue order.
func (inv *Inventory) List(f catalog.Filter) []catalog.Product {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	var best []int64
	if f.BestSeller {
		best = inv.bestSellersLocked()
	}
	cutoff := inv.now().Add(-newProductWindow)

	out := []catalog.Product{}
	for _, id := range inv.order {
		s := inv.products[id]
		p := s.product
		switch {
		case !p.Active || p.Quantity <= 0:
		case f.Category != "" && !p.InCategory(f.Category):
		case f.StudentID != 0 && p.StudentID != f.StudentID:
		case f.OnSale && !p.OnSale:
		case f.NewProducts && !s.created.After(cutoff):
		case f.BestSeller && !slices.Contains(best, id):
		default:
			out = append(out, p)
		}
	}
	return out
}

// All returns every product, active or not, in catalogue order.
func (inv *Inventory) All() []catalog.Product {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := make([]catalog.Product, 0, len(inv.order))
	for _, id := range inv.order {
		out = append(out, inv.products[id].product)
	}
	return out
}

// Get returns one product regardless of its stock.
func (inv *Inventory) Get(id string) (catalog.Product, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return catalog.Product{}, notFound("Product not found: " + id)
	}
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	s, ok := inv.products[n]
	if !ok {
		return catalog.Product{}, notFound("Product not found: " + id)
	}
	return s.product, nil
}

// Categories returns the distinct categories of active products, sorted.
func (inv *Inventory) Categories() []string {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	seen := map[string]bool{}
	out := []string{}
	for _, id := range inv.order {
		s := inv.products[id]
		if !s.product.Active {
			continue
		}
		for _, c := range s.product.Categories() {
			if key := strings.ToLower(c); !seen[key] {
				seen[key] = true
				out = append(out, c)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Reserve takes stock for every line at once, or for none when any line
// fails. Products that reach zero stock are deactivated. It returns the
// priced order lines and their total.
func (inv *Inventory) Reserve(lines []state.CartItem) ([]catalog.OrderItem, float64, error) {
	if len(lines) == 0 {
		return nil, 0, badRequest("Cart is empty")
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	need := map[int64]int{}
	ids := make([]int64, len(lines))
	for i, l := range lines {
		id, err := strconv.ParseInt(l.ProductID, 10, 64)
		if err != nil {
			return nil, 0, notFound("Product not found: " + l.ProductID)
		}
		if l.Quantity < 1 {
			return nil, 0, badRequest("Quantity must be at least 1")
		}
		s, ok := inv.products[id]
		if !ok {
			return nil, 0, notFound("Product not found: " + l.ProductID)
		}
		if !s.product.Active {
			return nil, 0, badRequest("Product is not available: " + s.product.Name)
		}
		ids[i] = id
		need[id] += l.Quantity
		if s.product.Quantity < need[id] {
			return nil, 0, badRequest(fmt.Sprintf("Insufficient stock for %s. Available: %d", s.product.Name, s.product.Quantity))
		}
	}

	items := make([]catalog.OrderItem, len(lines))
	var total float64
	for i, l := range lines {
		s := inv.products[ids[i]]
		price := s.product.EffectivePrice()
		items[i] = catalog.OrderItem{
			ProductID:   s.product.ID,
			ProductName: s.product.Name,
			Image:       s.product.Image,
			StudentID:   s.product.StudentID,
			StudentName: s.product.StudentName,
			Quantity:    l.Quantity,
			Price:       price,
			Subtotal:    price * float64(l.Quantity),
		}
		total += items[i].Subtotal

		s.product.Quantity -= l.Quantity
		s.sold += l.Quantity
		if s.product.Quantity == 0 {
			s.product.Active = false
		}
	}
	return items, total, nil
}

func (inv *Inventory) bestSellersLocked() []int64 {
	var ids []int64
	for id, s := range inv.products {
		if s.sold > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := inv.products[ids[i]], inv.products[ids[j]]
		if a.sold != b.sold {
			return a.sold > b.sold
		}
		return ids[i] < ids[j]
	})
	if len(ids) > bestSellerLimit {
		ids = ids[:bestSellerLimit]
	}
	return ids
}
