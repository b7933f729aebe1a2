package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/apiclient"
	"shopfront/obs"
	"shopfront/state"
	"shopfront/ui"
)

type fakeAPI struct {
	mu        sync.Mutex
	responses map[string]string
	calls     []string
	bodies    []any
	delay     time.Duration
	active    atomic.Int32
	peak      atomic.Int32
}

func (f *fakeAPI) Call(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method+" "+endpoint)
	f.bodies = append(f.bodies, body)
	resp, ok := f.responses[endpoint]
	if !ok {
		return nil, &apiclient.Error{Kind: apiclient.KindStatus, Status: 404, Message: "Product not found"}
	}
	return json.RawMessage(resp), nil
}

type memCart struct {
	items    state.Cart
	consumed state.Cart
	cleared  bool
}

func (m *memCart) Items(context.Context) (state.Cart, error) { return m.items, nil }
func (m *memCart) Consume(_ context.Context, ordered state.Cart) error {
	m.consumed = append(m.consumed, ordered...)
	m.items, m.cleared = nil, true
	return nil
}

type toasts struct{ got []string }

func (t *toasts) Notify(msg string, _ ui.Kind) { t.got = append(t.got, msg) }

func product(id int64, price float64, salePrice *float64) string {
	p := Product{ID: id, Name: fmt.Sprintf("P%d", id), Price: price, Active: true, Quantity: 10, SalePrice: salePrice, OnSale: salePrice != nil}
	b, _ := json.Marshal(p)
	return `{"success":true,"data":` + string(b) + `}`
}

func ptr(f float64) *float64 { return &f }

func TestEffectivePrice(t *testing.T) {
	assert.Equal(t, 10.0, Product{Price: 10}.EffectivePrice())
	assert.Equal(t, 7.5, Product{Price: 10, OnSale: true, SalePrice: ptr(7.5)}.EffectivePrice())
	assert.Equal(t, 10.0, Product{Price: 10, OnSale: true}.EffectivePrice())
	assert.Equal(t, 10.0, Product{Price: 10, OnSale: false, SalePrice: ptr(7.5)}.EffectivePrice())
}

func TestInCategory(t *testing.T) {
	p := Product{Category: "Art, Handmade Jewelry"}
	assert.Equal(t, []string{"Art", "Handmade Jewelry"}, p.Categories())
	assert.True(t, p.InCategory("jewel"))
	assert.False(t, p.InCategory("books"))
}

func TestFilterRoundTrip(t *testing.T) {
	f := Filter{Category: "art", StudentID: 3, OnSale: true, BestSeller: true}
	q := f.Query()
	assert.Equal(t, "art", q.Get("category"))
	assert.Empty(t, q.Get("newProducts"))
	assert.Equal(t, f, ParseFilter(q))
	assert.Empty(t, Filter{}.Query())
}

func TestList_EncodesFilter(t *testing.T) {
	obs.Discard()
	q := url.Values{"onSale": {"true"}}
	api := &fakeAPI{responses: map[string]string{
		"/public/products?" + q.Encode(): `{"success":true,"data":[{"id":1,"name":"Mug","price":5}]}`,
	}}
	c := New(api, nil)

	ps, err := c.List(context.Background(), Filter{OnSale: true})
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "Mug", ps[0].Name)
	assert.Equal(t, "1", ps[0].Key())
}

func TestView_PreservesOrderAndPrices(t *testing.T) {
	obs.Discard()
	api := &fakeAPI{delay: 10 * time.Millisecond, responses: map[string]string{}}
	var cart state.Cart
	for i := int64(1); i <= 8; i++ {
		api.responses[fmt.Sprintf("/public/products/%d", i)] = product(i, float64(i), nil)
		cart = append(cart, state.CartItem{ProductID: fmt.Sprint(i), Quantity: 2})
	}
	api.responses["/public/products/3"] = product(3, 3, ptr(1))

	v, err := New(api, nil).View(context.Background(), cart)
	require.NoError(t, err)
	require.Len(t, v.Lines, 8)
	for i, l := range v.Lines {
		assert.Equal(t, cart[i].ProductID, l.Product.Key())
	}
	assert.Equal(t, 2.0, v.Lines[2].Subtotal)
	assert.Equal(t, 16, v.Count)
	// 2*(1+2+4+5+6+7+8) + 2*1
	assert.Equal(t, 68.0, v.Total)
	assert.LessOrEqual(t, int(api.peak.Load()), viewConcurrency)
}

func TestView_MissingProduct(t *testing.T) {
	obs.Discard()
	api := &fakeAPI{responses: map[string]string{"/public/products/1": product(1, 1, nil)}}
	_, err := New(api, nil).View(context.Background(), state.Cart{{ProductID: "1", Quantity: 1}, {ProductID: "99", Quantity: 1}})
	require.Error(t, err)
	assert.Equal(t, 404, apiclient.StatusOf(err))
	assert.Contains(t, err.Error(), "99")
}

func TestCheckout(t *testing.T) {
	obs.Discard()
	api := &fakeAPI{responses: map[string]string{
		"/public/orders": `{"success":true,"message":"Order placed successfully","data":{"id":41,"status":"PENDING","totalAmount":12.5,"orderItems":[{"productId":1,"quantity":2}]}}`,
	}}
	notes := &toasts{}
	cart := &memCart{items: state.Cart{{ProductID: "1", Quantity: 2}}}
	customer := Customer{Name: "Ann", Email: "ann@example.com", Phone: "555", Address: "1 Main St"}

	order, err := New(api, notes).Checkout(context.Background(), customer, cart)
	require.NoError(t, err)
	assert.EqualValues(t, 41, order.ID)
	assert.Equal(t, StatusPending, order.Status)
	assert.True(t, cart.cleared)
	assert.Equal(t, state.Cart{{ProductID: "1", Quantity: 2}}, cart.consumed)
	assert.Equal(t, []string{OrderPlacedMessage}, notes.got)

	body, err := json.Marshal(api.bodies[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"customerName":"Ann","customerEmail":"ann@example.com","customerPhone":"555","address":"1 Main St","cartItems":[{"productId":"1","quantity":2}]}`, string(body))
}

func TestCheckout_Rejected(t *testing.T) {
	obs.Discard()
	api := &fakeAPI{responses: map[string]string{}}
	cart := &memCart{items: state.Cart{{ProductID: "1", Quantity: 2}}}
	customer := Customer{Name: "Ann", Email: "ann@example.com", Phone: "555", Address: "1 Main St"}

	_, err := New(api, nil).Checkout(context.Background(), customer, cart)
	require.Error(t, err)
	assert.False(t, cart.cleared)

	_, err = New(api, nil).Checkout(context.Background(), Customer{Name: "Ann"}, cart)
	assert.ErrorIs(t, err, ErrMissingCustomer)

	_, err = New(api, nil).Checkout(context.Background(), customer, &memCart{})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Len(t, api.calls, 1)
}

func TestTrackOrders(t *testing.T) {
	obs.Discard()
	api := &fakeAPI{responses: map[string]string{
		"/public/orders/track?email=ann%40example.com": `{"success":true,"data":[{"id":2},{"id":1}]}`,
	}}
	orders, err := New(api, nil).TrackOrders(context.Background(), "ann@example.com")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.True(t, strings.HasPrefix(api.calls[0], "GET /public/orders/track"))
}
