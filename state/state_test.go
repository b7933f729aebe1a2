package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

type recordingObserver struct {
	calls []Cart
}

func (r *recordingObserver) CartChanged(_ context.Context, c Cart) {
	r.calls = append(r.calls, c)
}

func TestState_EmptyDefaults(t *testing.T) {
	ctx := context.Background()
	st := New(NewMemoryStore())

	tok, err := st.Token(ctx)
	if err != nil || tok != "" {
		t.Fatalf("expected empty token, got %q err=%v", tok, err)
	}
	u, err := st.CurrentUser(ctx)
	if err != nil || !u.IsZero() {
		t.Fatalf("expected zero profile, got %+v err=%v", u, err)
	}
	c, err := st.Cart(ctx)
	if err != nil {
		t.Fatalf("cart: %v", err)
	}
	if c == nil || len(c) != 0 {
		t.Fatalf("expected empty non-nil cart, got %#v", c)
	}
}

func TestState_SaveCartRoundTrip(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	st := New(NewMemoryStore(), obs)

	want := Cart{{ProductID: "p1", Quantity: 2}, {ProductID: "p9", Quantity: 1}}
	if err := st.SaveCart(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := st.Cart(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
	if len(obs.calls) != 1 || obs.calls[0].TotalQuantity() != 3 {
		t.Fatalf("expected one notification with total 3, got %+v", obs.calls)
	}
}

func TestState_SaveCartRejectsInvalidCart(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	st := New(NewMemoryStore(), obs)
	if err := st.SaveCart(ctx, Cart{{ProductID: "p1", Quantity: 2}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	for name, c := range map[string]Cart{
		"zero quantity":     {{ProductID: "p1", Quantity: 0}},
		"negative quantity": {{ProductID: "p1", Quantity: -1}},
		"empty id":          {{ProductID: "", Quantity: 1}},
		"duplicate":         {{ProductID: "p1", Quantity: 1}, {ProductID: "p1", Quantity: 1}},
	} {
		if err := st.SaveCart(ctx, c); !errors.Is(err, ErrInvalidCart) {
			t.Fatalf("%s: expected ErrInvalidCart, got %v", name, err)
		}
	}

	got, err := st.Cart(ctx)
	if err != nil {
		t.Fatalf("cart after rejected saves: %v", err)
	}
	if !reflect.DeepEqual(got, Cart{{ProductID: "p1", Quantity: 2}}) {
		t.Fatalf("rejected save changed the cart: %+v", got)
	}
	if len(obs.calls) != 1 {
		t.Fatalf("rejected saves must not notify, got %d notifications", len(obs.calls))
	}
}

func TestState_ClearCartNotifiesEmpty(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	store := NewMemoryStore()
	st := New(store)
	st.Observe(obs)

	if err := st.SaveCart(ctx, Cart{{ProductID: "p1", Quantity: 4}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.ClearCart(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := store.Get(ctx, KeyCart); ok {
		t.Fatal("cart key should be removed")
	}
	c, _ := st.Cart(ctx)
	if len(c) != 0 {
		t.Fatalf("expected empty cart, got %+v", c)
	}
	if last := obs.calls[len(obs.calls)-1]; last.TotalQuantity() != 0 {
		t.Fatalf("expected empty notification, got %+v", last)
	}
}

func TestState_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	st := New(NewMemoryStore())
	user := UserProfile{UserType: "ADMIN", UserID: "7", Name: "Ana", Email: "ana@example.com"}

	if err := st.SetSession(ctx, "tok-1", user); err != nil {
		t.Fatalf("set session: %v", err)
	}
	tok, _ := st.Token(ctx)
	got, err := st.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if tok != "tok-1" || got.UserType != "ADMIN" || got.UserID != "7" || got.Email != user.Email {
		t.Fatalf("unexpected session: tok=%q user=%+v", tok, got)
	}

	if err := st.ClearSession(ctx); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	tok, _ = st.Token(ctx)
	got, _ = st.CurrentUser(ctx)
	if tok != "" || !got.IsZero() {
		t.Fatalf("expected anonymous, got tok=%q user=%+v", tok, got)
	}
}

func TestState_UserProfileKeepsUnknownFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Set(ctx, KeyUser, `{"userType":"STUDENT","userId":42,"name":"Bo","avatar":"a.png"}`)
	st := New(store)

	u, err := st.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if u.UserType != "STUDENT" || u.UserID != "42" {
		t.Fatalf("unexpected profile: %+v", u)
	}
	if string(u.Extra["avatar"]) != `"a.png"` {
		t.Fatalf("expected avatar to survive, got %q", u.Extra["avatar"])
	}
	if err := st.SetSession(ctx, "t", u); err != nil {
		t.Fatalf("set: %v", err)
	}
	again, _ := st.CurrentUser(ctx)
	if string(again.Extra["avatar"]) != `"a.png"` {
		t.Fatalf("avatar lost on rewrite: %+v", again)
	}
}

func TestState_MalformedValues(t *testing.T) {
	cases := []struct {
		name string
		key  string
		raw  string
	}{
		{"cart not json", KeyCart, `[{`},
		{"cart not array", KeyCart, `{"productId":"p1"}`},
		{"cart zero quantity", KeyCart, `[{"productId":"p1","quantity":0}]`},
		{"cart fractional quantity", KeyCart, `[{"productId":"p1","quantity":1.5}]`},
		{"cart missing id", KeyCart, `[{"quantity":1}]`},
		{"cart duplicate", KeyCart, `[{"productId":"p1","quantity":1},{"productId":"p1","quantity":2}]`},
		{"user not object", KeyUser, `["ADMIN"]`},
		{"user wrong role type", KeyUser, `{"userType":3}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			store := NewMemoryStore()
			_ = store.Set(ctx, tc.key, tc.raw)
			st := New(store)
			var err error
			if tc.key == KeyCart {
				_, err = st.Cart(ctx)
			} else {
				_, err = st.CurrentUser(ctx)
			}
			if !errors.Is(err, ErrMalformedState) {
				t.Fatalf("expected ErrMalformedState, got %v", err)
			}
		})
	}
}

func TestState_NumericProductIDNormalised(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Set(ctx, KeyCart, `[{"productId":12,"quantity":3}]`)
	c, err := New(store).Cart(ctx)
	if err != nil {
		t.Fatalf("cart: %v", err)
	}
	if len(c) != 1 || c[0].ProductID != "12" || c[0].Quantity != 3 {
		t.Fatalf("unexpected cart: %+v", c)
	}
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	first := New(NewFileStore(path))
	if err := first.SetSession(ctx, "tok", UserProfile{UserType: "STUDENT"}); err != nil {
		t.Fatalf("set session: %v", err)
	}
	if err := first.SaveCart(ctx, Cart{{ProductID: "a", Quantity: 2}}); err != nil {
		t.Fatalf("save cart: %v", err)
	}

	second := New(NewFileStore(path))
	tok, _ := second.Token(ctx)
	c, err := second.Cart(ctx)
	if err != nil {
		t.Fatalf("cart: %v", err)
	}
	if tok != "tok" || c.TotalQuantity() != 2 {
		t.Fatalf("state not persisted: tok=%q cart=%+v", tok, c)
	}

	if err := second.ClearCart(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	c, _ = New(NewFileStore(path)).Cart(ctx)
	if len(c) != 0 {
		t.Fatalf("expected cleared cart, got %+v", c)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := NewFileStore(path).Get(ctx, KeyToken); !errors.Is(err, ErrMalformedState) {
		t.Fatalf("expected ErrMalformedState, got %v", err)
	}
}
