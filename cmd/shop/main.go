// Command shop is a terminal storefront client. It keeps its session and cart
// between invocations in the configured state store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"shopfront/apiclient"
	"shopfront/catalog"
	"shopfront/config"
	"shopfront/obs"
	"shopfront/shop"
	"shopfront/ui"
)

const usage = `usage: shop <command> [args]

commands:
  login <email> <password>     sign in
  logout                       sign out and revoke the token
  whoami                       show the signed-in user
  guard <role>                 exit 0 when signed in with role, 2 otherwise
  validate                     ask the backend whether the token is valid
  profile                      show the student profile held by the backend
  products [flags]             list products (-category, -student, -on-sale, -new, -best-seller)
  categories                   list categories
  product <id>                 show one product
  cart show|add|remove|set|clear
  checkout [flags]             place an order (-name, -email, -phone, -address)
  orders <email>               list orders placed with email
`

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitUsage    = 2
	exitRedirect = 2
)

var errUsage = errors.New("usage")

func main() {
	cfg := config.Load()
	obs.InitLogger(os.Stderr, cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, cfg, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type cli struct {
	app *shop.Context
	out io.Writer
}

func run(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}

	store, release, err := shop.OpenStore(ctx, cfg)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	defer release()

	c := &cli{
		app: shop.New(shop.Options{
			BaseURL:      cfg.APIURL,
			Store:        store,
			Root:         ui.NewConsole(stdout),
			HTTPClient:   &http.Client{Timeout: cfg.HTTPTimeout},
			ToastDisplay: cfg.ToastDisplay,
			ToastExit:    cfg.ToastExit,
		}),
		out: stdout,
	}
	if err := c.app.Load(ctx); err != nil {
		obs.Logger.Warn("badge_load_failed", "error", err)
	}

	code, err := c.dispatch(ctx, args[0], args[1:])
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprint(stderr, usage)
		return exitUsage
	case errors.Is(err, apiclient.ErrSessionExpired):
		// the console already showed the alert and the redirect
		return exitError
	case err != nil:
		obs.Logger.Debug("command_failed", "command", args[0], "error", err)
		fmt.Fprintln(stderr, "error:", apiclient.Failure(err).Message)
		return exitError
	}
	return code
}

func (c *cli) dispatch(ctx context.Context, cmd string, args []string) (int, error) {
	switch cmd {
	case "login":
		return exitOK, c.login(ctx, args)
	case "logout":
		return exitOK, c.app.Session.Logout(ctx)
	case "whoami":
		return exitOK, c.whoami(ctx)
	case "guard":
		return c.guard(ctx, args)
	case "validate":
		return exitOK, c.validate(ctx)
	case "profile":
		return exitOK, c.profile(ctx)
	case "products":
		return exitOK, c.products(ctx, args)
	case "categories":
		return exitOK, c.categories(ctx)
	case "product":
		return exitOK, c.product(ctx, args)
	case "cart":
		return exitOK, c.cart(ctx, args)
	case "checkout":
		return exitOK, c.checkout(ctx, args)
	case "orders":
		return exitOK, c.orders(ctx, args)
	default:
		return exitUsage, errUsage
	}
}

func (c *cli) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	user, err := c.app.Session.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "signed in as %s <%s> (%s)\n", user.Name, user.Email, user.UserType)
	return nil
}

func (c *cli) whoami(ctx context.Context) error {
	user, err := c.app.State.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user.IsZero() {
		fmt.Fprintln(c.out, "not signed in")
		return nil
	}
	fmt.Fprintf(c.out, "%s <%s> %s id=%s\n", user.Name, user.Email, user.UserType, user.UserID)
	if info, err := c.app.Session.TokenInfo(ctx); err == nil && !info.ExpiresAt.IsZero() {
		fmt.Fprintf(c.out, "token expires %s\n", info.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func (c *cli) guard(ctx context.Context, args []string) (int, error) {
	if len(args) != 1 {
		return exitUsage, errUsage
	}
	redirected, err := c.app.Session.CheckRedirect(ctx, strings.ToUpper(args[0]))
	if redirected {
		return exitRedirect, err
	}
	fmt.Fprintln(c.out, "ok")
	return exitOK, err
}

func (c *cli) validate(ctx context.Context) error {
	ok, err := c.app.Session.Validate(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, "valid:", ok)
	return nil
}

type studentProfile struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	UserType string `json:"userType"`
}

func (c *cli) profile(ctx context.Context) error {
	raw, err := c.app.API.Get(ctx, "/student/profile")
	if err != nil {
		return err
	}
	p, err := apiclient.Decode[studentProfile](raw)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "#%d %s <%s> %s\n", p.ID, p.Name, p.Email, p.UserType)
	return nil
}

func (c *cli) products(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var f catalog.Filter
	fs.StringVar(&f.Category, "category", "", "category substring")
	fs.Int64Var(&f.StudentID, "student", 0, "seller id")
	fs.BoolVar(&f.OnSale, "on-sale", false, "only products on sale")
	fs.BoolVar(&f.NewProducts, "new", false, "only products from the last week")
	fs.BoolVar(&f.BestSeller, "best-seller", false, "only best sellers")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	ps, err := c.app.Catalog.List(ctx, f)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK\tCATEGORY")
	for _, p := range ps {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", p.ID, p.Name, price(p), p.Quantity, p.Category)
	}
	return tw.Flush()
}

func (c *cli) categories(ctx context.Context) error {
	cats, err := c.app.Catalog.Categories(ctx)
	if err != nil {
		return err
	}
	for _, cat := range cats {
		fmt.Fprintln(c.out, cat)
	}
	return nil
}

func (c *cli) product(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	p, err := c.app.Catalog.Get(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s (#%d)\n%s\nprice: %s\nstock: %d\ncategory: %s\n", p.Name, p.ID, p.Description, price(p), p.Quantity, p.Category)
	return nil
}

func (c *cli) cart(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	sub, rest := args[0], args[1:]
	switch {
	case sub == "show" && len(rest) == 0:
		return c.showCart(ctx)
	case sub == "add" && (len(rest) == 1 || len(rest) == 2):
		qty := 1
		if len(rest) == 2 {
			n, err := strconv.Atoi(rest[1])
			if err != nil {
				return errUsage
			}
			qty = n
		}
		return c.app.Cart.Add(ctx, rest[0], qty)
	case sub == "remove" && len(rest) == 1:
		return c.app.Cart.Remove(ctx, rest[0])
	case sub == "set" && len(rest) == 2:
		n, err := strconv.Atoi(rest[1])
		if err != nil {
			return errUsage
		}
		return c.app.Cart.UpdateQuantity(ctx, rest[0], n)
	case sub == "clear" && len(rest) == 0:
		return c.app.Cart.Clear(ctx)
	default:
		return errUsage
	}
}

func (c *cli) showCart(ctx context.Context) error {
	items, err := c.app.Cart.Items(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(c.out, "cart is empty")
		return nil
	}
	view, err := c.app.Catalog.View(ctx, items)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, l := range view.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%.2f\n", l.Item.ProductID, l.Product.Name, l.Item.Quantity, price(l.Product), l.Subtotal)
	}
	fmt.Fprintf(tw, "\t\t%d\t\t%.2f\n", view.Count, view.Total)
	return tw.Flush()
}

func (c *cli) checkout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var cust catalog.Customer
	fs.StringVar(&cust.Name, "name", "", "customer name")
	fs.StringVar(&cust.Email, "email", "", "customer email")
	fs.StringVar(&cust.Phone, "phone", "", "customer phone")
	fs.StringVar(&cust.Address, "address", "", "delivery address")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if cust.Name == "" || cust.Email == "" {
		if user, err := c.app.State.CurrentUser(ctx); err == nil {
			cust.Name = firstNonEmpty(cust.Name, user.Name)
			cust.Email = firstNonEmpty(cust.Email, user.Email)
		}
	}

	o, err := c.app.Catalog.Checkout(ctx, cust, c.app.Cart)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "order #%d %s total %.2f\n", o.ID, o.Status, o.TotalAmount)
	return nil
}

func (c *cli) orders(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	orders, err := c.app.Catalog.TrackOrders(ctx, args[0])
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Fprintln(c.out, "no orders")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tSTATUS\tITEMS\tTOTAL\tPLACED")
	for _, o := range orders {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.2f\t%s\n", o.ID, o.Status, len(o.Items), o.TotalAmount, o.CreatedAt)
	}
	return tw.Flush()
}

func price(p catalog.Product) string {
	if p.OnSale && p.SalePrice != nil {
		return fmt.Sprintf("%.2f (was %.2f)", *p.SalePrice, p.Price)
	}
	return fmt.Sprintf("%.2f", p.Price)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
