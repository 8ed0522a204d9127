// Package shop runs the fixed seed, query, update and delete sequence
// against a session.
package shop

import (
	"context"
	"fmt"

	"github.com/marshallshelly/pebble-shop/internal/models"
	"github.com/marshallshelly/pebble-shop/pkg/builder"
	"github.com/marshallshelly/pebble-shop/pkg/runtime"
	"github.com/marshallshelly/pebble-shop/pkg/session"
)

// DeleteCustomerID is the customer removed in the delete step.
const DeleteCustomerID int64 = 1

// Printer receives the human-readable report of a run.
type Printer interface {
	// Banner prints a top-level heading framed by rules.
	Banner(title string)
	// Section prints a numbered step heading.
	Section(title string)
	// Item prints one indented result line.
	Item(format string, args ...any)
	// Success prints a confirmation line.
	Success(format string, args ...any)
}

// Summary records what a run did.
type Summary struct {
	CustomerIDs        []int64
	ItemIDs            []int64
	PurchaseIDs        []int64
	OldPrice           int64
	NewPrice           int64
	Deleted            *models.Customer
	RemainingCustomers int64
	RemainingPurchases int64
	Unshipped          []models.Purchase
	PurchaseCounts     []CustomerCount
}

// CustomerCount is the number of purchases a customer has.
type CustomerCount struct {
	Customer string
	Count    int
}

// Run executes the sequence. It stops at the first error; the caller owns
// the session and closes it.
func Run(ctx context.Context, s *session.Session, p Printer) (*Summary, error) {
	sum := &Summary{}

	steps := []struct {
		name string
		fn   func(context.Context, *session.Session, Printer, *Summary) error
	}{
		{"create schema", createSchema},
		{"seed customers", seedCustomers},
		{"seed catalog items", seedCatalogItems},
		{"seed purchases", seedPurchases},
		{"list customers", listCustomers},
		{"list catalog items", listCatalogItems},
		{"list purchases", listPurchases},
		{"update price", updatePrice},
		{"delete customer", deleteCustomer},
		{"list unshipped purchases", listUnshipped},
		{"count purchases per customer", countPerCustomer},
	}

	for _, step := range steps {
		if err := step.fn(ctx, s, p, sum); err != nil {
			return sum, fmt.Errorf("%s: %w", step.name, err)
		}
	}

	p.Banner("Run complete")
	p.Item("Database: %s (%s)", s.DB().Target(), s.DB().Driver())
	return sum, nil
}

func createSchema(ctx context.Context, s *session.Session, p Printer, _ *Summary) error {
	p.Banner("Creating database tables...")
	if err := models.RegisterAll(); err != nil {
		return err
	}
	if err := s.InitializeSchema(ctx); err != nil {
		return err
	}
	p.Success("Tables created successfully!")
	return nil
}

func seedCustomers(ctx context.Context, s *session.Session, p Printer, sum *Summary) error {
	p.Banner("Inserting sample data...")

	customers := []*models.Customer{
		{Name: "Alice Johnson", Email: "alice@example.com"},
		{Name: "Bob Smith", Email: "bob@example.com"},
	}
	if err := session.AddAll(s, customers); err != nil {
		return err
	}
	if err := s.Commit(ctx); err != nil {
		return err
	}

	for _, c := range customers {
		sum.CustomerIDs = append(sum.CustomerIDs, c.ID)
	}
	p.Success("Added %d customers", len(customers))
	return nil
}

func seedCatalogItems(ctx context.Context, s *session.Session, p Printer, sum *Summary) error {
	items := []*models.CatalogItem{
		{Name: "Laptop", Price: 999},
		{Name: "Wireless Mouse", Price: 25},
		{Name: "USB-C Cable", Price: 15},
	}
	if err := session.AddAll(s, items); err != nil {
		return err
	}
	if err := s.Commit(ctx); err != nil {
		return err
	}

	for _, i := range items {
		sum.ItemIDs = append(sum.ItemIDs, i.ID)
	}
	p.Success("Added %d catalog items", len(items))
	return nil
}

func seedPurchases(ctx context.Context, s *session.Session, p Printer, sum *Summary) error {
	alice, bob := sum.CustomerIDs[0], sum.CustomerIDs[1]
	laptop, mouse, cable := sum.ItemIDs[0], sum.ItemIDs[1], sum.ItemIDs[2]

	purchases := []*models.Purchase{
		{CustomerID: alice, ItemID: laptop, Quantity: 1, Shipped: true},
		{CustomerID: alice, ItemID: mouse, Quantity: 2},
		{CustomerID: bob, ItemID: cable, Quantity: 3},
		{CustomerID: bob, ItemID: laptop, Quantity: 1, Shipped: true},
	}
	if err := session.AddAll(s, purchases); err != nil {
		return err
	}
	if err := s.Commit(ctx); err != nil {
		return err
	}

	for _, pu := range purchases {
		sum.PurchaseIDs = append(sum.PurchaseIDs, pu.ID)
	}
	p.Success("Added %d purchases", len(purchases))
	return nil
}

func listCustomers(ctx context.Context, s *session.Session, p Printer, _ *Summary) error {
	p.Banner("Running queries")
	p.Section("1. All Customers:")

	customers, err := session.QueryAll[models.Customer](ctx, s)
	if err != nil {
		return err
	}
	for _, c := range customers {
		p.Item("ID: %d, Name: %s, Email: %s", c.ID, c.Name, c.Email)
	}
	return nil
}

func listCatalogItems(ctx context.Context, s *session.Session, p Printer, _ *Summary) error {
	p.Section("2. All Catalog Items:")

	items, err := session.QueryAll[models.CatalogItem](ctx, s)
	if err != nil {
		return err
	}
	for _, i := range items {
		p.Item("%s - $%d", i.Name, i.Price)
	}
	return nil
}

func listPurchases(ctx context.Context, s *session.Session, p Printer, _ *Summary) error {
	p.Section("3. All Purchases:")

	purchases, err := session.QueryAll[models.Purchase](ctx, s, "Customer", "Item")
	if err != nil {
		return err
	}
	for _, pu := range purchases {
		p.Item("Purchase #%d: %s bought %d x %s (Shipped: %t)",
			pu.ID, customerName(pu), pu.Quantity, itemName(pu), pu.Shipped)
	}
	return nil
}

func updatePrice(ctx context.Context, s *session.Session, p Printer, sum *Summary) error {
	p.Section("4. Updating Catalog Item Price:")

	const name, newPrice = "Laptop", 899

	items, err := session.QueryFiltered[models.CatalogItem](ctx, s, builder.Col[models.CatalogItem]("Name"), name)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("catalog item %q: %w", name, runtime.ErrNotFound)
	}

	laptop := items[0]
	sum.OldPrice = laptop.Price
	laptop.Price = newPrice
	if err := s.Update(&laptop); err != nil {
		return err
	}
	if err := s.Commit(ctx); err != nil {
		return err
	}
	sum.NewPrice = laptop.Price

	p.Item("Updated '%s' price from $%d to $%d", laptop.Name, sum.OldPrice, sum.NewPrice)
	return nil
}

func deleteCustomer(ctx context.Context, s *session.Session, p Printer, sum *Summary) error {
	p.Section("5. Deleting Customer:")

	customer, err := session.Get[models.Customer](ctx, s, DeleteCustomerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return nil
	}

	p.Item("Deleting customer: %s (ID: %d)", customer.Name, customer.ID)
	if err := s.Delete(customer); err != nil {
		return err
	}
	if err := s.Commit(ctx); err != nil {
		return err
	}
	sum.Deleted = customer
	p.Success("Customer deleted successfully")

	if sum.RemainingCustomers, err = session.Count[models.Customer](ctx, s); err != nil {
		return err
	}
	if sum.RemainingPurchases, err = session.Count[models.Purchase](ctx, s); err != nil {
		return err
	}
	p.Item("Remaining customers: %d", sum.RemainingCustomers)
	return nil
}

func listUnshipped(ctx context.Context, s *session.Session, p Printer, sum *Summary) error {
	p.Banner("Bonus queries")
	p.Section("1. Purchases Not Yet Shipped:")

	unshipped, err := session.QueryFiltered[models.Purchase](ctx, s,
		builder.Col[models.Purchase]("Shipped"), false, "Customer", "Item")
	if err != nil {
		return err
	}
	sum.Unshipped = unshipped

	if len(unshipped) == 0 {
		p.Item("All purchases have been shipped!")
		return nil
	}
	for _, pu := range unshipped {
		p.Item("Purchase #%d: %s - %d x %s", pu.ID, customerName(pu), pu.Quantity, itemName(pu))
	}
	return nil
}

func countPerCustomer(ctx context.Context, s *session.Session, p Printer, sum *Summary) error {
	p.Section("2. Total Purchases Per Customer:")

	customers, err := session.QueryAll[models.Customer](ctx, s)
	if err != nil {
		return err
	}
	for i := range customers {
		purchases, err := PurchasesOf(ctx, s, &customers[i])
		if err != nil {
			return err
		}
		sum.PurchaseCounts = append(sum.PurchaseCounts, CustomerCount{Customer: customers[i].Name, Count: len(purchases)})
		p.Item("%s: %d purchase(s)", customers[i].Name, len(purchases))
	}
	return nil
}

func customerName(p models.Purchase) string {
	if p.Customer == nil {
		return fmt.Sprintf("<missing customer %d>", p.CustomerID)
	}
	return p.Customer.Name
}

func itemName(p models.Purchase) string {
	if p.Item == nil {
		return fmt.Sprintf("<missing item %d>", p.ItemID)
	}
	return p.Item.Name
}
