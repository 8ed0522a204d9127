// Package models declares the shop entities and their table mapping.
package models

import (
	"fmt"

	"github.com/marshallshelly/pebble-shop/pkg/registry"
	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

const (
	CustomersTable    = "customers"
	CatalogItemsTable = "catalog_items"
	PurchasesTable    = "purchases"
)

func init() {
	schema.RegisterTableName("Customer", CustomersTable)
	schema.RegisterTableName("CatalogItem", CatalogItemsTable)
	schema.RegisterTableName("Purchase", PurchasesTable)
}

// Customer owns purchases. Deleting a customer deletes its purchases.
type Customer struct {
	ID        int64      `po:"id,primaryKey,autoIncrement"`
	Name      string     `po:"name,text,notNull,check(name <> '')"`
	Email     string     `po:"email,text,unique,notNull"`
	Purchases []Purchase `po:"-,hasMany,foreignKey(customer_id),references(id)"`
}

func (c Customer) String() string {
	return fmt.Sprintf("<Customer(id=%d, name='%s', email='%s')>", c.ID, c.Name, c.Email)
}

// CatalogItem is something that can be purchased. Deleting an item leaves
// its purchases in place.
type CatalogItem struct {
	ID        int64      `po:"id,primaryKey,autoIncrement"`
	Name      string     `po:"name,text,notNull"`
	Price     int64      `po:"price,integer,notNull"`
	Purchases []Purchase `po:"-,hasMany,foreignKey(item_id),references(id)"`
}

func (i CatalogItem) String() string {
	return fmt.Sprintf("<CatalogItem(id=%d, name='%s', price=$%d)>", i.ID, i.Name, i.Price)
}

// Purchase records a quantity of one item bought by one customer.
type Purchase struct {
	ID         int64        `po:"id,primaryKey,autoIncrement"`
	CustomerID int64        `po:"customer_id,integer,notNull,fk(customers.id),onDelete(cascade)"`
	ItemID     int64        `po:"item_id,integer,notNull,fk(catalog_items.id)"`
	Quantity   int64        `po:"quantity,integer,notNull"`
	Shipped    bool         `po:"shipped,boolean,notNull,default(false)"`
	Customer   *Customer    `po:"-,belongsTo,foreignKey(customer_id),references(id)"`
	Item       *CatalogItem `po:"-,belongsTo,foreignKey(item_id),references(id)"`
}

func (p Purchase) String() string {
	return fmt.Sprintf("<Purchase(id=%d, customer_id=%d, item_id=%d, quantity=%d, shipped=%t)>",
		p.ID, p.CustomerID, p.ItemID, p.Quantity, p.Shipped)
}

// RegisterAll registers the entities with the default registry, parents
// before children.
func RegisterAll() error {
	for _, model := range []any{Customer{}, CatalogItem{}, Purchase{}} {
		if err := registry.Register(model); err != nil {
			return fmt.Errorf("register %T: %w", model, err)
		}
	}
	return nil
}
