package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marshallshelly/pebble-shop/pkg/registry"
	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

func TestString(t *testing.T) {
	tests := []struct {
		name  string
		value interface{ String() string }
		want  string
	}{
		{
			name:  "customer",
			value: Customer{ID: 1, Name: "Alice Johnson", Email: "alice@example.com"},
			want:  "<Customer(id=1, name='Alice Johnson', email='alice@example.com')>",
		},
		{
			name:  "catalog item",
			value: CatalogItem{ID: 1, Name: "Laptop", Price: 999},
			want:  "<CatalogItem(id=1, name='Laptop', price=$999)>",
		},
		{
			name:  "purchase",
			value: Purchase{ID: 1, CustomerID: 1, ItemID: 1, Quantity: 1, Shipped: true},
			want:  "<Purchase(id=1, customer_id=1, item_id=1, quantity=1, shipped=true)>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.String())
		})
	}
}

func TestRegisterAll(t *testing.T) {
	require.NoError(t, RegisterAll())
	// Registering twice is harmless.
	require.NoError(t, RegisterAll())

	customers, err := registry.GetByName(CustomersTable)
	require.NoError(t, err)
	assert.Equal(t, "email", customers.GetColumnByField("Email").Name)
	assert.True(t, customers.GetColumnByName("email").Unique)
	assert.True(t, customers.GetColumnByName("id").AutoIncrement)
	assert.Equal(t, "name <> ''", customers.GetColumnByName("name").Check)

	purchases, err := registry.GetByName(PurchasesTable)
	require.NoError(t, err)

	customerFK := purchases.ForeignKeyFor("customer_id")
	require.NotNil(t, customerFK)
	assert.Equal(t, CustomersTable, customerFK.ReferencedTable)
	assert.Equal(t, schema.Cascade, customerFK.OnDelete)

	itemFK := purchases.ForeignKeyFor("item_id")
	require.NotNil(t, itemFK)
	assert.Equal(t, CatalogItemsTable, itemFK.ReferencedTable)
	assert.Equal(t, schema.NoAction, itemFK.OnDelete)

	shipped := purchases.GetColumnByName("shipped")
	require.NotNil(t, shipped)
	require.NotNil(t, shipped.Default)
	assert.Equal(t, "false", *shipped.Default)

	rel := purchases.GetRelationship("Customer")
	require.NotNil(t, rel)
	assert.Equal(t, schema.BelongsTo, rel.Type)
	assert.Equal(t, CustomersTable, rel.TargetTable)

	dependents := registry.Default().Dependents(CustomersTable)
	require.Len(t, dependents, 1)
	assert.Equal(t, PurchasesTable, dependents[0].Table.Name)
}
