package registry

import (
	"reflect"
	"testing"
)

type Shopper struct {
	ID    int64  `po:"id,primaryKey,autoIncrement"`
	Name  string `po:"name,text,notNull"`
	Email string `po:"email,text,unique,notNull"`
}

type Gadget struct {
	ID    int64  `po:"id,primaryKey,autoIncrement"`
	Label string `po:"label,text,notNull"`
}

type Basket struct {
	ID        int64 `po:"id,primaryKey,autoIncrement"`
	ShopperID int64 `po:"shopper_id,integer,notNull,fk(shopper.id),onDelete(cascade)"`
	GadgetID  int64 `po:"gadget_id,integer,notNull,fk(gadget.id)"`
}

func registered(r *Registry, model any) bool {
	_, err := r.Get(reflect.TypeOf(model))
	return err == nil
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()

	t.Run("register new model", func(t *testing.T) {
		err := registry.Register(Shopper{})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		if !registered(registry, Shopper{}) {
			t.Error("expected model to be registered")
		}
	})

	t.Run("register duplicate model", func(t *testing.T) {
		err := registry.Register(Shopper{})
		if err != nil {
			t.Fatalf("First register failed: %v", err)
		}

		err = registry.Register(Shopper{})
		if err != nil {
			t.Errorf("Duplicate register failed: %v", err)
		}
	})

	t.Run("register pointer model", func(t *testing.T) {
		err := registry.Register(&Shopper{})
		if err != nil {
			t.Fatalf("Register with pointer failed: %v", err)
		}

		if !registered(registry, Shopper{}) {
			t.Error("expected model to be registered")
		}
	})

	t.Run("register invalid type", func(t *testing.T) {
		err := registry.Register("not a struct")
		if err == nil {
			t.Error("expected error for non-struct type")
		}
	})
}

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistry()

	t.Run("get registered model", func(t *testing.T) {
		if err := registry.Register(Shopper{}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		table, err := registry.Get(reflect.TypeOf(Shopper{}))
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}

		if table.Name != "shopper" {
			t.Errorf("expected table name 'shopper', got '%s'", table.Name)
		}
	})

	t.Run("get unregistered model", func(t *testing.T) {
		_, err := registry.Get(reflect.TypeOf(Gadget{}))
		if err == nil {
			t.Error("expected error for unregistered model")
		}
	})

	t.Run("get with pointer type", func(t *testing.T) {
		if err := registry.Register(Shopper{}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		table, err := registry.Get(reflect.TypeOf(&Shopper{}))
		if err != nil {
			t.Fatalf("Get with pointer failed: %v", err)
		}

		if table.Name != "shopper" {
			t.Errorf("expected table name 'shopper', got '%s'", table.Name)
		}
	})
}

func TestRegistry_GetByName(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Shopper{}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	t.Run("get by existing name", func(t *testing.T) {
		table, err := registry.GetByName("shopper")
		if err != nil {
			t.Fatalf("GetByName failed: %v", err)
		}

		if table.Name != "shopper" {
			t.Errorf("expected table name 'shopper', got '%s'", table.Name)
		}
	})

	t.Run("get by non-existing name", func(t *testing.T) {
		_, err := registry.GetByName("nonexistent")
		if err == nil {
			t.Error("expected error for non-existent table")
		}
	})
}

func TestRegistry_GetOrRegister(t *testing.T) {
	registry := NewRegistry()

	t.Run("get or register unregistered model", func(t *testing.T) {
		table, err := registry.GetOrRegister(Shopper{})
		if err != nil {
			t.Fatalf("GetOrRegister failed: %v", err)
		}

		if table.Name != "shopper" {
			t.Errorf("expected table name 'shopper', got '%s'", table.Name)
		}

		if !registered(registry, Shopper{}) {
			t.Error("expected model to be registered")
		}
	})

	t.Run("get or register already registered model", func(t *testing.T) {
		if err := registry.Register(Gadget{}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		table1, _ := registry.GetOrRegister(Gadget{})
		table2, _ := registry.GetOrRegister(Gadget{})

		if table1 != table2 {
			t.Error("expected same table instance")
		}
	})
}

func TestRegistry_All(t *testing.T) {
	registry := NewRegistry()

	t.Run("empty registry", func(t *testing.T) {
		tables := registry.All()
		if len(tables) != 0 {
			t.Errorf("expected 0 tables, got %d", len(tables))
		}
	})

	t.Run("with registered models", func(t *testing.T) {
		if err := registry.Register(Shopper{}); err != nil {
			t.Fatalf("Register Shopper failed: %v", err)
		}
		if err := registry.Register(Gadget{}); err != nil {
			t.Fatalf("Register Gadget failed: %v", err)
		}

		tables := registry.All()
		if len(tables) != 2 {
			t.Errorf("expected 2 tables, got %d", len(tables))
		}
	})
}

func TestRegistry_AllOrder(t *testing.T) {
	registry := NewRegistry()
	for _, model := range []any{Gadget{}, Shopper{}, Basket{}} {
		if err := registry.Register(model); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	tables := registry.All()
	got := make([]string, len(tables))
	for i, table := range tables {
		got[i] = table.Name
	}

	want := []string{"gadget", "shopper", "basket"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected registration order %v, got %v", want, got)
	}
}

func TestRegistry_Dependents(t *testing.T) {
	registry := NewRegistry()
	for _, model := range []any{Shopper{}, Gadget{}, Basket{}} {
		if err := registry.Register(model); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	deps := registry.Dependents("shopper")
	if len(deps) != 1 {
		t.Fatalf("expected 1 dependent of shopper, got %d", len(deps))
	}
	if deps[0].Table.Name != "basket" || deps[0].ForeignKey.Columns[0] != "shopper_id" {
		t.Errorf("unexpected dependent %s(%v)", deps[0].Table.Name, deps[0].ForeignKey.Columns)
	}

	if got := registry.Dependents("basket"); len(got) != 0 {
		t.Errorf("expected no dependents of basket, got %d", len(got))
	}
}

func TestRegistry_TableNameConflict(t *testing.T) {
	type shopper struct {
		ID int64 `po:"id,primaryKey"`
	}

	registry := NewRegistry()
	if err := registry.Register(Shopper{}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := registry.Register(shopper{}); err == nil {
		t.Error("expected error when two types map to the same table")
	}
}

func TestRegistry_Clear(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Shopper{}); err != nil {
		t.Fatalf("Register Shopper failed: %v", err)
	}
	if err := registry.Register(Gadget{}); err != nil {
		t.Fatalf("Register Gadget failed: %v", err)
	}

	if len(registry.All()) != 2 {
		t.Fatal("expected 2 registered models")
	}

	registry.Clear()

	if len(registry.All()) != 0 {
		t.Error("expected 0 models after clear")
	}

	if registered(registry, Shopper{}) {
		t.Error("expected shopper model to be cleared")
	}
}

func TestGlobalRegistry(t *testing.T) {
	Clear()

	t.Run("global register", func(t *testing.T) {
		err := Register(Shopper{})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		table, err := Get(reflect.TypeOf(Shopper{}))
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}

		if table.Name != "shopper" {
			t.Errorf("expected table name 'shopper', got '%s'", table.Name)
		}
	})

	t.Run("global get by name", func(t *testing.T) {
		table, err := GetByName("shopper")
		if err != nil {
			t.Fatalf("GetByName failed: %v", err)
		}

		if table.Name != "shopper" {
			t.Errorf("expected table name 'shopper', got '%s'", table.Name)
		}
	})

	t.Run("global all", func(t *testing.T) {
		tables := All()
		if len(tables) == 0 {
			t.Error("expected at least one table")
		}
	})

	Clear()
}
