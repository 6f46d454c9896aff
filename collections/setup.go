package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// Setup programmatically creates/ensures the contacts and quotes
// collections exist. A quote's working catalog and template
// configurations are JSON documents on the quote record itself; the
// engine treats them as opaque fields of a document store.
func Setup(app *pocketbase.PocketBase) {
	contacts := ensureCollection(app, "contacts", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "company", Required: false})
		c.Fields.Add(&core.TextField{Name: "phone", Required: false})
		c.Fields.Add(&core.EmailField{Name: "email", Required: false})
		c.Fields.Add(&core.TextField{Name: "address", Required: false})
		c.Fields.Add(&core.TextField{Name: "notes", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "quotes", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "contact",
			Required:      false,
			CollectionId:  contacts.Id,
			CascadeDelete: false,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "quote_number", Required: false})
		c.Fields.Add(&core.TextField{Name: "customer_name", Required: false})
		c.Fields.Add(&core.TextField{Name: "address", Required: false})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"draft", "sent", "accepted", "declined"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.JSONField{Name: "items", MaxSize: 2 << 20})
		c.Fields.Add(&core.JSONField{Name: "template_configs", MaxSize: 1 << 20})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
