// Package retail builds the deterministic sample dataset that backs the
// embedded demo warehouse.
package retail

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

type ProductCategory struct {
	ID          int
	Name        string
	Description string
}

type Region struct {
	ID   int
	Name string
}

type Country struct {
	ID       int
	Name     string
	RegionID int
}

type Customer struct {
	ID        int
	FirstName string
	LastName  string
	Address   string
	City      string
	CountryID int
}

type Product struct {
	ID         int
	Name       string
	UnitPrice  float64
	CategoryID int
}

type OrderDetail struct {
	OrderID    int
	CustomerID int
	ProductID  int
	OrderDate  time.Time
	Quantity   int
}

type Dataset struct {
	Categories []ProductCategory
	Regions    []Region
	Countries  []Country
	Customers  []Customer
	Products   []Product
	Orders     []OrderDetail
}

type Generator struct {
	rnd           *rand.Rand
	customerCount int
	orderCount    int
}

func NewGenerator(seed int64, customerCount, orderCount int) *Generator {
	if customerCount < 1 {
		customerCount = 1
	}
	if orderCount < 0 {
		orderCount = 0
	}
	return &Generator{
		rnd:           rand.New(rand.NewSource(seed)),
		customerCount: customerCount,
		orderCount:    orderCount,
	}
}

// Default returns the dataset seeded into the demo warehouse. The fixed seed
// keeps results stable across restarts, so example questions always return
// the same answers.
func Default() Dataset {
	return NewGenerator(7, 60, 420).Dataset()
}

// orderEpoch anchors generated order dates so the dataset does not drift with
// the wall clock.
var orderEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func (g *Generator) Dataset() Dataset {
	ds := Dataset{
		Categories: []ProductCategory{
			{ID: 1, Name: "Beverages", Description: "Coffee, tea, and soft drinks"},
			{ID: 2, Name: "Produce", Description: "Fresh fruit and vegetables"},
			{ID: 3, Name: "Bakery", Description: "Bread and pastries"},
			{ID: 4, Name: "Dairy", Description: "Milk, cheese, and yogurt"},
			{ID: 5, Name: "Pantry", Description: "Dry goods and preserves"},
		},
		Regions: []Region{
			{ID: 1, Name: "Europe"},
			{ID: 2, Name: "North America"},
			{ID: 3, Name: "Asia"},
			{ID: 4, Name: "South America"},
		},
		Countries: []Country{
			{ID: 1, Name: "Spain", RegionID: 1},
			{ID: 2, Name: "France", RegionID: 1},
			{ID: 3, Name: "Germany", RegionID: 1},
			{ID: 4, Name: "United States", RegionID: 2},
			{ID: 5, Name: "Canada", RegionID: 2},
			{ID: 6, Name: "Japan", RegionID: 3},
			{ID: 7, Name: "India", RegionID: 3},
			{ID: 8, Name: "Brazil", RegionID: 4},
		},
	}

	firstNames := []string{"Ana", "Liam", "Sofia", "Noah", "Emma", "Hiro", "Priya", "Lucas", "Marie", "Diego", "Yuki", "Clara"}
	lastNames := []string{"Garcia", "Smith", "Muller", "Tanaka", "Patel", "Silva", "Dubois", "Rossi", "Kim", "Anders"}
	cities := map[int][]string{
		1: {"Madrid", "Barcelona", "Valencia"},
		2: {"Paris", "Lyon", "Nice"},
		3: {"Berlin", "Munich", "Hamburg"},
		4: {"New York", "Chicago", "Austin"},
		5: {"Toronto", "Vancouver", "Montreal"},
		6: {"Tokyo", "Osaka", "Kyoto"},
		7: {"Mumbai", "Delhi", "Bengaluru"},
		8: {"Sao Paulo", "Rio de Janeiro", "Curitiba"},
	}

	for i := 1; i <= g.customerCount; i++ {
		country := ds.Countries[g.rnd.Intn(len(ds.Countries))]
		ds.Customers = append(ds.Customers, Customer{
			ID:        i,
			FirstName: pickOne(g.rnd, firstNames),
			LastName:  pickOne(g.rnd, lastNames),
			Address:   fmt.Sprintf("%d Market Street", g.rnd.Intn(900)+10),
			City:      pickOne(g.rnd, cities[country.ID]),
			CountryID: country.ID,
		})
	}

	productNames := map[int][]string{
		1: {"Espresso Beans", "Green Tea", "Sparkling Water", "Cold Brew"},
		2: {"Avocados", "Strawberries", "Baby Spinach", "Tomatoes"},
		3: {"Sourdough Loaf", "Croissant", "Bagels", "Rye Bread"},
		4: {"Whole Milk", "Cheddar", "Greek Yogurt", "Butter"},
		5: {"Olive Oil", "Basmati Rice", "Canned Tomatoes", "Honey"},
	}
	productID := 0
	for _, category := range ds.Categories {
		for _, name := range productNames[category.ID] {
			productID++
			ds.Products = append(ds.Products, Product{
				ID:         productID,
				Name:       name,
				UnitPrice:  round2(1.5 + g.rnd.Float64()*28),
				CategoryID: category.ID,
			})
		}
	}

	for i := 1; i <= g.orderCount; i++ {
		customer := ds.Customers[g.rnd.Intn(len(ds.Customers))]
		product := ds.Products[g.rnd.Intn(len(ds.Products))]
		ds.Orders = append(ds.Orders, OrderDetail{
			OrderID:    i,
			CustomerID: customer.ID,
			ProductID:  product.ID,
			OrderDate:  orderEpoch.AddDate(0, 0, g.rnd.Intn(730)),
			Quantity:   g.rnd.Intn(12) + 1,
		})
	}

	return ds
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func pickOne(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}
