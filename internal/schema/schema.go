// Package schema holds the static description of the warehouse schema and the
// dialect rules that accompany every generation request.
package schema

import (
	"fmt"
	"strings"
)

type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// Group is a labeled section of tables, rendered under its own heading.
type Group struct {
	Label  string  `json:"label"`
	Tables []Table `json:"tables"`
}

// Provider renders a fixed set of tables, notes and dialect rules into the
// flat context string supplied verbatim to every generation request. The
// rendering happens once at construction; Context and DialectRules are pure
// accessors after that.
type Provider struct {
	groups    []Group
	context   string
	rulesText string
}

func NewProvider(groups []Group, notes []string, rules []string) *Provider {
	p := &Provider{groups: groups}
	p.rulesText = renderRules(rules)
	p.context = renderContext(groups, notes, p.rulesText)
	return p
}

func (p *Provider) Context() string {
	return p.context
}

func (p *Provider) DialectRules() string {
	return p.rulesText
}

func (p *Provider) Groups() []Group {
	return p.groups
}

// Retail returns the provider for the fixed retail warehouse this service
// answers questions about.
func Retail() *Provider {
	groups := []Group{
		{
			Label: "LOOKUP TABLES",
			Tables: []Table{
				{Name: "ProductCategory", Columns: []string{"ProductCategoryID", "ProductCategory", "ProductCategoryDescription"}},
			},
		},
		{
			Label: "CORE TABLES",
			Tables: []Table{
				{Name: "Region", Columns: []string{"RegionID", "Region"}},
				{Name: "Country", Columns: []string{"CountryID", "Country", "RegionID"}},
				{Name: "Customer", Columns: []string{"CustomerID", "FirstName", "LastName", "Address", "City", "CountryID"}},
				{Name: "Product", Columns: []string{"ProductID", "ProductName", "ProductUnitPrice", "ProductCategoryID"}},
				{Name: "OrderDetail", Columns: []string{"OrderID", "CustomerID", "ProductID", "OrderDate", "QuantityOrdered"}},
			},
		},
	}
	notes := []string{
		"OrderDate is DATE type",
		"QuantityOrdered is INTEGER",
	}
	rules := []string{
		"Generate ONLY the SQL query.",
		"Use proper JOINs to get descriptive names.",
		"Use SUM, AVG, COUNT when appropriate.",
		"Use LIMIT 100 for queries returning many rows.",
		"Format date columns correctly.",
		"Add helpful column aliases using AS.",
		"For string concatenation (like names), use the PostgreSQL operator || (e.g., FirstName || ' ' || LastName).",
		"When using ROUND(), always explicitly cast the expression to NUMERIC using ::NUMERIC to avoid type errors. Example: ROUND((Price * Quantity)::NUMERIC, 2).",
	}
	return NewProvider(groups, notes, rules)
}

func renderContext(groups []Group, notes []string, rulesText string) string {
	var b strings.Builder
	b.WriteString("Database Schema:\n")
	for _, group := range groups {
		b.WriteString("\n")
		b.WriteString(group.Label)
		b.WriteString(":\n")
		for _, table := range group.Tables {
			fmt.Fprintf(&b, "- %s(%s)\n", table.Name, strings.Join(table.Columns, ", "))
		}
	}
	if len(notes) > 0 {
		b.WriteString("\nIMPORTANT NOTES:\n")
		for _, note := range notes {
			b.WriteString("- ")
			b.WriteString(note)
			b.WriteString("\n")
		}
	}
	if rulesText != "" {
		b.WriteString("\n")
		b.WriteString(rulesText)
	}
	return b.String()
}

func renderRules(rules []string) string {
	if len(rules) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Requirements for PostgreSQL Queries:\n")
	for i, rule := range rules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rule)
	}
	return b.String()
}
