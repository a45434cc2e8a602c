package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sqlmend/sqlmend/internal/demo/retail"
)

// Identifiers are intentionally unquoted so the case-insensitive names line
// up with generated SQL on both DuckDB and PostgreSQL.
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS ProductCategory (
		ProductCategoryID INTEGER PRIMARY KEY,
		ProductCategory VARCHAR NOT NULL,
		ProductCategoryDescription VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS Region (
		RegionID INTEGER PRIMARY KEY,
		Region VARCHAR NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS Country (
		CountryID INTEGER PRIMARY KEY,
		Country VARCHAR NOT NULL,
		RegionID INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS Customer (
		CustomerID INTEGER PRIMARY KEY,
		FirstName VARCHAR NOT NULL,
		LastName VARCHAR NOT NULL,
		Address VARCHAR,
		City VARCHAR,
		CountryID INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS Product (
		ProductID INTEGER PRIMARY KEY,
		ProductName VARCHAR NOT NULL,
		ProductUnitPrice DOUBLE NOT NULL,
		ProductCategoryID INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS OrderDetail (
		OrderID INTEGER PRIMARY KEY,
		CustomerID INTEGER NOT NULL,
		ProductID INTEGER NOT NULL,
		OrderDate DATE NOT NULL,
		QuantityOrdered INTEGER NOT NULL
	)`,
}

// Seed creates the retail tables and loads the dataset. Reopening a
// persistent database is a no-op when rows are already present.
func Seed(ctx context.Context, db *sql.DB, ds retail.Dataset) error {
	for _, statement := range ddl {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	var customers int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM Customer`).Scan(&customers); err != nil {
		return fmt.Errorf("count customers: %w", err)
	}
	if customers > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range ds.Categories {
		if _, err := tx.ExecContext(ctx, `INSERT INTO ProductCategory VALUES (?, ?, ?)`, c.ID, c.Name, c.Description); err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
	}
	for _, r := range ds.Regions {
		if _, err := tx.ExecContext(ctx, `INSERT INTO Region VALUES (?, ?)`, r.ID, r.Name); err != nil {
			return fmt.Errorf("insert region: %w", err)
		}
	}
	for _, c := range ds.Countries {
		if _, err := tx.ExecContext(ctx, `INSERT INTO Country VALUES (?, ?, ?)`, c.ID, c.Name, c.RegionID); err != nil {
			return fmt.Errorf("insert country: %w", err)
		}
	}
	for _, c := range ds.Customers {
		if _, err := tx.ExecContext(ctx, `INSERT INTO Customer VALUES (?, ?, ?, ?, ?, ?)`, c.ID, c.FirstName, c.LastName, c.Address, c.City, c.CountryID); err != nil {
			return fmt.Errorf("insert customer: %w", err)
		}
	}
	for _, p := range ds.Products {
		if _, err := tx.ExecContext(ctx, `INSERT INTO Product VALUES (?, ?, ?, ?)`, p.ID, p.Name, p.UnitPrice, p.CategoryID); err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
	}
	for _, o := range ds.Orders {
		if _, err := tx.ExecContext(ctx, `INSERT INTO OrderDetail VALUES (?, ?, ?, ?, ?)`, o.OrderID, o.CustomerID, o.ProductID, o.OrderDate.Format("2006-01-02"), o.Quantity); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}
	return nil
}
