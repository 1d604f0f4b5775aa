package store

import (
	"context"
	"embed"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Migration files live in migration/{driver}/ and follow the
// golang-migrate naming scheme: {version}_{title}.{up|down}.sql.

//go:embed migration
var migrationFS embed.FS

const (
	modeDemo = "demo"
)

// Migrate brings the schema to the latest version and seeds demo data in demo mode.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.applyMigrations(); err != nil {
		return errors.Wrap(err, "failed to apply migrations")
	}

	if s.profile != nil && s.profile.Mode == modeDemo {
		if err := s.seed(ctx); err != nil {
			return errors.Wrap(err, "failed to seed")
		}
	}
	return nil
}

func (s *Store) applyMigrations() error {
	driverType := s.driver.Type()
	source, err := iofs.New(migrationFS, "migration/"+driverType)
	if err != nil {
		return errors.Wrapf(err, "failed to open migrations for %s", driverType)
	}

	var instance database.Driver
	switch driverType {
	case "sqlite":
		instance, err = sqlite.WithInstance(s.driver.GetDB(), &sqlite.Config{})
	case "postgres":
		instance, err = postgres.WithInstance(s.driver.GetDB(), &postgres.Config{})
	default:
		return errors.Errorf("unsupported driver for migration: %s", driverType)
	}
	if err != nil {
		return errors.Wrap(err, "failed to create migration driver")
	}

	// m.Close is not called: it would close the shared *sql.DB.
	m, err := migrate.NewWithInstance("iofs", source, driverType, instance)
	if err != nil {
		return errors.Wrap(err, "failed to create migrate instance")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "failed to run migrations")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return errors.Wrap(err, "failed to read schema version")
	}
	slog.Info("database schema is up to date", slog.String("driver", driverType), slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	return nil
}

// seed inserts a small ERP dataset when the customers table is empty.
func (s *Store) seed(ctx context.Context) error {
	count, err := s.CountCustomers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().Unix()
	customers := []*Customer{
		{Name: "Acme Corp", Email: "billing@acme.example", Phone: "+1-555-0100"},
		{Name: "Globex", Email: "ap@globex.example", Phone: "+1-555-0101"},
		{Name: "Initech", Email: "finance@initech.example", Phone: "+1-555-0102"},
	}
	for _, c := range customers {
		if _, err := s.CreateCustomer(ctx, c); err != nil {
			return err
		}
	}

	invoices := []*Invoice{
		{CustomerID: customers[0].ID, InvoiceNumber: "INV-1001", TotalAmount: decimal.NewFromInt(1200), Status: InvoiceStatusUnpaid},
		{CustomerID: customers[1].ID, InvoiceNumber: "INV-1002", TotalAmount: decimal.NewFromInt(4500), Status: InvoiceStatusPaid},
		{CustomerID: customers[2].ID, InvoiceNumber: "INV-1003", TotalAmount: decimal.NewFromInt(300), Status: InvoiceStatusCancelled},
	}
	for _, inv := range invoices {
		inv.IssueDate, inv.DueDate, inv.CreatedAt = now, now+30*24*3600, now
		if _, err := s.CreateInvoice(ctx, inv); err != nil {
			return err
		}
	}

	for i, qty := range []int64{120, 8, 40} {
		level := &StockLevel{
			ProductID:    int32(i + 1),
			QtyOnHand:    decimal.NewFromInt(qty),
			ReorderPoint: decimal.NewFromInt(10),
		}
		if _, err := s.UpsertStockLevel(ctx, level); err != nil {
			return err
		}
	}

	slog.Info("seeded demo data", slog.Int("customers", len(customers)), slog.Int("invoices", len(invoices)))
	return nil
}
