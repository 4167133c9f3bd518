package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront-orders/internal/cli"
	"github.com/jcmexdev/storefront-orders/internal/order-service/adapters/sqlite"
	"github.com/jcmexdev/storefront-orders/internal/order-service/domain"
	"github.com/jcmexdev/storefront-orders/internal/pkg/sqlitedb"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmdForTest()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func openRepo(t *testing.T, path string) *sqlite.Repository {
	t.Helper()
	db, err := sqlitedb.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo, err := sqlite.New(context.Background(), db)
	require.NoError(t, err)
	return repo
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "storefront dev")
}

func TestSeedCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "store.db")
	fixture := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(fixture, []byte(`{
		"products": [{"id": "p1", "name": "Apple", "price": 120, "offerPrice": "99.5", "inStock": true}],
		"addresses": [{"id": "a1", "userId": "u1", "city": "Singapore"}],
		"carts": {"u1": {"p1": 2}}
	}`), 0o644))

	out, err := run(t, "seed", fixture, "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "seeded 1 product(s), 1 address(es), 1 cart(s)\n", out)

	repo := openRepo(t, dbPath)
	p, err := repo.FindProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Apple", p.Name)
	assert.Equal(t, "99.5", p.OfferPrice.String())

	a, err := repo.FindAddress(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "u1", a.UserID)

	cart, err := repo.Cart(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"p1": 2}, cart)
}

func TestSeedCommand_MissingFile(t *testing.T) {
	_, err := run(t, "seed", filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorContains(t, err, "reading seed file")
}

func TestSweepCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "store.db")
	t.Setenv("DATABASE_PATH", dbPath)

	repo := openRepo(t, dbPath)
	ctx := context.Background()
	stale, err := repo.Create(ctx, &domain.Order{
		UserID: "u1", AddressID: "a1", PaymentType: domain.PaymentOnline,
		Items:     []domain.OrderItem{{ProductID: "p1", Quantity: 1}},
		CreatedAt: time.Now().Add(-72 * time.Hour),
	})
	require.NoError(t, err)
	fresh, err := repo.Create(ctx, &domain.Order{
		UserID: "u1", AddressID: "a1", PaymentType: domain.PaymentOnline,
		Items: []domain.OrderItem{{ProductID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)

	out, err := run(t, "sweep", "--grace", "48h")
	require.NoError(t, err)
	assert.Equal(t, "removed 1 stale pending order(s)\n", out)

	_, err = repo.FindByID(ctx, stale)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	_, err = repo.FindByID(ctx, fresh)
	assert.NoError(t, err)
}
