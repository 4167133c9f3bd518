package sqlite

// Schema holds the order tables plus the read-side catalog, address and
// cart tables owned by the neighbouring storefront modules.
const Schema = `
CREATE TABLE IF NOT EXISTS orders (
    id            TEXT    PRIMARY KEY,
    user_id       TEXT    NOT NULL,
    items         TEXT    NOT NULL,
    amount        INTEGER NOT NULL,
    address_id    TEXT    NOT NULL,
    payment_type  TEXT    NOT NULL,
    is_paid       INTEGER NOT NULL DEFAULT 0,
    created_at    TEXT    NOT NULL,
    updated_at    TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_orders_visibility ON orders(payment_type, is_paid, created_at);

CREATE TABLE IF NOT EXISTS products (
    id           TEXT    PRIMARY KEY,
    name         TEXT    NOT NULL,
    description  TEXT    NOT NULL DEFAULT '[]',
    category     TEXT    NOT NULL DEFAULT '',
    price        TEXT    NOT NULL,
    offer_price  TEXT    NOT NULL,
    images       TEXT    NOT NULL DEFAULT '[]',
    in_stock     INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS addresses (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL,
    first_name  TEXT NOT NULL DEFAULT '',
    last_name   TEXT NOT NULL DEFAULT '',
    email       TEXT NOT NULL DEFAULT '',
    street      TEXT NOT NULL DEFAULT '',
    city        TEXT NOT NULL DEFAULT '',
    state       TEXT NOT NULL DEFAULT '',
    zipcode     TEXT NOT NULL DEFAULT '',
    country     TEXT NOT NULL DEFAULT '',
    phone       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS users (
    id          TEXT PRIMARY KEY,
    cart_items  TEXT NOT NULL DEFAULT '{}'
);
`
