package store

import (
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/example/craftshop/internal/readmodel"
	"github.com/sirupsen/logrus"
)

// PostgresReadStore implements ReadStoreInterface on PostgreSQL. Nested
// structures (cart lines, order items, images, status timestamps) live
// in JSONB columns; the fields the back office filters on get their own
// columns.
type PostgresReadStore struct {
	db  *sql.DB
	mu  sync.RWMutex
	log *logrus.Entry
}

func NewPostgresReadStore(db *sql.DB, log *logrus.Logger) *PostgresReadStore {
	return &PostgresReadStore{
		db:  db,
		log: log.WithField("component", "read_store"),
	}
}

// Set stores a read model
func (rs *PostgresReadStore) Set(collection, id string, data any) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	switch collection {
	case "products":
		return rs.setProduct(data.(*readmodel.ProductReadModel))
	case "carts":
		return rs.setCart(data.(*readmodel.CartReadModel))
	case "orders":
		return rs.setOrder(data.(*readmodel.OrderReadModel))
	case "inventory":
		return rs.setInventory(data.(*readmodel.InventoryReadModel))
	case "users":
		return rs.setUser(data.(*readmodel.UserReadModel))
	case "sessions":
		return rs.setSession(data.(*readmodel.SessionReadModel))
	}
	return nil
}

// Get retrieves a read model by id
func (rs *PostgresReadStore) Get(collection, id string) (any, bool, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.getUnsafe(collection, id)
}

func (rs *PostgresReadStore) getUnsafe(collection, id string) (any, bool, error) {
	switch collection {
	case "products":
		return rs.getProduct(id)
	case "carts":
		return rs.getCart(id)
	case "orders":
		return rs.getOrder(id)
	case "inventory":
		return rs.getInventory(id)
	case "users":
		return rs.getUser(id)
	case "sessions":
		return rs.getSession(id)
	}
	return nil, false, nil
}

// GetAll retrieves all items in a collection
func (rs *PostgresReadStore) GetAll(collection string) ([]any, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	switch collection {
	case "products":
		return rs.getAllProducts()
	case "carts":
		return rs.getAllCarts()
	case "orders":
		return rs.getAllOrders()
	case "inventory":
		return rs.getAllInventory()
	case "users":
		return rs.getAllUsers()
	case "sessions":
		return rs.getAllSessions()
	}
	return nil, nil
}

// Delete removes a read model
func (rs *PostgresReadStore) Delete(collection, id string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	var table, keyColumn string
	switch collection {
	case "products":
		table, keyColumn = "read_products", "id"
	case "carts":
		table, keyColumn = "read_carts", "id"
	case "orders":
		table, keyColumn = "read_orders", "id"
	case "inventory":
		table, keyColumn = "read_inventory", "product_id"
	case "users":
		table, keyColumn = "read_users", "id"
	case "sessions":
		table, keyColumn = "user_sessions", "id"
	default:
		return nil
	}

	_, err := rs.db.Exec("DELETE FROM "+table+" WHERE "+keyColumn+" = $1", id)
	if err != nil {
		rs.log.WithError(err).WithField("collection", collection).Warn("delete failed")
	}
	return err
}

// Update modifies a read model using an update function
func (rs *PostgresReadStore) Update(collection, id string, updateFn func(current any) any) (bool, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	current, found, err := rs.getUnsafe(collection, id)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	updated := updateFn(current)

	switch collection {
	case "products":
		err = rs.setProduct(updated.(*readmodel.ProductReadModel))
	case "carts":
		err = rs.setCart(updated.(*readmodel.CartReadModel))
	case "orders":
		err = rs.setOrder(updated.(*readmodel.OrderReadModel))
	case "inventory":
		err = rs.setInventory(updated.(*readmodel.InventoryReadModel))
	case "users":
		err = rs.setUser(updated.(*readmodel.UserReadModel))
	case "sessions":
		err = rs.setSession(updated.(*readmodel.SessionReadModel))
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Product operations

func (rs *PostgresReadStore) setProduct(p *readmodel.ProductReadModel) error {
	collectionsJSON, _ := json.Marshal(p.Collections)
	imagesJSON, _ := json.Marshal(p.Images)
	_, err := rs.db.Exec(`
		INSERT INTO read_products (id, name, slug, description, price, original_price, inventory,
			is_active, is_featured, category, collections, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			original_price = EXCLUDED.original_price,
			inventory = EXCLUDED.inventory,
			is_active = EXCLUDED.is_active,
			is_featured = EXCLUDED.is_featured,
			category = EXCLUDED.category,
			collections = EXCLUDED.collections,
			images = EXCLUDED.images,
			updated_at = EXCLUDED.updated_at
	`, p.ID, p.Name, p.Slug, p.Description, p.Price, p.OriginalPrice, p.Inventory,
		p.IsActive, p.IsFeatured, p.Category, collectionsJSON, imagesJSON, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		rs.log.WithError(err).Warn("set product failed")
	}
	return err
}

func (rs *PostgresReadStore) scanProduct(row interface{ Scan(...any) error }) (*readmodel.ProductReadModel, error) {
	var p readmodel.ProductReadModel
	var collectionsJSON, imagesJSON []byte
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.OriginalPrice,
		&p.Inventory, &p.IsActive, &p.IsFeatured, &p.Category, &collectionsJSON, &imagesJSON,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(collectionsJSON, &p.Collections)
	_ = json.Unmarshal(imagesJSON, &p.Images)
	return &p, nil
}

const productColumns = `id, name, slug, description, price, original_price, inventory,
	is_active, is_featured, category, collections, images, created_at, updated_at`

func (rs *PostgresReadStore) getProduct(id string) (any, bool, error) {
	p, err := rs.scanProduct(rs.db.QueryRow(
		`SELECT `+productColumns+` FROM read_products WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return p, true, nil
}

func (rs *PostgresReadStore) getAllProducts() ([]any, error) {
	rows, err := rs.db.Query(`SELECT ` + productColumns + ` FROM read_products ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []any
	for rows.Next() {
		p, err := rs.scanProduct(rows)
		if err != nil {
			rs.log.WithError(err).Warn("scan product failed")
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// Cart operations

func (rs *PostgresReadStore) setCart(c *readmodel.CartReadModel) error {
	itemsJSON, _ := json.Marshal(c.Items)
	_, err := rs.db.Exec(`
		INSERT INTO read_carts (id, user_id, session_id, items, total_items, total_amount, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			items = EXCLUDED.items,
			total_items = EXCLUDED.total_items,
			total_amount = EXCLUDED.total_amount,
			updated_at = EXCLUDED.updated_at
	`, c.ID, c.UserID, c.SessionID, itemsJSON, c.TotalItems, c.TotalAmount, time.Now())
	if err != nil {
		rs.log.WithError(err).Warn("set cart failed")
	}
	return err
}

func (rs *PostgresReadStore) getCart(id string) (any, bool, error) {
	var c readmodel.CartReadModel
	var itemsJSON []byte
	err := rs.db.QueryRow(`
		SELECT id, user_id, session_id, items, total_items, total_amount, updated_at
		FROM read_carts WHERE id = $1
	`, id).Scan(&c.ID, &c.UserID, &c.SessionID, &itemsJSON, &c.TotalItems, &c.TotalAmount, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	_ = json.Unmarshal(itemsJSON, &c.Items)
	return &c, true, nil
}

func (rs *PostgresReadStore) getAllCarts() ([]any, error) {
	rows, err := rs.db.Query(`
		SELECT id, user_id, session_id, items, total_items, total_amount, updated_at FROM read_carts
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var carts []any
	for rows.Next() {
		var c readmodel.CartReadModel
		var itemsJSON []byte
		if err := rows.Scan(&c.ID, &c.UserID, &c.SessionID, &itemsJSON, &c.TotalItems, &c.TotalAmount, &c.UpdatedAt); err != nil {
			rs.log.WithError(err).Warn("scan cart failed")
			continue
		}
		_ = json.Unmarshal(itemsJSON, &c.Items)
		carts = append(carts, &c)
	}
	return carts, nil
}

// Order operations

func (rs *PostgresReadStore) setOrder(o *readmodel.OrderReadModel) error {
	itemsJSON, _ := json.Marshal(o.Items)
	addressJSON, _ := json.Marshal(o.ShippingAddress)
	timestampsJSON, _ := json.Marshal(map[string]*time.Time{
		"confirmed_at":  o.ConfirmedAt,
		"processing_at": o.ProcessingAt,
		"shipped_at":    o.ShippedAt,
		"delivered_at":  o.DeliveredAt,
		"cancelled_at":  o.CancelledAt,
	})
	_, err := rs.db.Exec(`
		INSERT INTO read_orders (id, order_number, user_id, guest_email, customer_name, items,
			shipping_address, subtotal, shipping_cost, total_amount, payment_method, payment_status,
			status, notes, status_timestamps, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			items = EXCLUDED.items,
			shipping_address = EXCLUDED.shipping_address,
			subtotal = EXCLUDED.subtotal,
			shipping_cost = EXCLUDED.shipping_cost,
			total_amount = EXCLUDED.total_amount,
			payment_status = EXCLUDED.payment_status,
			status = EXCLUDED.status,
			notes = EXCLUDED.notes,
			status_timestamps = EXCLUDED.status_timestamps,
			updated_at = EXCLUDED.updated_at
	`, o.ID, o.OrderNumber, o.UserID, o.GuestEmail, o.CustomerName, itemsJSON,
		addressJSON, o.Subtotal, o.ShippingCost, o.TotalAmount, o.PaymentMethod, o.PaymentStatus,
		o.Status, o.Notes, timestampsJSON, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		rs.log.WithError(err).Warn("set order failed")
	}
	return err
}

const orderColumns = `id, order_number, user_id, guest_email, customer_name, items,
	shipping_address, subtotal, shipping_cost, total_amount, payment_method, payment_status,
	status, notes, status_timestamps, created_at, updated_at`

func (rs *PostgresReadStore) scanOrder(row interface{ Scan(...any) error }) (*readmodel.OrderReadModel, error) {
	var o readmodel.OrderReadModel
	var itemsJSON, addressJSON, timestampsJSON []byte
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.GuestEmail, &o.CustomerName, &itemsJSON,
		&addressJSON, &o.Subtotal, &o.ShippingCost, &o.TotalAmount, &o.PaymentMethod, &o.PaymentStatus,
		&o.Status, &o.Notes, &timestampsJSON, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(itemsJSON, &o.Items)
	_ = json.Unmarshal(addressJSON, &o.ShippingAddress)

	var timestamps map[string]*time.Time
	if json.Unmarshal(timestampsJSON, &timestamps) == nil {
		o.ConfirmedAt = timestamps["confirmed_at"]
		o.ProcessingAt = timestamps["processing_at"]
		o.ShippedAt = timestamps["shipped_at"]
		o.DeliveredAt = timestamps["delivered_at"]
		o.CancelledAt = timestamps["cancelled_at"]
	}
	return &o, nil
}

func (rs *PostgresReadStore) getOrder(id string) (any, bool, error) {
	o, err := rs.scanOrder(rs.db.QueryRow(
		`SELECT `+orderColumns+` FROM read_orders WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return o, true, nil
}

func (rs *PostgresReadStore) getAllOrders() ([]any, error) {
	rows, err := rs.db.Query(`SELECT ` + orderColumns + ` FROM read_orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []any
	for rows.Next() {
		o, err := rs.scanOrder(rows)
		if err != nil {
			rs.log.WithError(err).Warn("scan order failed")
			continue
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// Inventory operations

func (rs *PostgresReadStore) setInventory(inv *readmodel.InventoryReadModel) error {
	_, err := rs.db.Exec(`
		INSERT INTO read_inventory (product_id, total_stock, reserved_stock, available_stock, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_id) DO UPDATE SET
			total_stock = EXCLUDED.total_stock,
			reserved_stock = EXCLUDED.reserved_stock,
			available_stock = EXCLUDED.available_stock,
			updated_at = EXCLUDED.updated_at
	`, inv.ProductID, inv.TotalStock, inv.ReservedStock, inv.AvailableStock, time.Now())
	if err != nil {
		rs.log.WithError(err).Warn("set inventory failed")
	}
	return err
}

func (rs *PostgresReadStore) getInventory(id string) (any, bool, error) {
	var inv readmodel.InventoryReadModel
	err := rs.db.QueryRow(`
		SELECT product_id, total_stock, reserved_stock, available_stock
		FROM read_inventory WHERE product_id = $1
	`, id).Scan(&inv.ProductID, &inv.TotalStock, &inv.ReservedStock, &inv.AvailableStock)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &inv, true, nil
}

func (rs *PostgresReadStore) getAllInventory() ([]any, error) {
	rows, err := rs.db.Query(`
		SELECT product_id, total_stock, reserved_stock, available_stock FROM read_inventory
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var inventory []any
	for rows.Next() {
		var inv readmodel.InventoryReadModel
		if err := rows.Scan(&inv.ProductID, &inv.TotalStock, &inv.ReservedStock, &inv.AvailableStock); err != nil {
			rs.log.WithError(err).Warn("scan inventory failed")
			continue
		}
		inventory = append(inventory, &inv)
	}
	return inventory, nil
}

// User operations

func (rs *PostgresReadStore) setUser(u *readmodel.UserReadModel) error {
	_, err := rs.db.Exec(`
		INSERT INTO read_users (id, email, password_hash, name, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		rs.log.WithError(err).Warn("set user failed")
	}
	return err
}

func (rs *PostgresReadStore) getUser(id string) (any, bool, error) {
	var u readmodel.UserReadModel
	err := rs.db.QueryRow(`
		SELECT id, email, password_hash, name, role, is_active, created_at, updated_at
		FROM read_users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &u, true, nil
}

func (rs *PostgresReadStore) getAllUsers() ([]any, error) {
	rows, err := rs.db.Query(`
		SELECT id, email, password_hash, name, role, is_active, created_at, updated_at
		FROM read_users ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []any
	for rows.Next() {
		var u readmodel.UserReadModel
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			rs.log.WithError(err).Warn("scan user failed")
			continue
		}
		users = append(users, &u)
	}
	return users, nil
}

// Session operations

func (rs *PostgresReadStore) setSession(s *readmodel.SessionReadModel) error {
	_, err := rs.db.Exec(`
		INSERT INTO user_sessions (id, user_id, refresh_token_hash, expires_at, created_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			refresh_token_hash = EXCLUDED.refresh_token_hash,
			expires_at = EXCLUDED.expires_at
	`, s.ID, s.UserID, s.RefreshTokenHash, s.ExpiresAt, s.CreatedAt, s.IPAddress, s.UserAgent)
	if err != nil {
		rs.log.WithError(err).Warn("set session failed")
	}
	return err
}

func (rs *PostgresReadStore) getSession(id string) (any, bool, error) {
	var s readmodel.SessionReadModel
	err := rs.db.QueryRow(`
		SELECT id, user_id, refresh_token_hash, expires_at, created_at, ip_address, user_agent
		FROM user_sessions WHERE id = $1
	`, id).Scan(&s.ID, &s.UserID, &s.RefreshTokenHash, &s.ExpiresAt, &s.CreatedAt, &s.IPAddress, &s.UserAgent)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &s, true, nil
}

func (rs *PostgresReadStore) getAllSessions() ([]any, error) {
	rows, err := rs.db.Query(`
		SELECT id, user_id, refresh_token_hash, expires_at, created_at, ip_address, user_agent
		FROM user_sessions ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []any
	for rows.Next() {
		var s readmodel.SessionReadModel
		if err := rows.Scan(&s.ID, &s.UserID, &s.RefreshTokenHash, &s.ExpiresAt, &s.CreatedAt, &s.IPAddress, &s.UserAgent); err != nil {
			rs.log.WithError(err).Warn("scan session failed")
			continue
		}
		sessions = append(sessions, &s)
	}
	return sessions, nil
}

// DeleteExpiredSessions removes sessions past their expiry. Run it
// periodically; refresh rotation alone leaves abandoned rows behind.
func (rs *PostgresReadStore) DeleteExpiredSessions() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	_, err := rs.db.Exec(`DELETE FROM user_sessions WHERE expires_at < NOW()`)
	if err != nil {
		rs.log.WithError(err).Warn("delete expired sessions failed")
	}
	return err
}
