package database

// Session queries
const (
	upsertSessionSQL = `
		INSERT INTO table_sessions (id, table_id, delivery_fee, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (table_id) DO UPDATE SET
			delivery_fee = EXCLUDED.delivery_fee,
			updated_at = NOW()`

	deleteSessionItemsSQL = `DELETE FROM session_items WHERE session_id = $1`

	insertSessionItemSQL = `
		INSERT INTO session_items (id, session_id, menu_item_id, name, station, unit_price, quantity, customizations, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	getSessionSQL = `
		SELECT id, table_id, delivery_fee, created_at, updated_at
		FROM table_sessions WHERE table_id = $1`

	getSessionItemsSQL = `
		SELECT id, menu_item_id, name, station, unit_price, quantity, customizations
		FROM session_items WHERE session_id = $1
		ORDER BY position ASC`

	deleteSessionSQL = `DELETE FROM table_sessions WHERE table_id = $1`
)

// Order queries
const (
	insertOrderSQL = `
		INSERT INTO orders (id, number, table_id, member_id, total_amount, delivery_fee, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	insertOrderItemSQL = `
		INSERT INTO order_items (id, order_id, menu_item_id, name, station, unit_price, quantity, customizations, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	insertOrderStatusLogSQL = `
		INSERT INTO order_status_log (order_id, status, changed_by, notes)
		VALUES ($1, $2, $3, $4)`

	// Compare-and-swap on status: the update only lands when the order is
	// still in the expected previous status, which is what serializes
	// concurrent transitions across processes.
	updateOrderStatusSQL = `
		UPDATE orders
		SET status = $3, cancel_reason = COALESCE($4, cancel_reason), updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING updated_at`

	getOrderSQL = `
		SELECT id, number, table_id, member_id, total_amount, delivery_fee,
		       status, cancel_reason, created_at, updated_at
		FROM orders WHERE id = $1`

	getOrderItemsSQL = `
		SELECT id, order_id, menu_item_id, name, station, unit_price, quantity, customizations
		FROM order_items WHERE order_id = $1
		ORDER BY position ASC`

	listOpenOrdersSQL = `
		SELECT id, number, table_id, member_id, total_amount, delivery_fee,
		       status, cancel_reason, created_at, updated_at
		FROM orders
		WHERE status IN ('pending', 'preparing', 'ready')
		ORDER BY created_at ASC`

	getOrderHistorySQL = `
		SELECT status, changed_by, changed_at, notes
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC`

	nextOrderSequenceSQL = `
		SELECT COALESCE(MAX(CAST(SUBSTRING(number FROM 'ORD_[0-9]{8}_([0-9]{3})') AS INTEGER)), 0) + 1
		FROM orders
		WHERE number LIKE $1`
)
