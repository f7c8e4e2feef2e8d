package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/phaseboard/internal/domain/order"
	"github.com/rpggio/phaseboard/internal/repository"
)

// OrderRepository implements order.Repository for SQLite
type OrderRepository struct {
	db *DB
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, tenant_id, project_id, number, status, created_by, created_at, updated_at`

// Create creates a new order
func (r *OrderRepository) Create(ctx context.Context, tenantID string, ord *order.Order) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ord.ID,
		tenantID,
		nullString(ord.ProjectID),
		ord.Number,
		string(ord.Status),
		ord.CreatedBy,
		ord.CreatedAt,
		ord.UpdatedAt,
	)
	if err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	ord.TenantID = tenantID
	return nil
}

// Get retrieves an order with its proofs, invoices and shipments
func (r *OrderRepository) Get(ctx context.Context, tenantID, id string) (*order.Order, error) {
	ord, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ? AND tenant_id = ?`, id, tenantID))
	if isNoRows(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	orders := []order.Order{*ord}
	if err := r.loadChildren(ctx, orders, `order_id = ?`, id); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// ListByProject returns every order linked to a project, with children
func (r *OrderRepository) ListByProject(ctx context.Context, tenantID, projectID string) ([]order.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE tenant_id = ? AND project_id = ?
		ORDER BY created_at, id
	`, tenantID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	var orders []order.Order
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *ord)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}
	rows.Close()

	if len(orders) == 0 {
		return nil, nil
	}
	if err := r.loadChildren(ctx, orders,
		`order_id IN (SELECT id FROM orders WHERE tenant_id = ? AND project_id = ?)`, tenantID, projectID); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus sets an order's status
func (r *OrderRepository) UpdateStatus(ctx context.Context, tenantID, id string, status order.Status, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`, string(status), at, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return requireRow(result)
}

// SetProject links the order to a project, or unlinks it when projectID is nil
func (r *OrderRepository) SetProject(ctx context.Context, tenantID, id string, projectID *string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET project_id = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`, nullString(projectID), at, id, tenantID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to link order: %w", err)
	}
	return requireRow(result)
}

// AddProof inserts a proof
func (r *OrderRepository) AddProof(ctx context.Context, tenantID string, proof *order.Proof) error {
	if err := r.ownsOrder(ctx, tenantID, proof.OrderID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO proofs (id, order_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, proof.ID, proof.OrderID, string(proof.Status), proof.CreatedAt, proof.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to add proof: %w", mapWriteError(err))
	}
	return nil
}

// UpdateProofStatus sets a proof's status
func (r *OrderRepository) UpdateProofStatus(ctx context.Context, tenantID, proofID string, status order.ProofStatus, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE proofs SET status = ?, updated_at = ?
		WHERE id = ? AND order_id IN (SELECT id FROM orders WHERE tenant_id = ?)
	`, string(status), at, proofID, tenantID)
	if err != nil {
		return fmt.Errorf("failed to update proof: %w", err)
	}
	return requireRow(result)
}

// AddInvoice inserts an invoice
func (r *OrderRepository) AddInvoice(ctx context.Context, tenantID string, inv *order.Invoice) error {
	if err := r.ownsOrder(ctx, tenantID, inv.OrderID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invoices (id, order_id, amount_cents, status, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, inv.ID, inv.OrderID, inv.AmountCents, string(inv.Status), nullTime(inv.DueDate), inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to add invoice: %w", mapWriteError(err))
	}
	return nil
}

// UpdateInvoice writes an invoice's status and due date
func (r *OrderRepository) UpdateInvoice(ctx context.Context, tenantID string, inv *order.Invoice) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE invoices SET status = ?, due_date = ?, updated_at = ?
		WHERE id = ? AND order_id IN (SELECT id FROM orders WHERE tenant_id = ?)
	`, string(inv.Status), nullTime(inv.DueDate), inv.UpdatedAt, inv.ID, tenantID)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	return requireRow(result)
}

// AddShipment inserts a shipment
func (r *OrderRepository) AddShipment(ctx context.Context, tenantID string, shipment *order.Shipment) error {
	if err := r.ownsOrder(ctx, tenantID, shipment.OrderID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shipments (
			id, order_id, status, carrier, tracking,
			estimated_delivery, shipped_at, delivered_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		shipment.ID,
		shipment.OrderID,
		string(shipment.Status),
		shipment.Carrier,
		shipment.Tracking,
		nullTime(shipment.EstimatedDelivery),
		nullTime(shipment.ShippedAt),
		nullTime(shipment.DeliveredAt),
		shipment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add shipment: %w", mapWriteError(err))
	}
	return nil
}

// UpdateShipment writes a shipment's status and delivery times
func (r *OrderRepository) UpdateShipment(ctx context.Context, tenantID string, shipment *order.Shipment) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE shipments
		SET status = ?, estimated_delivery = ?, shipped_at = ?, delivered_at = ?
		WHERE id = ? AND order_id IN (SELECT id FROM orders WHERE tenant_id = ?)
	`,
		string(shipment.Status),
		nullTime(shipment.EstimatedDelivery),
		nullTime(shipment.ShippedAt),
		nullTime(shipment.DeliveredAt),
		shipment.ID,
		tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update shipment: %w", err)
	}
	return requireRow(result)
}

func (r *OrderRepository) ownsOrder(ctx context.Context, tenantID, orderID string) error {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM orders WHERE id = ? AND tenant_id = ?`, orderID, tenantID).Scan(&one)
	if isNoRows(err) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check order: %w", err)
	}
	return nil
}

// loadChildren fills proofs, invoices and shipments for orders. where selects
// child rows by order_id. Each query is drained before the next starts because
// the pool holds a single connection.
func (r *OrderRepository) loadChildren(ctx context.Context, orders []order.Order, where string, args ...any) error {
	index := make(map[string]*order.Order, len(orders))
	for i := range orders {
		index[orders[i].ID] = &orders[i]
	}

	err := r.each(ctx, `SELECT id, order_id, status, created_at, updated_at FROM proofs WHERE `+where+` ORDER BY created_at, id`,
		args, func(rows *sql.Rows) error {
			var p order.Proof
			if err := rows.Scan(&p.ID, &p.OrderID, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
				return err
			}
			if ord, ok := index[p.OrderID]; ok {
				ord.Proofs = append(ord.Proofs, p)
			}
			return nil
		})
	if err != nil {
		return fmt.Errorf("failed to load proofs: %w", err)
	}

	err = r.each(ctx, `SELECT id, order_id, amount_cents, status, due_date, created_at, updated_at FROM invoices WHERE `+where+` ORDER BY created_at, id`,
		args, func(rows *sql.Rows) error {
			var inv order.Invoice
			var due sql.NullTime
			if err := rows.Scan(&inv.ID, &inv.OrderID, &inv.AmountCents, &inv.Status, &due, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
				return err
			}
			inv.DueDate = timePtr(due)
			if ord, ok := index[inv.OrderID]; ok {
				ord.Invoices = append(ord.Invoices, inv)
			}
			return nil
		})
	if err != nil {
		return fmt.Errorf("failed to load invoices: %w", err)
	}

	err = r.each(ctx, `
		SELECT id, order_id, status, carrier, tracking, estimated_delivery, shipped_at, delivered_at, created_at
		FROM shipments WHERE `+where+` ORDER BY created_at, id`,
		args, func(rows *sql.Rows) error {
			var sh order.Shipment
			var eta, shipped, delivered sql.NullTime
			if err := rows.Scan(&sh.ID, &sh.OrderID, &sh.Status, &sh.Carrier, &sh.Tracking, &eta, &shipped, &delivered, &sh.CreatedAt); err != nil {
				return err
			}
			sh.EstimatedDelivery = timePtr(eta)
			sh.ShippedAt = timePtr(shipped)
			sh.DeliveredAt = timePtr(delivered)
			if ord, ok := index[sh.OrderID]; ok {
				ord.Shipments = append(ord.Shipments, sh)
			}
			return nil
		})
	if err != nil {
		return fmt.Errorf("failed to load shipments: %w", err)
	}

	return nil
}

func (r *OrderRepository) each(ctx context.Context, query string, args []any, fn func(*sql.Rows) error) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var ord order.Order
	var projectID sql.NullString
	err := row.Scan(
		&ord.ID,
		&ord.TenantID,
		&projectID,
		&ord.Number,
		&ord.Status,
		&ord.CreatedBy,
		&ord.CreatedAt,
		&ord.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	ord.ProjectID = stringPtr(projectID)
	return &ord, nil
}
