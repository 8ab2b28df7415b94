package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/safar/cafe-pos/internal/apperr"
	"github.com/safar/cafe-pos/internal/database"
	"github.com/safar/cafe-pos/internal/models"
)

const maxMenuNameLength = 200

func validateMenuName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("name must not be empty")
	}
	if len(name) > maxMenuNameLength {
		return "", apperr.Validation(fmt.Sprintf("name must be at most %d characters", maxMenuNameLength))
	}
	return name, nil
}

// validateMenuCategory keeps the label as written, minus surrounding
// whitespace.
func validateMenuCategory(category string) (string, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return "", apperr.Validation("category must not be empty")
	}
	if len(category) > maxMenuNameLength {
		return "", apperr.Validation(fmt.Sprintf("category must be at most %d characters", maxMenuNameLength))
	}
	return category, nil
}

func validateMenuPrice(price int64) error {
	if price < 0 {
		return apperr.Validation("price must not be negative")
	}
	return nil
}

func scanMenuItem(row interface{ Scan(...any) error }, item *models.MenuItem) error {
	return row.Scan(
		&item.ID,
		&item.Name,
		&item.Price,
		&item.Category,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
}

// ListMenuItems returns the catalog, or only the items whose category
// matches category ignoring case and surrounding whitespace. A blank
// category means no filter.
func ListMenuItems(ctx context.Context, db *sql.DB, category string) ([]models.MenuItem, error) {
	query := `
		SELECT id, name, price, category, created_at, updated_at
		FROM menu_items
		WHERE ($1 = '' OR lower(category) = lower($1))
		ORDER BY id ASC`

	rows, err := db.QueryContext(ctx, query, strings.TrimSpace(category))
	if err != nil {
		return nil, storageError("failed to list menu items", fmt.Errorf("list menu items: %w", err))
	}
	defer rows.Close()

	items := make([]models.MenuItem, 0)
	for rows.Next() {
		var item models.MenuItem
		if err := scanMenuItem(rows, &item); err != nil {
			return nil, storageError("failed to list menu items", fmt.Errorf("scan menu item: %w", err))
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, storageError("failed to list menu items", fmt.Errorf("rows error: %w", err))
	}

	return items, nil
}

func GetMenuItem(ctx context.Context, db *sql.DB, id int64) (*models.MenuItem, error) {
	item := &models.MenuItem{}

	query := `
		SELECT id, name, price, category, created_at, updated_at
		FROM menu_items
		WHERE id = $1`

	if err := scanMenuItem(db.QueryRowContext(ctx, query, id), item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("menu item not found", database.ErrMenuItemNotFound)
		}
		return nil, storageError("failed to load menu item", fmt.Errorf("get menu item: %w", err))
	}

	return item, nil
}

func CreateMenuItem(ctx context.Context, db *sql.DB, name string, price int64, category string) (*models.MenuItem, error) {
	name, err := validateMenuName(name)
	if err != nil {
		return nil, err
	}
	if err := validateMenuPrice(price); err != nil {
		return nil, err
	}
	tag, err := validateMenuCategory(category)
	if err != nil {
		return nil, err
	}

	item := &models.MenuItem{}

	query := `
		INSERT INTO menu_items (name, price, category, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, name, price, category, created_at, updated_at`

	if err := scanMenuItem(db.QueryRowContext(ctx, query, name, price, tag), item); err != nil {
		return nil, storageError("failed to create menu item", fmt.Errorf("create menu item: %w", err))
	}

	return item, nil
}

// UpdateMenuItem applies patch to the menu item in one statement. Absent
// fields keep their stored value through COALESCE, so the statement text
// never depends on which fields are present.
func UpdateMenuItem(ctx context.Context, db *sql.DB, id int64, patch models.MenuItemPatch) (*models.MenuItem, error) {
	if patch.IsEmpty() {
		return nil, apperr.Validation("no fields to update")
	}

	var name, category sql.NullString
	var price sql.NullInt64

	if patch.Name != nil {
		v, err := validateMenuName(*patch.Name)
		if err != nil {
			return nil, err
		}
		name = sql.NullString{String: v, Valid: true}
	}
	if patch.Price != nil {
		if err := validateMenuPrice(*patch.Price); err != nil {
			return nil, err
		}
		price = sql.NullInt64{Int64: *patch.Price, Valid: true}
	}
	if patch.Category != nil {
		v, err := validateMenuCategory(*patch.Category)
		if err != nil {
			return nil, err
		}
		category = sql.NullString{String: v, Valid: true}
	}

	item := &models.MenuItem{}

	query := `
		UPDATE menu_items
		SET name = COALESCE($2, name),
		    price = COALESCE($3, price),
		    category = COALESCE($4, category),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, price, category, created_at, updated_at`

	err := scanMenuItem(db.QueryRowContext(ctx, query, id, name, price, category), item)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("menu item not found", database.ErrMenuItemNotFound)
		}
		return nil, storageError("failed to update menu item", fmt.Errorf("update menu item: %w", err))
	}

	return item, nil
}

// DeleteMenuItem removes the item. Order lines that referenced it keep
// their captured price; their menu_item_id becomes NULL.
func DeleteMenuItem(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return storageError("failed to delete menu item", fmt.Errorf("delete menu item: %w", err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storageError("failed to delete menu item", fmt.Errorf("get rows affected: %w", err))
	}

	if rowsAffected == 0 {
		return apperr.NotFound("menu item not found", database.ErrMenuItemNotFound)
	}

	return nil
}
