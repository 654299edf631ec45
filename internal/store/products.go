package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

const productColumns = `id, nombre, descripcion, precio, imagen, categoria, extras,
	es_popular, es_promo, es_combo, hamburguesas_a_elegir, allow_duplicate_burgers,
	allowed_burgers, priority_order, active_days, discount_label, discount_percentage, updated_at`

const (
	upsertProductQuery = `
		INSERT INTO productos (id, nombre, descripcion, precio, imagen, categoria, extras,
			es_popular, es_promo, es_combo, hamburguesas_a_elegir, allow_duplicate_burgers,
			allowed_burgers, priority_order, active_days, discount_label, discount_percentage)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			nombre = EXCLUDED.nombre,
			descripcion = EXCLUDED.descripcion,
			precio = EXCLUDED.precio,
			imagen = EXCLUDED.imagen,
			categoria = EXCLUDED.categoria,
			extras = EXCLUDED.extras,
			es_popular = EXCLUDED.es_popular,
			es_promo = EXCLUDED.es_promo,
			es_combo = EXCLUDED.es_combo,
			hamburguesas_a_elegir = EXCLUDED.hamburguesas_a_elegir,
			allow_duplicate_burgers = EXCLUDED.allow_duplicate_burgers,
			allowed_burgers = EXCLUDED.allowed_burgers,
			priority_order = EXCLUDED.priority_order,
			active_days = EXCLUDED.active_days,
			discount_label = EXCLUDED.discount_label,
			discount_percentage = EXCLUDED.discount_percentage,
			updated_at = NOW()
		RETURNING ` + productColumns

	insertProductQuery = `
		INSERT INTO productos (nombre, descripcion, precio, imagen, categoria, extras,
			es_popular, es_promo, es_combo, hamburguesas_a_elegir, allow_duplicate_burgers,
			allowed_burgers, priority_order, active_days, discount_label, discount_percentage)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + productColumns

	syncSequenceQuery = `
		SELECT setval(pg_get_serial_sequence('productos', 'id'),
			GREATEST((SELECT COALESCE(MAX(id), 0) FROM productos), 1))`
)

// productRow maps the productos table
type productRow struct {
	ID                    int64          `db:"id"`
	Nombre                string         `db:"nombre"`
	Descripcion           string         `db:"descripcion"`
	Precio                int64          `db:"precio"`
	Imagen                string         `db:"imagen"`
	Categoria             string         `db:"categoria"`
	Extras                types.JSONText `db:"extras"`
	EsPopular             bool           `db:"es_popular"`
	EsPromo               bool           `db:"es_promo"`
	EsCombo               bool           `db:"es_combo"`
	HamburguesasAElegir   sql.NullInt64  `db:"hamburguesas_a_elegir"`
	AllowDuplicateBurgers sql.NullBool   `db:"allow_duplicate_burgers"`
	AllowedBurgers        types.JSONText `db:"allowed_burgers"`
	PriorityOrder         int            `db:"priority_order"`
	ActiveDays            types.JSONText `db:"active_days"`
	DiscountLabel         sql.NullString `db:"discount_label"`
	DiscountPercentage    float64        `db:"discount_percentage"`
	UpdatedAt             time.Time      `db:"updated_at"`
}

func toRow(p models.Product) (productRow, error) {
	row := productRow{
		Nombre:             p.Name,
		Descripcion:        p.Description,
		Precio:             p.Price,
		Imagen:             p.Image,
		Categoria:          p.Category,
		EsPopular:          p.IsPopular,
		EsPromo:            p.IsPromo,
		EsCombo:            p.IsCombo,
		PriorityOrder:      p.PriorityOrder,
		DiscountPercentage: p.DiscountPercentage,
	}
	if id, ok := NumericID(p.ID); ok {
		row.ID = id
	}
	if p.BurgersToSelect > 0 {
		row.HamburguesasAElegir = sql.NullInt64{Int64: int64(p.BurgersToSelect), Valid: true}
	}
	if p.AllowDuplicateBurgers != nil {
		row.AllowDuplicateBurgers = sql.NullBool{Bool: *p.AllowDuplicateBurgers, Valid: true}
	}
	if p.DiscountLabel != "" {
		row.DiscountLabel = sql.NullString{String: p.DiscountLabel, Valid: true}
	}

	var err error
	if row.Extras, err = jsonList(p.Extras); err != nil {
		return row, err
	}
	if row.AllowedBurgers, err = jsonList(p.AllowedBurgers); err != nil {
		return row, err
	}
	if row.ActiveDays, err = jsonList(p.ActiveDays); err != nil {
		return row, err
	}
	return row, nil
}

func (r productRow) toProduct() (models.Product, error) {
	p := models.Product{
		ID:                 strconv.FormatInt(r.ID, 10),
		Name:               r.Nombre,
		Description:        r.Descripcion,
		Price:              r.Precio,
		Image:              r.Imagen,
		Category:           r.Categoria,
		IsPopular:          r.EsPopular,
		IsPromo:            r.EsPromo,
		IsCombo:            r.EsCombo,
		PriorityOrder:      r.PriorityOrder,
		DiscountLabel:      r.DiscountLabel.String,
		DiscountPercentage: r.DiscountPercentage,
	}
	if r.HamburguesasAElegir.Valid {
		p.BurgersToSelect = int(r.HamburguesasAElegir.Int64)
	}
	if r.AllowDuplicateBurgers.Valid {
		p.AllowDuplicateBurgers = models.BoolPtr(r.AllowDuplicateBurgers.Bool)
	}
	if err := unmarshalList(r.Extras, &p.Extras); err != nil {
		return p, err
	}
	if err := unmarshalList(r.AllowedBurgers, &p.AllowedBurgers); err != nil {
		return p, err
	}
	if err := unmarshalList(r.ActiveDays, &p.ActiveDays); err != nil {
		return p, err
	}
	return p, nil
}

func (r productRow) args(withID bool) []interface{} {
	args := []interface{}{
		r.Nombre, r.Descripcion, r.Precio, r.Imagen, r.Categoria, r.Extras,
		r.EsPopular, r.EsPromo, r.EsCombo, r.HamburguesasAElegir, r.AllowDuplicateBurgers,
		r.AllowedBurgers, r.PriorityOrder, r.ActiveDays, r.DiscountLabel, r.DiscountPercentage,
	}
	if withID {
		return append([]interface{}{r.ID}, args...)
	}
	return args
}

func jsonList(v interface{}) (types.JSONText, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return types.JSONText("[]"), nil
	}
	return types.JSONText(b), nil
}

func unmarshalList(raw types.JSONText, dst interface{}) error {
	if len(raw) == 0 || string(raw) == "[]" || string(raw) == "null" {
		return nil
	}
	return raw.Unmarshal(dst)
}

// GetAll retrieves all products ordered by id
func (s *Store) GetAll(ctx context.Context) ([]models.Product, error) {
	var rows []productRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT "+productColumns+" FROM productos ORDER BY id"); err != nil {
		return nil, wrapErr(err, "failed to load products")
	}
	return toProducts(rows)
}

// ReplaceAll makes the table hold exactly products, in one transaction.
// Products with a numeric id are upserted, the rest inserted with a new id,
// and every row not in the saved set is deleted. The saved rows are returned
// in the order given.
func (s *Store) ReplaceAll(ctx context.Context, products []models.Product) ([]models.Product, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapErr(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	rows := make([]productRow, len(products))
	for i, p := range products {
		if rows[i], err = toRow(p); err != nil {
			return nil, err
		}
	}

	saved := make([]productRow, len(rows))
	for i, row := range rows {
		if row.ID == 0 {
			continue
		}
		if err := tx.GetContext(ctx, &saved[i], upsertProductQuery, row.args(true)...); err != nil {
			return nil, wrapErr(err, "failed to upsert product "+row.Nombre)
		}
	}

	// explicit ids may have moved past the sequence
	if _, err := tx.ExecContext(ctx, syncSequenceQuery); err != nil {
		return nil, wrapErr(err, "failed to sync id sequence")
	}

	for i, row := range rows {
		if row.ID != 0 {
			continue
		}
		if err := tx.GetContext(ctx, &saved[i], insertProductQuery, row.args(false)...); err != nil {
			return nil, wrapErr(err, "failed to insert product "+row.Nombre)
		}
	}

	ids := make([]int64, len(saved))
	for i, row := range saved {
		ids[i] = row.ID
	}
	if err := deleteMissing(ctx, tx, ids); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr(err, "failed to commit catalog")
	}
	return toProducts(saved)
}

func deleteMissing(ctx context.Context, tx *sqlx.Tx, keep []int64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM productos WHERE NOT (id = ANY($1))", pq.Array(keep))
	if err != nil {
		return wrapErr(err, "failed to delete removed products")
	}
	return nil
}

// DeleteOne deletes a product by id. It reports whether a row was deleted.
func (s *Store) DeleteOne(ctx context.Context, id string) (bool, error) {
	n, ok := NumericID(id)
	if !ok {
		return false, nil
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM productos WHERE id = $1", n)
	if err != nil {
		return false, wrapErr(err, "failed to delete product")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr(err, "failed to delete product")
	}
	return affected > 0, nil
}

func toProducts(rows []productRow) ([]models.Product, error) {
	out := make([]models.Product, 0, len(rows))
	for _, r := range rows {
		p, err := r.toProduct()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
