package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"modernc.org/sqlite"

	"github.com/cellgrid/packdb/internal/apperr"
	"github.com/cellgrid/packdb/internal/model"
	"github.com/cellgrid/packdb/internal/source"
)

// SQLiteStore implements Store on an embedded database. It backs local
// development and the import workflow where a Postgres server is overkill.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at path. Use ":memory:"
// for an ephemeral store.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: open %s", path)
	}
	// modernc serializes access per connection; a single connection avoids
	// SQLITE_BUSY on concurrent writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, eris.Wrap(err, "sqlite: enable foreign keys")
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS users (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	email        TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	role         TEXT NOT NULL DEFAULT 'member',
	api_token    TEXT NOT NULL UNIQUE,
	created_at   TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS packs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	oem           TEXT NOT NULL,
	model         TEXT NOT NULL,
	year          INTEGER NOT NULL,
	variant       TEXT,
	market        TEXT,
	fuel_type     TEXT,
	vehicle_class TEXT,
	drivetrain    TEXT,
	platform      TEXT,
	is_active     INTEGER NOT NULL DEFAULT 1,
	created_by    INTEGER REFERENCES users(id),
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_pack_identity
	ON packs (oem, model, COALESCE(variant, ''), year, COALESCE(market, ''));

CREATE TABLE IF NOT EXISTS domains (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL UNIQUE,
	description TEXT,
	sort_order  INTEGER NOT NULL DEFAULT 0,
	is_default  INTEGER NOT NULL DEFAULT 0,
	created_by  INTEGER REFERENCES users(id),
	created_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS fields (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	domain_id      INTEGER NOT NULL REFERENCES domains(id),
	name           TEXT NOT NULL,
	display_name   TEXT NOT NULL,
	unit           TEXT,
	data_type      TEXT NOT NULL DEFAULT 'text',
	select_options TEXT,
	sort_order     INTEGER NOT NULL DEFAULT 0,
	description    TEXT,
	created_by     INTEGER REFERENCES users(id),
	is_active      INTEGER NOT NULL DEFAULT 1,
	created_at     TIMESTAMP NOT NULL,
	UNIQUE (domain_id, name)
);

CREATE TABLE IF NOT EXISTS field_values (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	pack_id        INTEGER NOT NULL REFERENCES packs(id),
	field_id       INTEGER NOT NULL REFERENCES fields(id),
	value_text     TEXT,
	value_numeric  REAL,
	source_type    TEXT NOT NULL,
	source_detail  TEXT NOT NULL,
	contributed_by INTEGER NOT NULL REFERENCES users(id),
	is_active      INTEGER NOT NULL DEFAULT 1,
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_values_pack_field ON field_values (pack_id, field_id, source_type);

CREATE TABLE IF NOT EXISTS comments (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	value_id   INTEGER NOT NULL REFERENCES field_values(id),
	author_id  INTEGER NOT NULL REFERENCES users(id),
	text       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_comments_value_id ON comments (value_id);

CREATE TABLE IF NOT EXISTS source_priorities (
	user_id        INTEGER PRIMARY KEY REFERENCES users(id),
	priority_order TEXT NOT NULL
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func liteErr(err error, op string) error {
	var serr *sqlite.Error
	if errors.As(err, &serr) && serr.Code()&0xff == 19 {
		return eris.Wrapf(apperr.ErrConflict, "sqlite: %s", op)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return eris.Wrapf(apperr.ErrNotFound, "sqlite: %s", op)
	}
	return eris.Wrapf(err, "sqlite: %s", op)
}

func liteErr2(err error, op string) error {
	if err == nil {
		return nil
	}
	return liteErr(err, op)
}

// --- Users ---

func (s *SQLiteStore) CreateUser(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, display_name, role, api_token, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.Email, u.DisplayName, u.Role, u.APIToken, now)
	if err != nil {
		return liteErr(err, "create user")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: create user id")
	}
	u.ID = id
	u.CreatedAt = now
	return nil
}

func (s *SQLiteStore) getUser(ctx context.Context, query string, arg any) (*model.User, error) {
	u := &model.User{}
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.APIToken, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *SQLiteStore) GetUserByToken(ctx context.Context, token string) (*model.User, error) {
	u, err := s.getUser(ctx, `
		SELECT id, email, display_name, role, api_token, created_at
		FROM users WHERE api_token = ?`, token)
	if err != nil {
		return nil, liteErr(err, "get user by token")
	}
	return u, nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := s.getUser(ctx, `
		SELECT id, email, display_name, role, api_token, created_at
		FROM users WHERE email = ?`, email)
	if err != nil {
		return nil, liteErr(err, "get user by email")
	}
	return u, nil
}

// --- Packs ---

const litePackColumns = `p.id, p.oem, p.model, p.year, p.variant, p.market, p.fuel_type,
	p.vehicle_class, p.drivetrain, p.platform, p.is_active, p.created_by, u.display_name,
	p.created_at, p.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLitePack(row rowScanner) (*model.Pack, error) {
	p := &model.Pack{}
	err := row.Scan(&p.ID, &p.OEM, &p.Model, &p.Year, &p.Variant, &p.Market,
		&p.FuelType, &p.VehicleClass, &p.Drivetrain, &p.Platform, &p.IsActive,
		&p.CreatedBy, &p.CreatedByName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLiteStore) CreatePack(ctx context.Context, p *model.Pack) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO packs (oem, model, year, variant, market, fuel_type, vehicle_class, drivetrain, platform, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.OEM, p.Model, p.Year, p.Variant, p.Market, p.FuelType, p.VehicleClass,
		p.Drivetrain, p.Platform, p.CreatedBy, now, now)
	if err != nil {
		return liteErr(err, "create pack")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: create pack id")
	}
	p.ID = id
	p.IsActive = true
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) GetPack(ctx context.Context, id int64) (*model.Pack, error) {
	p, err := scanLitePack(s.db.QueryRowContext(ctx, `
		SELECT `+litePackColumns+`
		FROM packs p
		LEFT JOIN users u ON p.created_by = u.id
		WHERE p.id = ? AND p.is_active = 1`, id))
	if err != nil {
		return nil, liteErr(err, fmt.Sprintf("get pack %d", id))
	}
	return p, nil
}

func (s *SQLiteStore) ListPacks(ctx context.Context, f model.PackFilter) (*model.PackPage, error) {
	where := []string{"p.is_active = 1"}
	var args []any
	add := func(clause, val string) {
		if val == "" {
			return
		}
		where = append(where, clause)
		args = append(args, val)
	}
	add("p.oem = ?", f.OEM)
	add("p.model = ?", f.Model)
	add("p.market = ?", f.Market)
	add("p.fuel_type = ?", f.FuelType)
	add("p.vehicle_class = ?", f.VehicleClass)
	add("p.drivetrain = ?", f.Drivetrain)
	add("p.platform = ?", f.Platform)
	if f.Search != "" {
		where = append(where, "(p.oem LIKE ? OR p.model LIKE ? OR p.variant LIKE ? OR p.platform LIKE ?)")
		pat := "%" + f.Search + "%"
		args = append(args, pat, pat, pat, pat)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM packs p WHERE `+cond, args...,
	).Scan(&total); err != nil {
		return nil, liteErr(err, "count packs")
	}

	sortCol, ok := packSortColumns[f.SortBy]
	if !ok {
		sortCol = "p.created_at"
	}
	dir := "DESC"
	if f.SortDir == "asc" {
		dir = "ASC"
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM packs p
		LEFT JOIN users u ON p.created_by = u.id
		WHERE %s
		ORDER BY %s %s
		LIMIT ? OFFSET ?`, litePackColumns, cond, sortCol, dir),
		args...)
	if err != nil {
		return nil, liteErr(err, "list packs")
	}
	defer rows.Close()

	items := []model.Pack{}
	for rows.Next() {
		p, err := scanLitePack(rows)
		if err != nil {
			return nil, liteErr(err, "scan pack")
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, liteErr(err, "list packs iterate")
	}
	return &model.PackPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *SQLiteStore) UpdatePack(ctx context.Context, p *model.Pack) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE packs SET
			oem = ?, model = ?, year = ?, variant = ?, market = ?,
			fuel_type = ?, vehicle_class = ?, drivetrain = ?, platform = ?,
			updated_at = ?
		WHERE id = ? AND is_active = 1`,
		p.OEM, p.Model, p.Year, p.Variant, p.Market, p.FuelType, p.VehicleClass,
		p.Drivetrain, p.Platform, now, p.ID)
	if err != nil {
		return liteErr(err, fmt.Sprintf("update pack %d", p.ID))
	}
	if err := checkAffected(res, "update pack", p.ID); err != nil {
		return err
	}
	p.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) SoftDeletePack(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE packs SET is_active = 0, updated_at = ? WHERE id = ? AND is_active = 1`,
		time.Now().UTC(), id)
	if err != nil {
		return liteErr(err, fmt.Sprintf("delete pack %d", id))
	}
	return checkAffected(res, "delete pack", id)
}

func checkAffected(res sql.Result, op string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: %s %d", op, id)
	}
	if n == 0 {
		return eris.Wrapf(apperr.ErrNotFound, "sqlite: %s %d", op, id)
	}
	return nil
}

// --- Domains and fields ---

func (s *SQLiteStore) ListDomains(ctx context.Context) ([]model.Domain, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, sort_order, is_default, created_by, created_at
		FROM domains
		ORDER BY sort_order, id`)
	if err != nil {
		return nil, liteErr(err, "list domains")
	}
	defer rows.Close()

	var domains []model.Domain
	for rows.Next() {
		var d model.Domain
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.SortOrder,
			&d.IsDefault, &d.CreatedBy, &d.CreatedAt); err != nil {
			return nil, liteErr(err, "scan domain")
		}
		domains = append(domains, d)
	}
	return domains, liteErr2(rows.Err(), "list domains iterate")
}

func (s *SQLiteStore) GetDomain(ctx context.Context, id int64) (*model.Domain, error) {
	d := &model.Domain{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, sort_order, is_default, created_by, created_at
		FROM domains WHERE id = ?`, id,
	).Scan(&d.ID, &d.Name, &d.Description, &d.SortOrder, &d.IsDefault, &d.CreatedBy, &d.CreatedAt)
	if err != nil {
		return nil, liteErr(err, fmt.Sprintf("get domain %d", id))
	}
	return d, nil
}

func (s *SQLiteStore) CreateDomain(ctx context.Context, d *model.Domain) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO domains (name, description, sort_order, is_default, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.Name, d.Description, d.SortOrder, d.IsDefault, d.CreatedBy, now)
	if err != nil {
		return liteErr(err, "create domain")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: create domain id")
	}
	d.ID = id
	d.CreatedAt = now
	return nil
}

const liteFieldColumns = `id, domain_id, name, display_name, unit, data_type, select_options,
	sort_order, description, created_by, is_active, created_at`

func scanLiteField(row rowScanner) (*model.Field, error) {
	f := &model.Field{}
	var opts *string
	err := row.Scan(&f.ID, &f.DomainID, &f.Name, &f.DisplayName, &f.Unit, &f.DataType,
		&opts, &f.SortOrder, &f.Description, &f.CreatedBy, &f.IsActive, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	if opts != nil && *opts != "" {
		if err := json.Unmarshal([]byte(*opts), &f.SelectOptions); err != nil {
			return nil, eris.Wrap(err, "decode select_options")
		}
	}
	return f, nil
}

func (s *SQLiteStore) listFields(ctx context.Context, query string, args ...any) ([]model.Field, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, liteErr(err, "list fields")
	}
	defer rows.Close()

	var fields []model.Field
	for rows.Next() {
		f, err := scanLiteField(rows)
		if err != nil {
			return nil, liteErr(err, "scan field")
		}
		fields = append(fields, *f)
	}
	return fields, liteErr2(rows.Err(), "list fields iterate")
}

func (s *SQLiteStore) ListFields(ctx context.Context, domainID int64) ([]model.Field, error) {
	return s.listFields(ctx, `
		SELECT `+liteFieldColumns+` FROM fields
		WHERE domain_id = ? AND is_active = 1
		ORDER BY sort_order, id`, domainID)
}

func (s *SQLiteStore) ListAllFields(ctx context.Context) ([]model.Field, error) {
	return s.listFields(ctx, `
		SELECT `+liteFieldColumns+` FROM fields
		WHERE is_active = 1
		ORDER BY domain_id, sort_order, id`)
}

func (s *SQLiteStore) GetField(ctx context.Context, id int64) (*model.Field, error) {
	f, err := scanLiteField(s.db.QueryRowContext(ctx,
		`SELECT `+liteFieldColumns+` FROM fields WHERE id = ? AND is_active = 1`, id))
	if err != nil {
		return nil, liteErr(err, fmt.Sprintf("get field %d", id))
	}
	return f, nil
}

func (s *SQLiteStore) CreateField(ctx context.Context, f *model.Field) error {
	opts, err := marshalOptionsText(f.SelectOptions)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO fields (domain_id, name, display_name, unit, data_type, select_options, sort_order, description, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.DomainID, f.Name, f.DisplayName, f.Unit, f.DataType, opts,
		f.SortOrder, f.Description, f.CreatedBy, now)
	if err != nil {
		return liteErr(err, "create field")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: create field id")
	}
	f.ID = id
	f.IsActive = true
	f.CreatedAt = now
	return nil
}

func (s *SQLiteStore) UpdateField(ctx context.Context, f *model.Field) error {
	opts, err := marshalOptionsText(f.SelectOptions)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE fields SET
			display_name = ?, unit = ?, data_type = ?, select_options = ?,
			sort_order = ?, description = ?
		WHERE id = ? AND is_active = 1`,
		f.DisplayName, f.Unit, f.DataType, opts, f.SortOrder, f.Description, f.ID)
	if err != nil {
		return liteErr(err, fmt.Sprintf("update field %d", f.ID))
	}
	return checkAffected(res, "update field", f.ID)
}

func (s *SQLiteStore) SoftDeleteField(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE fields SET is_active = 0 WHERE id = ? AND is_active = 1`, id)
	if err != nil {
		return liteErr(err, fmt.Sprintf("delete field %d", id))
	}
	return checkAffected(res, "delete field", id)
}

func marshalOptionsText(opts []string) (*string, error) {
	if len(opts) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: encode select_options")
	}
	s := string(b)
	return &s, nil
}

// --- Values ---

const liteValueColumns = `v.id, v.pack_id, v.field_id, v.value_text, v.value_numeric,
	v.source_type, v.source_detail, v.contributed_by, u.display_name, v.is_active,
	v.created_at, v.updated_at, COALESCE(c.n, 0)`

const liteValueJoins = `
	FROM field_values v
	JOIN users u ON v.contributed_by = u.id
	LEFT JOIN (SELECT value_id, count(*) AS n FROM comments GROUP BY value_id) c ON c.value_id = v.id`

func scanLiteValue(row rowScanner) (*model.Value, error) {
	v := &model.Value{}
	var kind string
	err := row.Scan(&v.ID, &v.PackID, &v.FieldID, &v.ValueText, &v.ValueNumeric,
		&kind, &v.SourceDetail, &v.ContributedBy, &v.ContributorName,
		&v.IsActive, &v.CreatedAt, &v.UpdatedAt, &v.CommentCount)
	if err != nil {
		return nil, err
	}
	v.SourceType = source.Kind(kind)
	return v, nil
}

func (s *SQLiteStore) CreateValue(ctx context.Context, v *model.Value) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO field_values (pack_id, field_id, value_text, value_numeric, source_type, source_detail, contributed_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.PackID, v.FieldID, v.ValueText, v.ValueNumeric, string(v.SourceType),
		v.SourceDetail, v.ContributedBy, now, now)
	if err != nil {
		return liteErr(err, "create value")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: create value id")
	}
	v.ID = id
	v.IsActive = true
	v.CreatedAt = now
	v.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) GetValue(ctx context.Context, id int64) (*model.Value, error) {
	v, err := scanLiteValue(s.db.QueryRowContext(ctx,
		`SELECT `+liteValueColumns+liteValueJoins+` WHERE v.id = ? AND v.is_active = 1`, id))
	if err != nil {
		return nil, liteErr(err, fmt.Sprintf("get value %d", id))
	}
	return v, nil
}

func (s *SQLiteStore) UpdateValue(ctx context.Context, v *model.Value) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE field_values SET
			value_text = ?, value_numeric = ?, source_detail = ?, updated_at = ?
		WHERE id = ? AND is_active = 1`,
		v.ValueText, v.ValueNumeric, v.SourceDetail, now, v.ID)
	if err != nil {
		return liteErr(err, fmt.Sprintf("update value %d", v.ID))
	}
	if err := checkAffected(res, "update value", v.ID); err != nil {
		return err
	}
	v.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) SoftDeleteValue(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE field_values SET is_active = 0, updated_at = ? WHERE id = ? AND is_active = 1`,
		time.Now().UTC(), id)
	if err != nil {
		return liteErr(err, fmt.Sprintf("delete value %d", id))
	}
	return checkAffected(res, "delete value", id)
}

func (s *SQLiteStore) ListPackValues(ctx context.Context, packID int64) ([]model.Value, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+liteValueColumns+liteValueJoins+`
		WHERE v.pack_id = ? AND v.is_active = 1
		ORDER BY v.field_id, v.id`, packID)
	if err != nil {
		return nil, liteErr(err, fmt.Sprintf("list values for pack %d", packID))
	}
	defer rows.Close()

	var values []model.Value
	for rows.Next() {
		v, err := scanLiteValue(rows)
		if err != nil {
			return nil, liteErr(err, "scan value")
		}
		values = append(values, *v)
	}
	return values, liteErr2(rows.Err(), "list values iterate")
}

// --- Source priorities ---

func (s *SQLiteStore) GetPriority(ctx context.Context, userID int64) ([]source.Kind, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT priority_order FROM source_priorities WHERE user_id = ?`, userID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, liteErr(err, fmt.Sprintf("get priority for user %d", userID))
	}
	var order []source.Kind
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode priority for user %d", userID)
	}
	return order, nil
}

func (s *SQLiteStore) SetPriority(ctx context.Context, userID int64, order []source.Kind) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return eris.Wrap(err, "sqlite: encode priority")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO source_priorities (user_id, priority_order)
		VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET priority_order = excluded.priority_order`,
		userID, string(raw))
	if err != nil {
		return liteErr(err, fmt.Sprintf("set priority for user %d", userID))
	}
	return nil
}

// --- Comments ---

func (s *SQLiteStore) ListComments(ctx context.Context, valueID int64) ([]model.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.value_id, c.author_id, u.display_name, c.text, c.created_at
		FROM comments c
		JOIN users u ON c.author_id = u.id
		WHERE c.value_id = ?
		ORDER BY c.created_at, c.id`, valueID)
	if err != nil {
		return nil, liteErr(err, fmt.Sprintf("list comments for value %d", valueID))
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.ValueID, &c.AuthorID, &c.AuthorName, &c.Text, &c.CreatedAt); err != nil {
			return nil, liteErr(err, "scan comment")
		}
		comments = append(comments, c)
	}
	return comments, liteErr2(rows.Err(), "list comments iterate")
}

func (s *SQLiteStore) CreateComment(ctx context.Context, c *model.Comment) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (value_id, author_id, text, created_at)
		VALUES (?, ?, ?, ?)`,
		c.ValueID, c.AuthorID, c.Text, now)
	if err != nil {
		return liteErr(err, "create comment")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: create comment id")
	}
	c.ID = id
	c.CreatedAt = now
	return nil
}
