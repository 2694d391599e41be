package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"

	"github.com/cellgrid/packdb/internal/apperr"
	"github.com/cellgrid/packdb/internal/db"
	"github.com/cellgrid/packdb/internal/model"
	"github.com/cellgrid/packdb/internal/source"
)

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore on top of a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS users (
	id           BIGSERIAL PRIMARY KEY,
	email        TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	role         TEXT NOT NULL DEFAULT 'member',
	api_token    TEXT NOT NULL UNIQUE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS packs (
	id            BIGSERIAL PRIMARY KEY,
	oem           TEXT NOT NULL,
	model         TEXT NOT NULL,
	year          INTEGER NOT NULL,
	variant       TEXT,
	market        TEXT,
	fuel_type     TEXT,
	vehicle_class TEXT,
	drivetrain    TEXT,
	platform      TEXT,
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_by    BIGINT REFERENCES users(id),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_pack_identity
	ON packs (oem, model, COALESCE(variant, ''), year, COALESCE(market, ''));

CREATE TABLE IF NOT EXISTS domains (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	description TEXT,
	sort_order  INTEGER NOT NULL DEFAULT 0,
	is_default  BOOLEAN NOT NULL DEFAULT FALSE,
	created_by  BIGINT REFERENCES users(id),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS fields (
	id             BIGSERIAL PRIMARY KEY,
	domain_id      BIGINT NOT NULL REFERENCES domains(id),
	name           TEXT NOT NULL,
	display_name   TEXT NOT NULL,
	unit           TEXT,
	data_type      TEXT NOT NULL DEFAULT 'text',
	select_options JSONB,
	sort_order     INTEGER NOT NULL DEFAULT 0,
	description    TEXT,
	created_by     BIGINT REFERENCES users(id),
	is_active      BOOLEAN NOT NULL DEFAULT TRUE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (domain_id, name)
);

CREATE TABLE IF NOT EXISTS field_values (
	id             BIGSERIAL PRIMARY KEY,
	pack_id        BIGINT NOT NULL REFERENCES packs(id),
	field_id       BIGINT NOT NULL REFERENCES fields(id),
	value_text     TEXT,
	value_numeric  DOUBLE PRECISION,
	source_type    TEXT NOT NULL,
	source_detail  TEXT NOT NULL,
	contributed_by BIGINT NOT NULL REFERENCES users(id),
	is_active      BOOLEAN NOT NULL DEFAULT TRUE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_values_pack_field ON field_values (pack_id, field_id, source_type);

CREATE TABLE IF NOT EXISTS comments (
	id         BIGSERIAL PRIMARY KEY,
	value_id   BIGINT NOT NULL REFERENCES field_values(id),
	author_id  BIGINT NOT NULL REFERENCES users(id),
	text       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_comments_value_id ON comments (value_id);

CREATE TABLE IF NOT EXISTS source_priorities (
	user_id        BIGINT PRIMARY KEY REFERENCES users(id),
	priority_order JSONB NOT NULL
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	// Advisory lock prevents concurrent migration runs on overlapping deploys.
	if _, err := s.pool.Exec(ctx, "SELECT pg_advisory_lock(7201101)"); err != nil {
		return eris.Wrap(err, "postgres: acquire migration lock")
	}
	defer func() {
		_, _ = s.pool.Exec(ctx, "SELECT pg_advisory_unlock(7201101)")
	}()

	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// pgErr maps driver errors onto the shared taxonomy before wrapping.
func pgErr(err error, op string) error {
	var pge *pgconn.PgError
	if errors.As(err, &pge) && pge.Code == "23505" {
		return eris.Wrapf(apperr.ErrConflict, "postgres: %s", op)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return eris.Wrapf(apperr.ErrNotFound, "postgres: %s", op)
	}
	return eris.Wrapf(err, "postgres: %s", op)
}

// --- Users ---

func (s *PostgresStore) CreateUser(ctx context.Context, u *model.User) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (email, display_name, role, api_token)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		u.Email, u.DisplayName, u.Role, u.APIToken,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return pgErr(err, "create user")
	}
	return nil
}

const userColumns = `id, email, display_name, role, api_token, created_at`

func (s *PostgresStore) GetUserByToken(ctx context.Context, token string) (*model.User, error) {
	u := &model.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE api_token = $1`, token,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.APIToken, &u.CreatedAt)
	if err != nil {
		return nil, pgErr(err, "get user by token")
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u := &model.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.APIToken, &u.CreatedAt)
	if err != nil {
		return nil, pgErr(err, "get user by email")
	}
	return u, nil
}

// --- Packs ---

const packColumns = `p.id, p.oem, p.model, p.year, p.variant, p.market, p.fuel_type,
	p.vehicle_class, p.drivetrain, p.platform, p.is_active, p.created_by, u.display_name,
	p.created_at, p.updated_at`

func scanPack(row pgx.Row) (*model.Pack, error) {
	p := &model.Pack{}
	err := row.Scan(&p.ID, &p.OEM, &p.Model, &p.Year, &p.Variant, &p.Market,
		&p.FuelType, &p.VehicleClass, &p.Drivetrain, &p.Platform, &p.IsActive,
		&p.CreatedBy, &p.CreatedByName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) CreatePack(ctx context.Context, p *model.Pack) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO packs (oem, model, year, variant, market, fuel_type, vehicle_class, drivetrain, platform, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, is_active, created_at, updated_at`,
		p.OEM, p.Model, p.Year, p.Variant, p.Market, p.FuelType, p.VehicleClass,
		p.Drivetrain, p.Platform, p.CreatedBy,
	).Scan(&p.ID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return pgErr(err, "create pack")
	}
	return nil
}

func (s *PostgresStore) GetPack(ctx context.Context, id int64) (*model.Pack, error) {
	p, err := scanPack(s.pool.QueryRow(ctx, `
		SELECT `+packColumns+`
		FROM packs p
		LEFT JOIN users u ON p.created_by = u.id
		WHERE p.id = $1 AND p.is_active`, id))
	if err != nil {
		return nil, pgErr(err, fmt.Sprintf("get pack %d", id))
	}
	return p, nil
}

// packSortColumns whitelists sortable columns for ListPacks.
var packSortColumns = map[string]string{
	"created_at": "p.created_at",
	"updated_at": "p.updated_at",
	"oem":        "p.oem",
	"model":      "p.model",
	"year":       "p.year",
}

func (s *PostgresStore) ListPacks(ctx context.Context, f model.PackFilter) (*model.PackPage, error) {
	where := []string{"p.is_active"}
	var args []any
	add := func(clause, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	add("p.oem = $%d", f.OEM)
	add("p.model = $%d", f.Model)
	add("p.market = $%d", f.Market)
	add("p.fuel_type = $%d", f.FuelType)
	add("p.vehicle_class = $%d", f.VehicleClass)
	add("p.drivetrain = $%d", f.Drivetrain)
	add("p.platform = $%d", f.Platform)
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(p.oem ILIKE $%d OR p.model ILIKE $%d OR p.variant ILIKE $%d OR p.platform ILIKE $%d)", n, n, n, n))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM packs p WHERE `+cond, args...,
	).Scan(&total); err != nil {
		return nil, pgErr(err, "count packs")
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

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM packs p
		LEFT JOIN users u ON p.created_by = u.id
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d`,
		packColumns, cond, sortCol, dir, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, pgErr(err, "list packs")
	}
	defer rows.Close()

	items := []model.Pack{}
	for rows.Next() {
		p, err := scanPack(rows)
		if err != nil {
			return nil, pgErr(err, "scan pack")
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, pgErr(err, "list packs iterate")
	}
	return &model.PackPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *PostgresStore) UpdatePack(ctx context.Context, p *model.Pack) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE packs SET
			oem = $2, model = $3, year = $4, variant = $5, market = $6,
			fuel_type = $7, vehicle_class = $8, drivetrain = $9, platform = $10,
			updated_at = now()
		WHERE id = $1 AND is_active
		RETURNING updated_at`,
		p.ID, p.OEM, p.Model, p.Year, p.Variant, p.Market, p.FuelType,
		p.VehicleClass, p.Drivetrain, p.Platform,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return pgErr(err, fmt.Sprintf("update pack %d", p.ID))
	}
	return nil
}

func (s *PostgresStore) SoftDeletePack(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE packs SET is_active = FALSE, updated_at = now() WHERE id = $1 AND is_active`, id)
	if err != nil {
		return pgErr(err, fmt.Sprintf("delete pack %d", id))
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(apperr.ErrNotFound, "postgres: delete pack %d", id)
	}
	return nil
}

// --- Domains and fields ---

func (s *PostgresStore) ListDomains(ctx context.Context) ([]model.Domain, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, description, sort_order, is_default, created_by, created_at
		FROM domains
		ORDER BY sort_order, id`)
	if err != nil {
		return nil, pgErr(err, "list domains")
	}
	defer rows.Close()

	var domains []model.Domain
	for rows.Next() {
		var d model.Domain
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.SortOrder,
			&d.IsDefault, &d.CreatedBy, &d.CreatedAt); err != nil {
			return nil, pgErr(err, "scan domain")
		}
		domains = append(domains, d)
	}
	return domains, pgErr2(rows.Err(), "list domains iterate")
}

func (s *PostgresStore) GetDomain(ctx context.Context, id int64) (*model.Domain, error) {
	d := &model.Domain{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, description, sort_order, is_default, created_by, created_at
		FROM domains WHERE id = $1`, id,
	).Scan(&d.ID, &d.Name, &d.Description, &d.SortOrder, &d.IsDefault, &d.CreatedBy, &d.CreatedAt)
	if err != nil {
		return nil, pgErr(err, fmt.Sprintf("get domain %d", id))
	}
	return d, nil
}

func (s *PostgresStore) CreateDomain(ctx context.Context, d *model.Domain) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO domains (name, description, sort_order, is_default, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		d.Name, d.Description, d.SortOrder, d.IsDefault, d.CreatedBy,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return pgErr(err, "create domain")
	}
	return nil
}

const fieldColumns = `id, domain_id, name, display_name, unit, data_type, select_options,
	sort_order, description, created_by, is_active, created_at`

func scanField(row pgx.Row) (*model.Field, error) {
	f := &model.Field{}
	var opts []byte
	err := row.Scan(&f.ID, &f.DomainID, &f.Name, &f.DisplayName, &f.Unit, &f.DataType,
		&opts, &f.SortOrder, &f.Description, &f.CreatedBy, &f.IsActive, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(opts) > 0 {
		if err := json.Unmarshal(opts, &f.SelectOptions); err != nil {
			return nil, eris.Wrap(err, "decode select_options")
		}
	}
	return f, nil
}

func (s *PostgresStore) listFields(ctx context.Context, query string, args ...any) ([]model.Field, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, pgErr(err, "list fields")
	}
	defer rows.Close()

	var fields []model.Field
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, pgErr(err, "scan field")
		}
		fields = append(fields, *f)
	}
	return fields, pgErr2(rows.Err(), "list fields iterate")
}

func (s *PostgresStore) ListFields(ctx context.Context, domainID int64) ([]model.Field, error) {
	return s.listFields(ctx, `
		SELECT `+fieldColumns+` FROM fields
		WHERE domain_id = $1 AND is_active
		ORDER BY sort_order, id`, domainID)
}

func (s *PostgresStore) ListAllFields(ctx context.Context) ([]model.Field, error) {
	return s.listFields(ctx, `
		SELECT `+fieldColumns+` FROM fields
		WHERE is_active
		ORDER BY domain_id, sort_order, id`)
}

func (s *PostgresStore) GetField(ctx context.Context, id int64) (*model.Field, error) {
	f, err := scanField(s.pool.QueryRow(ctx,
		`SELECT `+fieldColumns+` FROM fields WHERE id = $1 AND is_active`, id))
	if err != nil {
		return nil, pgErr(err, fmt.Sprintf("get field %d", id))
	}
	return f, nil
}

func (s *PostgresStore) CreateField(ctx context.Context, f *model.Field) error {
	opts, err := marshalOptions(f.SelectOptions)
	if err != nil {
		return err
	}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO fields (domain_id, name, display_name, unit, data_type, select_options, sort_order, description, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, is_active, created_at`,
		f.DomainID, f.Name, f.DisplayName, f.Unit, f.DataType, opts,
		f.SortOrder, f.Description, f.CreatedBy,
	).Scan(&f.ID, &f.IsActive, &f.CreatedAt)
	if err != nil {
		return pgErr(err, "create field")
	}
	return nil
}

func (s *PostgresStore) UpdateField(ctx context.Context, f *model.Field) error {
	opts, err := marshalOptions(f.SelectOptions)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE fields SET
			display_name = $2, unit = $3, data_type = $4, select_options = $5,
			sort_order = $6, description = $7
		WHERE id = $1 AND is_active`,
		f.ID, f.DisplayName, f.Unit, f.DataType, opts, f.SortOrder, f.Description)
	if err != nil {
		return pgErr(err, fmt.Sprintf("update field %d", f.ID))
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(apperr.ErrNotFound, "postgres: update field %d", f.ID)
	}
	return nil
}

func (s *PostgresStore) SoftDeleteField(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE fields SET is_active = FALSE WHERE id = $1 AND is_active`, id)
	if err != nil {
		return pgErr(err, fmt.Sprintf("delete field %d", id))
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(apperr.ErrNotFound, "postgres: delete field %d", id)
	}
	return nil
}

func marshalOptions(opts []string) ([]byte, error) {
	if len(opts) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: encode select_options")
	}
	return b, nil
}

// --- Values ---

const valueColumns = `v.id, v.pack_id, v.field_id, v.value_text, v.value_numeric,
	v.source_type, v.source_detail, v.contributed_by, u.display_name, v.is_active,
	v.created_at, v.updated_at, COALESCE(c.n, 0)`

const valueJoins = `
	FROM field_values v
	JOIN users u ON v.contributed_by = u.id
	LEFT JOIN (SELECT value_id, count(*) AS n FROM comments GROUP BY value_id) c ON c.value_id = v.id`

func scanValue(row pgx.Row) (*model.Value, error) {
	v := &model.Value{}
	err := row.Scan(&v.ID, &v.PackID, &v.FieldID, &v.ValueText, &v.ValueNumeric,
		&v.SourceType, &v.SourceDetail, &v.ContributedBy, &v.ContributorName,
		&v.IsActive, &v.CreatedAt, &v.UpdatedAt, &v.CommentCount)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *PostgresStore) CreateValue(ctx context.Context, v *model.Value) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO field_values (pack_id, field_id, value_text, value_numeric, source_type, source_detail, contributed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, is_active, created_at, updated_at`,
		v.PackID, v.FieldID, v.ValueText, v.ValueNumeric, string(v.SourceType),
		v.SourceDetail, v.ContributedBy,
	).Scan(&v.ID, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return pgErr(err, "create value")
	}
	return nil
}

func (s *PostgresStore) GetValue(ctx context.Context, id int64) (*model.Value, error) {
	v, err := scanValue(s.pool.QueryRow(ctx,
		`SELECT `+valueColumns+valueJoins+` WHERE v.id = $1 AND v.is_active`, id))
	if err != nil {
		return nil, pgErr(err, fmt.Sprintf("get value %d", id))
	}
	return v, nil
}

// UpdateValue writes payload and source detail in one statement so readers
// never observe one without the other.
func (s *PostgresStore) UpdateValue(ctx context.Context, v *model.Value) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE field_values SET
			value_text = $2, value_numeric = $3, source_detail = $4, updated_at = now()
		WHERE id = $1 AND is_active
		RETURNING updated_at`,
		v.ID, v.ValueText, v.ValueNumeric, v.SourceDetail,
	).Scan(&v.UpdatedAt)
	if err != nil {
		return pgErr(err, fmt.Sprintf("update value %d", v.ID))
	}
	return nil
}

func (s *PostgresStore) SoftDeleteValue(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE field_values SET is_active = FALSE, updated_at = now() WHERE id = $1 AND is_active`, id)
	if err != nil {
		return pgErr(err, fmt.Sprintf("delete value %d", id))
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(apperr.ErrNotFound, "postgres: delete value %d", id)
	}
	return nil
}

func (s *PostgresStore) ListPackValues(ctx context.Context, packID int64) ([]model.Value, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+valueColumns+valueJoins+`
		WHERE v.pack_id = $1 AND v.is_active
		ORDER BY v.field_id, v.id`, packID)
	if err != nil {
		return nil, pgErr(err, fmt.Sprintf("list values for pack %d", packID))
	}
	defer rows.Close()

	var values []model.Value
	for rows.Next() {
		v, err := scanValue(rows)
		if err != nil {
			return nil, pgErr(err, "scan value")
		}
		values = append(values, *v)
	}
	return values, pgErr2(rows.Err(), "list values iterate")
}

// --- Source priorities ---

func (s *PostgresStore) GetPriority(ctx context.Context, userID int64) ([]source.Kind, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT priority_order FROM source_priorities WHERE user_id = $1`, userID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, pgErr(err, fmt.Sprintf("get priority for user %d", userID))
	}
	var order []source.Kind
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, eris.Wrapf(err, "postgres: decode priority for user %d", userID)
	}
	return order, nil
}

// SetPriority replaces the stored order in a single upsert; concurrent writes
// are last-writer-wins at full-order granularity.
func (s *PostgresStore) SetPriority(ctx context.Context, userID int64, order []source.Kind) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return eris.Wrap(err, "postgres: encode priority")
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO source_priorities (user_id, priority_order)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET priority_order = EXCLUDED.priority_order`,
		userID, raw)
	if err != nil {
		return pgErr(err, fmt.Sprintf("set priority for user %d", userID))
	}
	return nil
}

// --- Comments ---

func (s *PostgresStore) ListComments(ctx context.Context, valueID int64) ([]model.Comment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.value_id, c.author_id, u.display_name, c.text, c.created_at
		FROM comments c
		JOIN users u ON c.author_id = u.id
		WHERE c.value_id = $1
		ORDER BY c.created_at, c.id`, valueID)
	if err != nil {
		return nil, pgErr(err, fmt.Sprintf("list comments for value %d", valueID))
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.ValueID, &c.AuthorID, &c.AuthorName, &c.Text, &c.CreatedAt); err != nil {
			return nil, pgErr(err, "scan comment")
		}
		comments = append(comments, c)
	}
	return comments, pgErr2(rows.Err(), "list comments iterate")
}

func (s *PostgresStore) CreateComment(ctx context.Context, c *model.Comment) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO comments (value_id, author_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		c.ValueID, c.AuthorID, c.Text,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return pgErr(err, "create comment")
	}
	return nil
}

// pgErr2 is pgErr for the nil-tolerant rows.Err() tail position.
func pgErr2(err error, op string) error {
	if err == nil {
		return nil
	}
	return pgErr(err, op)
}
