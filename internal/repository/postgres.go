package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/baloot-market/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresRepository хранит снимки сущностей в PostgreSQL в виде JSONB-документов.
// Изменения выполняются в транзакции с блокировкой строк SELECT ... FOR UPDATE.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

var retryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error

	for i := 0; i <= len(retryDelays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(retryDelays) {
			break
		}

		timer := time.NewTimer(retryDelays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// inTx выполняет fn в транзакции. Транзакция повторяется целиком при временных ошибках,
// поэтому fn должна сама загружать всё, что изменяет.
func (r *PostgresRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := fn(tx); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// lockRecord читает JSONB-документ с блокировкой строки.
func lockRecord[T any](ctx context.Context, tx pgx.Tx, query string, key any, notFound error) (T, error) {
	var rec T
	if err := tx.QueryRow(ctx, query, key).Scan(&rec); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rec, notFound
		}
		return rec, fmt.Errorf("select for update: %w", err)
	}
	return rec, nil
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateUser сохраняет нового пользователя.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (username, data) VALUES ($1, $2)`,
		u.Username(), u.Record(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrUserExists, u.Username())
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser возвращает пользователя по имени.
func (r *PostgresRepository) GetUser(ctx context.Context, username string) (*model.User, error) {
	var rec model.UserRecord
	err := r.pool.QueryRow(ctx, `SELECT data FROM users WHERE username = $1`, username).Scan(&rec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return model.RestoreUser(rec)
}

// UpdateUser применяет fn к пользователю под блокировкой строки.
func (r *PostgresRepository) UpdateUser(ctx context.Context, username string, fn func(*model.User) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		rec, err := lockRecord[model.UserRecord](ctx, tx,
			`SELECT data FROM users WHERE username = $1 FOR UPDATE`, username, ErrUserNotFound)
		if err != nil {
			return err
		}

		u, err := model.RestoreUser(rec)
		if err != nil {
			return err
		}
		if err := fn(u); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE users SET data = $2 WHERE username = $1`, username, u.Record()); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		return nil
	})
}

// CreateProvider сохраняет поставщика.
func (r *PostgresRepository) CreateProvider(ctx context.Context, p model.Provider) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO providers (id, data) VALUES ($1, $2)`, p.ID, p)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("provider %s: %w", p.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("create provider: %w", err)
	}
	return nil
}

// GetProvider возвращает поставщика по идентификатору.
func (r *PostgresRepository) GetProvider(ctx context.Context, id string) (*model.Provider, error) {
	var p model.Provider
	err := r.pool.QueryRow(ctx, `SELECT data FROM providers WHERE id = $1`, id).Scan(&p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("get provider: %w", err)
	}
	return &p, nil
}

// ListProviders возвращает всех поставщиков, упорядоченных по идентификатору.
func (r *PostgresRepository) ListProviders(ctx context.Context) ([]model.Provider, error) {
	rows, err := r.pool.Query(ctx, `SELECT data FROM providers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select providers: %w", err)
	}

	res, err := pgx.CollectRows(rows, pgx.RowTo[model.Provider])
	if err != nil {
		return nil, fmt.Errorf("scan providers: %w", err)
	}
	return res, nil
}

// CreateCommodity сохраняет новый товар.
func (r *PostgresRepository) CreateCommodity(ctx context.Context, c *model.Commodity) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO commodities (id, data) VALUES ($1, $2)`, c.ID(), c.Record())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("commodity %s: %w", c.ID(), ErrAlreadyExists)
		}
		return fmt.Errorf("create commodity: %w", err)
	}
	return nil
}

// GetCommodity возвращает товар по идентификатору.
func (r *PostgresRepository) GetCommodity(ctx context.Context, id string) (*model.Commodity, error) {
	var rec model.CommodityRecord
	err := r.pool.QueryRow(ctx, `SELECT data FROM commodities WHERE id = $1`, id).Scan(&rec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCommodityNotFound
		}
		return nil, fmt.Errorf("get commodity: %w", err)
	}
	return model.RestoreCommodity(rec)
}

// ListCommodities возвращает весь каталог, упорядоченный по идентификатору.
func (r *PostgresRepository) ListCommodities(ctx context.Context) ([]*model.Commodity, error) {
	rows, err := r.pool.Query(ctx, `SELECT data FROM commodities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select commodities: %w", err)
	}

	recs, err := pgx.CollectRows(rows, pgx.RowTo[model.CommodityRecord])
	if err != nil {
		return nil, fmt.Errorf("scan commodities: %w", err)
	}

	res := make([]*model.Commodity, 0, len(recs))
	for _, rec := range recs {
		c, err := model.RestoreCommodity(rec)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, nil
}

// UpdateCommodity применяет fn к товару под блокировкой строки.
func (r *PostgresRepository) UpdateCommodity(ctx context.Context, id string, fn func(*model.Commodity) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		rec, err := lockRecord[model.CommodityRecord](ctx, tx,
			`SELECT data FROM commodities WHERE id = $1 FOR UPDATE`, id, ErrCommodityNotFound)
		if err != nil {
			return err
		}

		c, err := model.RestoreCommodity(rec)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE commodities SET data = $2 WHERE id = $1`, id, c.Record()); err != nil {
			return fmt.Errorf("update commodity: %w", err)
		}
		return nil
	})
}

// NextCommentID выдаёт следующий идентификатор комментария из последовательности.
func (r *PostgresRepository) NextCommentID(ctx context.Context) (int64, error) {
	var id int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('comment_id_seq')`).Scan(&id); err != nil {
		return 0, fmt.Errorf("next comment id: %w", err)
	}
	return id, nil
}

// CreateComment сохраняет комментарий и сдвигает последовательность comment_id_seq
// не ниже его идентификатора, чтобы NextCommentID не выдал занятый номер.
func (r *PostgresRepository) CreateComment(ctx context.Context, c *model.Comment) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO comments (id, commodity_id, data) VALUES ($1, $2, $3)`,
			c.ID(), c.CommodityID(), c.Record(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("comment %d: %w", c.ID(), ErrAlreadyExists)
			}
			return fmt.Errorf("create comment: %w", err)
		}

		_, err = tx.Exec(ctx,
			`SELECT setval('comment_id_seq', GREATEST($1::bigint, (SELECT last_value FROM comment_id_seq)))`,
			c.ID(),
		)
		if err != nil {
			return fmt.Errorf("advance comment id sequence: %w", err)
		}
		return nil
	})
}

// GetComment возвращает комментарий по идентификатору.
func (r *PostgresRepository) GetComment(ctx context.Context, id int64) (*model.Comment, error) {
	var rec model.CommentRecord
	err := r.pool.QueryRow(ctx, `SELECT data FROM comments WHERE id = $1`, id).Scan(&rec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return model.RestoreComment(rec)
}

// ListCommentsByCommodity возвращает комментарии товара в порядке создания.
func (r *PostgresRepository) ListCommentsByCommodity(ctx context.Context, commodityID string) ([]*model.Comment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT data FROM comments WHERE commodity_id = $1 ORDER BY id`,
		commodityID,
	)
	if err != nil {
		return nil, fmt.Errorf("select comments: %w", err)
	}

	recs, err := pgx.CollectRows(rows, pgx.RowTo[model.CommentRecord])
	if err != nil {
		return nil, fmt.Errorf("scan comments: %w", err)
	}

	res := make([]*model.Comment, 0, len(recs))
	for _, rec := range recs {
		c, err := model.RestoreComment(rec)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, nil
}

// UpdateComment применяет fn к комментарию под блокировкой строки.
func (r *PostgresRepository) UpdateComment(ctx context.Context, id int64, fn func(*model.Comment) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		rec, err := lockRecord[model.CommentRecord](ctx, tx,
			`SELECT data FROM comments WHERE id = $1 FOR UPDATE`, id, ErrCommentNotFound)
		if err != nil {
			return err
		}

		c, err := model.RestoreComment(rec)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE comments SET data = $2 WHERE id = $1`, id, c.Record()); err != nil {
			return fmt.Errorf("update comment: %w", err)
		}
		return nil
	})
}

// Checkout блокирует пользователя и товары из его списка покупок, применяет fn
// и сохраняет все изменения в одной транзакции.
func (r *PostgresRepository) Checkout(ctx context.Context, username string, fn func(*model.User, map[string]*model.Commodity) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		rec, err := lockRecord[model.UserRecord](ctx, tx,
			`SELECT data FROM users WHERE username = $1 FOR UPDATE`, username, ErrUserNotFound)
		if err != nil {
			return err
		}

		u, err := model.RestoreUser(rec)
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(rec.BuyList))
		for id := range rec.BuyList {
			ids = append(ids, id)
		}
		slices.Sort(ids)

		// Строки блокируются в порядке идентификаторов, чтобы параллельные оформления не взаимоблокировались.
		items := make(map[string]*model.Commodity, len(ids))
		for _, id := range ids {
			crec, err := lockRecord[model.CommodityRecord](ctx, tx,
				`SELECT data FROM commodities WHERE id = $1 FOR UPDATE`, id, ErrCommodityNotFound)
			if err != nil {
				return fmt.Errorf("checkout %s: %w", id, err)
			}
			c, err := model.RestoreCommodity(crec)
			if err != nil {
				return err
			}
			items[id] = c
		}

		if err := fn(u, items); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE users SET data = $2 WHERE username = $1`, username, u.Record()); err != nil {
			return fmt.Errorf("update user: %w", err)
		}

		batch := &pgx.Batch{}
		for id, c := range items {
			batch.Queue(`UPDATE commodities SET data = $2 WHERE id = $1`, id, c.Record())
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("update commodities: %w", err)
		}
		return nil
	})
}
