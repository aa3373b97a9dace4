package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/propdesk/account"
)

// SQLite persists challenges and orders in a single sqlite database.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Serialized writes; the challenge row is the only contended resource
	// and sqlite handles that fine with a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) CreateChallenge(ctx context.Context, c *account.Challenge) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO challenges
		(id, user_id, plan, initial_balance, equity, status, failure_reason,
		 max_daily_loss_pct, max_total_loss_pct, profit_target_pct, leverage,
		 created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Plan, c.InitialBalance, c.Equity, c.Status,
		c.FailureReason, c.MaxDailyLossPct, c.MaxTotalLossPct,
		c.ProfitTargetPct, c.Leverage, c.CreatedAt, c.CompletedAt,
	)
	return err
}

const challengeCols = `id, user_id, plan, initial_balance, equity, status,
	failure_reason, max_daily_loss_pct, max_total_loss_pct,
	profit_target_pct, leverage, created_at, completed_at`

func scanChallenge(row interface{ Scan(...any) error }) (account.Challenge, error) {
	var c account.Challenge
	var completed sql.NullTime
	err := row.Scan(
		&c.ID, &c.UserID, &c.Plan, &c.InitialBalance, &c.Equity, &c.Status,
		&c.FailureReason, &c.MaxDailyLossPct, &c.MaxTotalLossPct,
		&c.ProfitTargetPct, &c.Leverage, &c.CreatedAt, &completed,
	)
	if err != nil {
		return account.Challenge{}, err
	}
	if completed.Valid {
		t := completed.Time
		c.CompletedAt = &t
	}
	return c, nil
}

func (s *SQLite) GetChallenge(ctx context.Context, id string) (account.Challenge, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+challengeCols+` FROM challenges WHERE id = ?`, id)
	c, err := scanChallenge(row)
	if err == sql.ErrNoRows {
		return account.Challenge{}, ErrChallengeNotFound
	}
	return c, err
}

func (s *SQLite) UpdateChallenge(ctx context.Context, id string, p ChallengePatch) error {
	sets := []string{}
	args := []any{}
	if p.Equity != nil {
		sets = append(sets, "equity = ?")
		args = append(args, *p.Equity)
	}
	if p.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *p.Status)
	}
	if p.FailureReason != nil {
		sets = append(sets, "failure_reason = ?")
		args = append(args, *p.FailureReason)
	}
	if p.CompletedAt != nil {
		sets = append(sets, "completed_at = ?")
		args = append(args, *p.CompletedAt)
	}
	if p.Leverage != nil {
		sets = append(sets, "leverage = ?")
		args = append(args, *p.Leverage)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE challenges SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrChallengeNotFound
	}
	return nil
}

func (s *SQLite) CompleteChallenge(ctx context.Context, id string, status account.Status, reason string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE challenges
		SET status = ?, failure_reason = ?, completed_at = ?
		WHERE id = ? AND status = 'active'`,
		status, reason, at, id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLite) ListActiveChallenges(ctx context.Context) ([]account.Challenge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+challengeCols+` FROM challenges WHERE status = 'active' ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []account.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLite) CreateOrder(ctx context.Context, o *account.Order) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders
		(id, challenge_id, symbol, side, quantity, entry_price, is_open,
		 close_price, realized_pl, notes, tags, screenshot_url, created_at, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.ChallengeID, o.Symbol, o.Side, o.Quantity, o.EntryPrice,
		o.Open, o.ClosePrice, o.RealizedPL, o.Notes, o.Tags, o.ScreenshotURL,
		o.CreatedAt, o.ClosedAt,
	)
	return err
}

const orderCols = `id, challenge_id, symbol, side, quantity, entry_price,
	is_open, close_price, realized_pl, notes, tags, screenshot_url,
	created_at, closed_at`

func scanOrder(row interface{ Scan(...any) error }) (account.Order, error) {
	var o account.Order
	var closed sql.NullTime
	err := row.Scan(
		&o.ID, &o.ChallengeID, &o.Symbol, &o.Side, &o.Quantity, &o.EntryPrice,
		&o.Open, &o.ClosePrice, &o.RealizedPL, &o.Notes, &o.Tags,
		&o.ScreenshotURL, &o.CreatedAt, &closed,
	)
	if err != nil {
		return account.Order{}, err
	}
	if closed.Valid {
		t := closed.Time
		o.ClosedAt = &t
	}
	return o, nil
}

func (s *SQLite) GetOrder(ctx context.Context, id string) (account.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return account.Order{}, ErrOrderNotFound
	}
	return o, err
}

func (s *SQLite) UpdateOrder(ctx context.Context, id string, p OrderPatch) error {
	sets := []string{}
	args := []any{}
	if p.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *p.Notes)
	}
	if p.Tags != nil {
		sets = append(sets, "tags = ?")
		args = append(args, *p.Tags)
	}
	if p.ScreenshotURL != nil {
		sets = append(sets, "screenshot_url = ?")
		args = append(args, *p.ScreenshotURL)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (s *SQLite) CloseOrders(ctx context.Context, challengeID string, closes []OrderClose) error {
	if len(closes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var totalPL float64
	for _, cl := range closes {
		res, err := tx.ExecContext(ctx, `
			UPDATE orders
			SET is_open = 0, close_price = ?, realized_pl = ?, closed_at = ?
			WHERE id = ? AND challenge_id = ? AND is_open = 1`,
			cl.ClosePrice, cl.RealizedPL, cl.At, cl.OrderID, challengeID,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			// Either the order doesn't exist for this challenge or it was
			// closed underneath us; tell them apart for the caller.
			var open bool
			err := tx.QueryRowContext(ctx,
				`SELECT is_open FROM orders WHERE id = ? AND challenge_id = ?`,
				cl.OrderID, challengeID).Scan(&open)
			if err == sql.ErrNoRows {
				return fmt.Errorf("order %s: %w", cl.OrderID, ErrOrderNotFound)
			}
			if err != nil {
				return err
			}
			return fmt.Errorf("order %s: %w", cl.OrderID, ErrOrderAlreadyClosed)
		}
		totalPL += cl.RealizedPL
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE challenges SET equity = equity + ? WHERE id = ? AND status = 'active'`,
		totalPL, challengeID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var status string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM challenges WHERE id = ?`, challengeID).Scan(&status)
		if err == sql.ErrNoRows {
			return ErrChallengeNotFound
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("challenge %s is %s: %w", challengeID, status, ErrChallengeNotActive)
	}

	return tx.Commit()
}

func (s *SQLite) ListOpenOrders(ctx context.Context, challengeID string) ([]account.Order, error) {
	return s.listOrders(ctx,
		`SELECT `+orderCols+` FROM orders
		 WHERE challenge_id = ? AND is_open = 1
		 ORDER BY created_at DESC`, challengeID)
}

func (s *SQLite) ListOrders(ctx context.Context, challengeID string) ([]account.Order, error) {
	return s.listOrders(ctx,
		`SELECT `+orderCols+` FROM orders
		 WHERE challenge_id = ?
		 ORDER BY created_at DESC`, challengeID)
}

func (s *SQLite) listOrders(ctx context.Context, query string, args ...any) ([]account.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []account.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
