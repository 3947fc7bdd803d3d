// Package pool provides a bounded set of SQLite connections shared by
// concurrent callers.
//
// A Pool never holds more than Config.MaxConnections physical connections.
// Callers borrow one with Acquire (or, preferably, WithConnection) and give
// it back with Release. A borrowed Conn belongs to exactly one caller until
// it is released; every Conn handed out starts outside a transaction.
//
// RunTransactional layers a commit-or-rollback scope on a borrowed Conn:
//
//	err := p.WithConnection(ctx, 0, func(ctx context.Context, conn *pool.Conn) error {
//		return pool.RunTransactional(ctx, conn, func(ctx context.Context, conn *pool.Conn) error {
//			_, err := conn.ExecContext(ctx, "INSERT INTO Role(name, emoji) VALUES(?, ?)", "marshal", "🚩")
//			return err
//		})
//	})
package pool
