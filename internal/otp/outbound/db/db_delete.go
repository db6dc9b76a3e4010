package db

import (
	"context"
	"time"
)

func (s *DB) PurgeExpired(ctx context.Context, before time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "PurgeExpired")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryPurgeExpired, before)
	if err != nil {
		err = s.mapError(err)
		return 0, err
	}

	return tag.RowsAffected(), nil
}
