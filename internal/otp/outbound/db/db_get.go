package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
)

func (s *DB) FindLatest(ctx context.Context, identity string) (_ *entity.Record, err error) {
	ctx, span := s.startSpan(ctx, "FindLatest")
	defer func() { s.endSpan(span, err) }()

	rec, err := scanRecord(s.conn.QueryRow(ctx, queryFindLatest, identity))
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return rec, nil
}

func (s *DB) FindActive(ctx context.Context, identity string, now time.Time) (_ *entity.Record, err error) {
	ctx, span := s.startSpan(ctx, "FindActive")
	defer func() { s.endSpan(span, err) }()

	rec, err := scanRecord(s.conn.QueryRow(ctx, queryFindActive, identity, now))
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return rec, nil
}

func (s *DB) CountSince(ctx context.Context, identity string, since time.Time) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "CountSince")
	defer func() { s.endSpan(span, err) }()

	var n int
	if err = s.conn.QueryRow(ctx, queryCountSince, identity, since).Scan(&n); err != nil {
		err = s.mapError(err)
		return 0, err
	}

	return n, nil
}
