package loansvc

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper sends reminder emails for open loans past their expected
// return date.
type Sweeper interface {
	SendReminders(ctx context.Context) (int, error)
}

type sweeper struct {
	r   Repo
	n   Notifier
	log *slog.Logger
}

func NewSweeper(r Repo, n Notifier, log *slog.Logger) Sweeper {
	return &sweeper{r: r, n: n, log: log}
}

func (s *sweeper) SendReminders(ctx context.Context) (int, error) {
	overdue, err := s.r.ListOverdue(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, o := range overdue {
		if err := s.n.OverdueReminder(o.UserEmail, o.LoanID, o.ExpectedReturnDate); err != nil {
			s.log.Error("overdue reminder", "err", err, "loan_id", o.LoanID)
			continue
		}
		sent++
	}
	return sent, nil
}
