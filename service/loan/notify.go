package loansvc

import (
	"fmt"
	"strings"
	"time"

	"github.com/deivisson-souza-84lab/libManager/model"
	mailerrepo "github.com/deivisson-souza-84lab/libManager/repository/mailer"
)

// Notifier sends loan lifecycle emails. Sends are fire-and-forget;
// failures are logged by the caller and never fail the operation.
type Notifier interface {
	LoanCreated(to string, loan *model.LoanDetail) error
	OverdueReminder(to string, loanID int64, expected time.Time) error
}

type mailNotifier struct{ m mailerrepo.Repo }

func NewNotifier(m mailerrepo.Repo) Notifier { return &mailNotifier{m: m} }

func (n *mailNotifier) LoanCreated(to string, loan *model.LoanDetail) error {
	var titles []string
	for _, b := range loan.Books {
		titles = append(titles, b.Title)
	}
	body := fmt.Sprintf(
		"Hello %s,\n\nYour loan #%d was registered on %s.\nBooks: %s.\nExpected return date: %s.\n",
		loan.UserName, loan.ID, loan.LoanDate,
		strings.Join(titles, ", "), loan.ExpectedReturnDate,
	)
	return n.m.Send(mailerrepo.SendReq{
		To:      to,
		Subject: fmt.Sprintf("Loan #%d registered", loan.ID),
		Body:    body,
	})
}

func (n *mailNotifier) OverdueReminder(to string, loanID int64, expected time.Time) error {
	body := fmt.Sprintf(
		"Your loan #%d was expected back on %s. Please return the books.\n",
		loanID, expected.Format(model.DateLayout),
	)
	return n.m.Send(mailerrepo.SendReq{
		To:      to,
		Subject: fmt.Sprintf("Loan #%d is overdue", loanID),
		Body:    body,
	})
}
