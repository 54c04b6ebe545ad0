package mailerrepo

type SendReq struct {
	To      string
	Subject string
	Body    string
}

type Repo interface {
	Send(req SendReq) error
}
