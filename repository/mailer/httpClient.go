package mailerrepo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/deivisson-souza-84lab/libManager/util/httpx"
)

type httpRepo struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTP builds a mail-API client. The send is best effort; callers
// dispatch it off the request path and only log failures.
func NewHTTP(baseURL, apiKey string) Repo {
	return &httpRepo{baseURL: baseURL, apiKey: apiKey, client: httpx.Client()}
}

func (r *httpRepo) Send(req SendReq) error {
	body := map[string]any{
		"to":      req.To,
		"subject": req.Subject,
		"body":    req.Body,
	}
	b, _ := json.Marshal(body)
	httpReq, err := http.NewRequest("POST", r.baseURL+"/v1/messages", bytes.NewReader(b))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail send failed: %s", resp.Status)
	}
	return nil
}
