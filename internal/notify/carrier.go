package notify

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Carrier delivers SMS through an external gateway's REST API. Credentials
// ride as HTTP basic auth; the message goes as a form POST. A Skip flag lets
// dev environments run the real code path without a gateway.
type Carrier struct {
	GatewayURL string
	AccountSID string
	AuthToken  string
	From       string
	Skip       bool
	HTTP       *http.Client
}

var _ Notifier = (*Carrier)(nil)

// NewCarrier creates a gateway client with a delivery timeout well below the
// request timeout, so a slow carrier cannot stall a submission.
func NewCarrier(gatewayURL, accountSID, authToken, from string, skip bool) *Carrier {
	return &Carrier{
		GatewayURL: gatewayURL,
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		Skip:       skip,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendOTP delivers a one-time code.
func (c *Carrier) SendOTP(ctx context.Context, phone, code string) bool {
	return c.send(ctx, phone, "Your password reset OTP is "+code+". It expires in 10 minutes.")
}

// SendAbsenceAlert delivers an absence notification to a parent.
func (c *Carrier) SendAbsenceAlert(ctx context.Context, alert AbsenceAlert) bool {
	return c.send(ctx, alert.Phone, alert.Message())
}

func (c *Carrier) send(ctx context.Context, to, body string) bool {
	if c.Skip {
		log.Printf("carrier skip enabled, dropping sms to %s", to)
		return true
	}
	if c.GatewayURL == "" || to == "" {
		return false
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.From)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.GatewayURL, strings.NewReader(form.Encode()))
	if err != nil {
		log.Printf("carrier request build failed: %v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.AccountSID, c.AuthToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		log.Printf("carrier request failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		log.Printf("carrier error %s: %s", resp.Status, string(respBody))
		return false
	}
	return true
}
