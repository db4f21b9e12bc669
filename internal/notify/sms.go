package notify

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/argusmon/argus/internal/argerr"
)

// SMSConfig describes the HTTP gateway that fans one request out to many
// phone numbers.
type SMSConfig struct {
	GatewayURL string
	Token      string
	Sender     string
	Timeout    time.Duration
}

// SMSSender posts notification texts to an SMS gateway. All numbers of one
// notification travel in a single request so N recipients cost one API call.
type SMSSender struct {
	conf   SMSConfig
	client *http.Client
}

type smsRequest struct {
	To      []string `json:"to"`
	From    string   `json:"from,omitempty"`
	Message string   `json:"message"`
}

func NewSMSSender(conf SMSConfig) (*SMSSender, error) {
	if conf.GatewayURL == "" {
		return nil, argerr.New(argerr.ErrConfiguration, nil, "sms gateway url is required")
	}
	if conf.Timeout <= 0 {
		conf.Timeout = DefaultSendTimeout
	}
	return &SMSSender{
		conf:   conf,
		client: &http.Client{Timeout: conf.Timeout},
	}, nil
}

// Send delivers one message to all given numbers with a single gateway call.
func (s *SMSSender) Send(ctx context.Context, numbers []string, message string) error {
	if len(numbers) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.conf.Timeout)
	defer cancel()

	body, err := json.Marshal(smsRequest{
		To:      numbers,
		From:    s.conf.Sender,
		Message: message,
	})
	if err != nil {
		return argerr.New(argerr.ErrNotification, err, "failed to encode sms request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.conf.GatewayURL, bytes.NewReader(body))
	if err != nil {
		return argerr.New(argerr.ErrNotification, err, "failed to build sms request")
	}
	req.Header.Set("Content-Type", "application/json")
	if s.conf.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.conf.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return argerr.New(argerr.ErrNotification, err, "failed to reach sms gateway")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return argerr.New(argerr.ErrNotification, nil, "sms gateway answered %s", resp.Status)
	}
	return nil
}
