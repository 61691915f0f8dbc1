package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker"
)

const telegramBaseURL = "https://api.telegram.org"

// Telegram sends messages through the Bot API. Sends are retried with
// backoff behind a circuit breaker, same as the weather source.
type Telegram struct {
	token   string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewTelegram(client *http.Client, token string) *Telegram {
	return &Telegram{
		token:   token,
		baseURL: telegramBaseURL,
		client:  client,
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "telegram",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
}

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send delivers one Markdown message to one chat.
func (t *Telegram) Send(ctx context.Context, chatID int64, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "Markdown",
	})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)

	result, err := t.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		var api apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
			return nil, fmt.Errorf("decoding telegram response: %w", err)
		}
		return api, nil
	})
	if err != nil {
		return err
	}

	api := result.(apiResponse)
	if !api.OK {
		return fmt.Errorf("telegram send to chat %d rejected: %s", chatID, api.Description)
	}
	return nil
}

// Update is one inbound event from getUpdates.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// User identifies the sender of a message.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
}

// Chat identifies where a message came from and where replies go.
type Chat struct {
	ID int64 `json:"id"`
}

// Message is the subset of the Telegram message payload the bot consumes.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type updatesResponse struct {
	OK          bool     `json:"ok"`
	Description string   `json:"description"`
	Result      []Update `json:"result"`
}

// Updates long-polls getUpdates starting after offset. The request blocks
// server-side for up to pollTimeout; the ctx deadline must allow for that.
func (t *Telegram) Updates(ctx context.Context, offset int64, pollTimeout time.Duration) ([]Update, error) {
	values := url.Values{}
	values.Set("offset", strconv.FormatInt(offset, 10))
	values.Set("timeout", strconv.Itoa(int(pollTimeout.Seconds())))
	values.Set("allowed_updates", `["message"]`)

	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?%s", t.baseURL, t.token, values.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload updatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding updates: %w", err)
	}
	if !payload.OK {
		return nil, fmt.Errorf("getUpdates rejected: %s", payload.Description)
	}
	return payload.Result, nil
}
