package fraud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrEmptyCompletion 表示模型沒有回傳任何內容
var ErrEmptyCompletion = errors.New("model returned no completion")

// Input 是交給模型評估的出價內容，金額以分為單位
type Input struct {
	BidAmount       int64
	UserEmail       string
	UserName        string
	ItemDescription string
	CurrentBid      int64
}

// Verdict 是模型的判定結果
type Verdict struct {
	IsFraudulent bool   `json:"isFraudulent"`
	Reason       string `json:"reason"`
}

// promptTemplate 要求模型以固定的 JSON 形狀回答，
// 參數依序為：出價金額、使用者信箱、使用者名稱、商品描述、目前最高出價
const promptTemplate = `You are an AI assistant that specializes in detecting fraudulent bids in online auctions.
Analyze the following bid information and determine if the bid is potentially fraudulent.
Consider factors such as unusually high bid amounts, suspicious user behavior, and inconsistencies in the provided information.

Bid Amount: %.2f
User Email: %s
User Name: %s
Item Description: %s
Current Bid: %.2f

Respond with a JSON object of the shape {"isFraudulent": boolean, "reason": string}.
If the bid is fraudulent, explain the reason why.`

type clientOptions struct {
	httpClient *http.Client
	logger     *slog.Logger
	model      string
}

type Option func(*clientOptions)

// WithHTTPClient 設置自訂的 HTTP 客戶端
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = httpClient
	}
}

// WithLogger 設置日誌記錄器
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithModel 設置要使用的模型名稱
func WithModel(model string) Option {
	return func(o *clientOptions) {
		o.model = model
	}
}

// WithTimeout 設置單次檢查的逾時時間
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.httpClient.Timeout = d
	}
}

// Client 透過 chat-completions 形式的提示端點執行出價的詐欺檢查
// 端點被視為不透明的判定者，這裡只負責組裝提示與解析判定結果
type Client struct {
	endpoint string
	apiKey   string
	logger   *slog.Logger
	options  clientOptions
}

func NewClient(endpoint, apiKey string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, errors.New("endpoint cannot be empty")
	}

	// 默認選項
	options := clientOptions{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     slog.Default(),
		model:      "gemini-2.0-flash",
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}

	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		logger:   options.logger.With(slog.String("caller", "FraudClient")),
		options:  options,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Check 同步地向提示端點請求一次判定
// 任何傳輸錯誤、非 2xx 回應或無法解析的回答都以錯誤回報，
// 由呼叫端決定如何處置，絕不默默當成通過
func (c *Client) Check(ctx context.Context, input Input) (Verdict, error) {
	const op = "Check"

	request := chatRequest{
		Model: c.options.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: fmt.Sprintf(promptTemplate,
					float64(input.BidAmount)/100,
					input.UserEmail,
					input.UserName,
					input.ItemDescription,
					float64(input.CurrentBid)/100,
				),
			},
		},
	}
	request.ResponseFormat.Type = "json_object"
	body, err := json.Marshal(request)
	if err != nil {
		return Verdict{}, fmt.Errorf("[%s] Fail to marshal request, err=%w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Verdict{}, fmt.Errorf("[%s] Fail to create request, err=%w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.options.httpClient.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("[%s] Fail to send request, err=%w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Verdict{}, fmt.Errorf("[%s] Request failed with status code=%d", op, resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Verdict{}, fmt.Errorf("[%s] Fail to read response body, err=%w", op, err)
	}
	var completion chatResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return Verdict{}, fmt.Errorf("[%s] Fail to decode response body, err=%w", op, err)
	}
	if len(completion.Choices) == 0 {
		return Verdict{}, fmt.Errorf("[%s] err=%w", op, ErrEmptyCompletion)
	}

	verdict, err := parseVerdict(completion.Choices[0].Message.Content)
	if err != nil {
		return Verdict{}, fmt.Errorf("[%s] Fail to parse verdict, err=%w", op, err)
	}
	c.logger.Debug("fraud check completed",
		slog.Bool("isFraudulent", verdict.IsFraudulent),
		slog.String("reason", verdict.Reason))
	return verdict, nil
}

// parseVerdict 解析模型回答的 JSON
// 即使要求了 json_object，部分模型仍會把回答包在 markdown 區塊裡
func parseVerdict(content string) (Verdict, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var verdict Verdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &verdict); err != nil {
		return Verdict{}, err
	}
	return verdict, nil
}
