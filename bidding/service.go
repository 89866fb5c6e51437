package bidding

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"silentbid/models"
)

// ItemStore 定義了出價服務需要的儲存操作
type ItemStore interface {
	// GetItem 以主鍵讀取拍賣品，不存在時回傳 ErrItemNotFound
	GetItem(ctx context.Context, id uuid.UUID) (*models.AuctionItem, error)
	// PlaceBid 在單一交易內重新讀取拍賣品、執行 decide，並將其回傳的
	// 出價紀錄連同新的領先出價原子性地寫入；decide 回傳錯誤時交易中止
	// 且不留下任何寫入
	PlaceBid(ctx context.Context, id uuid.UUID, decide DecideFunc) (*models.Bid, error)
}

// DecideFunc 在交易內以最新的拍賣品狀態重新驗證出價，
// 回傳要寫入的出價紀錄，或以錯誤中止交易
type DecideFunc func(item *models.AuctionItem) (*models.Bid, error)

// FraudOracle 定義了外部詐欺檢查服務的介面
type FraudOracle interface {
	Check(ctx context.Context, input FraudCheckInput) (FraudVerdict, error)
}

// FraudCheckInput 是交給詐欺檢查服務評估的出價內容
type FraudCheckInput struct {
	BidAmount       int64
	UserEmail       string
	UserName        string
	ItemDescription string
	CurrentBid      int64
}

// FraudVerdict 是詐欺檢查服務的判定結果
type FraudVerdict struct {
	IsFraudulent bool
	Reason       string
}

// PlaceBidRequest 是一次出價請求的完整輸入
type PlaceBidRequest struct {
	ItemID        uuid.UUID `validate:"required"`
	BidderName    string    `validate:"required,min=2"`
	BidderEmail   string    `validate:"required,email"`
	Amount        int64     `validate:"required,gt=0"`
	AcceptedTerms bool      `validate:"eq=true"`
}

// Receipt 是出價被接受後回傳給呼叫端的結果
type Receipt struct {
	Bid     models.Bid
	Message string
}

type serviceOptions struct {
	logger *slog.Logger
}

type Option func(*serviceOptions)

// WithLogger 設置日誌記錄器
func WithLogger(logger *slog.Logger) Option {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// Service 實作出價驗證與接受協定：逐項前置檢查、詐欺檢查，
// 最後在儲存層的交易內重新驗證並提交
// 所有協作者都在建構時注入，Service 本身不持有任何拍賣品狀態
type Service struct {
	store    ItemStore
	oracle   FraudOracle
	validate *validator.Validate
	logger   *slog.Logger
}

func NewService(store ItemStore, oracle FraudOracle, opts ...Option) *Service {
	options := serviceOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{
		store:    store,
		oracle:   oracle,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   options.logger.With(slog.String("caller", "BiddingService")),
	}
}

// PlaceBid 依序執行出價的前置檢查與交易提交
//
// 交易前的檢查只是為了快速回饋並避免對明顯過期的出價呼叫詐欺檢查，
// 正確性完全依賴交易內對最新狀態的重新驗證：並行的出價會競爭，
// 先寫入者獲勝，後寫入者會拿到以新價格為準的拒絕原因
func (s *Service) PlaceBid(ctx context.Context, req PlaceBidRequest) (*Receipt, error) {
	const op = "PlaceBid"

	// 1. 欄位驗證，不產生任何副作用
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	// 2. 讀取拍賣品（交易外的初步讀取）
	item, err := s.store.GetItem(ctx, req.ItemID)
	if errors.Is(err, ErrItemNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, &TransientError{Op: op, Err: err}
	}
	if !item.Active {
		return nil, ErrItemNotBiddable
	}

	// 3-4. 價格與加價幅度的初步檢查
	if err := validateAmount(item, req.Amount); err != nil {
		return nil, err
	}

	// 5. 詐欺檢查：失敗或被標記都是硬性拒絕，不會被忽略
	verdict, err := s.oracle.Check(ctx, FraudCheckInput{
		BidAmount:       req.Amount,
		UserEmail:       req.BidderEmail,
		UserName:        req.BidderName,
		ItemDescription: item.Description,
		CurrentBid:      item.CurrentBid,
	})
	if err != nil {
		return nil, &TransientError{Op: op, Err: err}
	}
	if verdict.IsFraudulent {
		return nil, &FraudRejectedError{Reason: verdict.Reason}
	}

	// 交易提交：在交易內以最新狀態重新驗證後寫入
	bid, err := s.store.PlaceBid(ctx, req.ItemID, func(fresh *models.AuctionItem) (*models.Bid, error) {
		if !fresh.Active {
			return nil, ErrItemNotBiddable
		}
		if err := validateAmount(fresh, req.Amount); err != nil {
			return nil, err
		}
		return &models.Bid{
			AuctionItemID: fresh.ID,
			Name:          req.BidderName,
			Email:         req.BidderEmail,
			Amount:        req.Amount,
		}, nil
	})
	if err != nil {
		var rejection error
		switch {
		case errors.Is(err, ErrItemNotFound),
			errors.Is(err, ErrItemNotBiddable),
			errors.Is(err, ErrConflict):
			rejection = err
		case errors.As(err, new(*BidTooLowError)),
			errors.As(err, new(*InvalidIncrementError)):
			rejection = err
		default:
			rejection = &TransientError{Op: op, Err: err}
		}
		return nil, rejection
	}

	s.logger.Info("Bid accepted",
		slog.String("itemID", req.ItemID.String()),
		slog.String("bidder", req.BidderEmail),
		slog.Int64("amount", bid.Amount))
	return &Receipt{
		Bid:     *bid,
		Message: "Bid placed successfully!",
	}, nil
}

// validateRequest 驗證請求欄位，失敗時回傳帶有逐欄位訊息的 ValidationError
func (s *Service) validateRequest(req PlaceBidRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Fields: map[string]string{"request": err.Error()}}
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "ItemID":
			fields["itemId"] = "Item ID is required."
		case "BidderName":
			fields["name"] = "Name must be at least 2 characters."
		case "BidderEmail":
			fields["email"] = "Please enter a valid email address."
		case "Amount":
			fields["amount"] = "Bid amount must be positive."
		case "AcceptedTerms":
			fields["terms"] = "You must agree to the terms and conditions."
		default:
			fields[fe.Field()] = fe.Error()
		}
	}
	return &ValidationError{Fields: fields}
}

// validateAmount 檢查出價金額是否高於目前價格並符合加價規則
// 尚未有人出價時（CurrentBid == StartingBid 且沒有領先者），
// 任何高於起標價的金額都可以接受；否則差額必須是 MinIncrement 的正整數倍
func validateAmount(item *models.AuctionItem, amount int64) error {
	if amount <= item.CurrentBid {
		return &BidTooLowError{CurrentBid: item.CurrentBid}
	}
	if !item.HasLeader() {
		return nil
	}
	if (amount-item.CurrentBid)%item.MinIncrement != 0 {
		return &InvalidIncrementError{
			CurrentBid:  item.CurrentBid,
			MinimumNext: item.CurrentBid + item.MinIncrement,
		}
	}
	return nil
}
