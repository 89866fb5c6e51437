package bidding_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"silentbid/bidding"
	"silentbid/models"
)

// fakeStore 以互斥鎖模擬儲存層的交易：decide 與寫回在鎖內
// 一起完成，和資料庫的列鎖一樣使並行出價序列化
type fakeStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]*models.AuctionItem
	bids  []models.Bid

	// forceConflict 讓下一次通過 decide 的寫入以 ErrConflict 中止，
	// 模擬帶條件更新輸掉競爭的情況
	forceConflict bool
	// failWith 讓所有操作以指定錯誤失敗
	failWith error
}

func newFakeStore(items ...*models.AuctionItem) *fakeStore {
	s := &fakeStore{items: make(map[uuid.UUID]*models.AuctionItem)}
	for _, item := range items {
		s.items[item.ID] = item
	}
	return s
}

func (s *fakeStore) GetItem(ctx context.Context, id uuid.UUID) (*models.AuctionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	item, ok := s.items[id]
	if !ok {
		return nil, bidding.ErrItemNotFound
	}
	snapshot := *item
	return &snapshot, nil
}

func (s *fakeStore) PlaceBid(ctx context.Context, id uuid.UUID, decide bidding.DecideFunc) (*models.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	item, ok := s.items[id]
	if !ok {
		return nil, bidding.ErrItemNotFound
	}
	fresh := *item
	bid, err := decide(&fresh)
	if err != nil {
		return nil, err
	}
	if s.forceConflict {
		s.forceConflict = false
		return nil, bidding.ErrConflict
	}
	bid.ID = uuid.New()
	bid.CreatedAt = time.Now()
	item.CurrentBid = bid.Amount
	item.HighestBidderName = &bid.Name
	item.HighestBidderEmail = &bid.Email
	s.bids = append(s.bids, *bid)
	return bid, nil
}

func (s *fakeStore) snapshot(id uuid.UUID) models.AuctionItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.items[id]
}

func (s *fakeStore) bidCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bids)
}

func (s *fakeStore) acceptedAmounts() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	amounts := make([]int64, len(s.bids))
	for i, bid := range s.bids {
		amounts[i] = bid.Amount
	}
	return amounts
}

// fakeOracle 回傳預先設定的判定結果並記錄收到的輸入
type fakeOracle struct {
	mu      sync.Mutex
	verdict bidding.FraudVerdict
	err     error
	calls   []bidding.FraudCheckInput
}

func (o *fakeOracle) Check(ctx context.Context, input bidding.FraudCheckInput) (bidding.FraudVerdict, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, input)
	if o.err != nil {
		return bidding.FraudVerdict{}, o.err
	}
	return o.verdict, nil
}

func (o *fakeOracle) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.calls)
}
